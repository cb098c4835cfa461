// Package manifest implements the version-bearing documents a release
// rewrites before anything is uploaded.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies how a document stores its version.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a file carrying the package version.
type Document interface {
	Path() string
	GetVersion() (string, error)
	SetVersion(version string) error
}

// Spec configures one document.
type Spec struct {
	Path   string `koanf:"path" yaml:"path"`
	Format Format `koanf:"format" yaml:"format,omitempty"`
	// Key is the dotted path of the version field; defaults to "version".
	Key string `koanf:"key" yaml:"key,omitempty"`
	// Optional documents are skipped when the file does not exist.
	Optional bool `koanf:"optional" yaml:"optional,omitempty"`
}

// DefaultSpecs are the npm manifests: package.json and, when present,
// npm-shrinkwrap.json.
func DefaultSpecs() []Spec {
	return []Spec{
		{Path: "package.json", Format: FormatJSON},
		{Path: "npm-shrinkwrap.json", Format: FormatJSON, Optional: true},
	}
}

// DetectFormat infers a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer document format for %s", path)
	}
}

// Open builds documents for specs rooted at dir. Missing optional files
// are skipped; missing required files are an error.
func Open(dir string, specs []Spec) ([]Document, error) {
	docs := make([]Document, 0, len(specs))
	for _, s := range specs {
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) && s.Optional {
				continue
			}
			return nil, fmt.Errorf("version document %s: %w", s.Path, err)
		}
		format := s.Format
		if format == "" {
			f, err := DetectFormat(path)
			if err != nil {
				return nil, err
			}
			format = f
		}
		switch format {
		case FormatJSON:
			docs = append(docs, NewJSONDocument(path, s.Key))
		case FormatYAML:
			docs = append(docs, NewYAMLDocument(path, s.Key))
		default:
			return nil, fmt.Errorf("unsupported document format %q for %s", format, s.Path)
		}
	}
	return docs, nil
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
