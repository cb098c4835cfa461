package manifest

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONDocument edits a JSON file in place, preserving key order and formatting.
type JSONDocument struct {
	path string
	key  string
}

// NewJSONDocument returns a document for path using key (default "version").
func NewJSONDocument(path, key string) *JSONDocument {
	if key == "" {
		key = "version"
	}
	return &JSONDocument{path: path, key: key}
}

func (d *JSONDocument) Path() string { return d.path }

// GetVersion returns the version field, or "" when absent.
func (d *JSONDocument) GetVersion() (string, error) {
	data, err := d.read()
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, d.key).String(), nil
}

// Name returns the top-level "name" field.
func (d *JSONDocument) Name() (string, error) {
	data, err := d.read()
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, "name").String(), nil
}

// SetVersion rewrites the version field.
func (d *JSONDocument) SetVersion(version string) error {
	data, err := d.read()
	if err != nil {
		return err
	}
	out, err := sjson.SetBytes(data, d.key, version)
	if err != nil {
		return fmt.Errorf("set %s in %s: %w", d.key, d.path, err)
	}
	return writeFileAtomic(d.path, out)
}

func (d *JSONDocument) read() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", d.path)
	}
	return data, nil
}
