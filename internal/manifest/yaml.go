package manifest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLDocument edits a version scalar in a YAML file, keeping comments.
type YAMLDocument struct {
	path string
	key  []string
}

// NewYAMLDocument returns a document for path using the dotted key
// (default "version").
func NewYAMLDocument(path, key string) *YAMLDocument {
	if key == "" {
		key = "version"
	}
	return &YAMLDocument{path: path, key: strings.Split(key, ".")}
}

func (d *YAMLDocument) Path() string { return d.path }

// GetVersion returns the version scalar, or "" when absent.
func (d *YAMLDocument) GetVersion() (string, error) {
	root, err := d.read()
	if err != nil {
		return "", err
	}
	if n := lookup(root, d.key); n != nil {
		return n.Value, nil
	}
	return "", nil
}

// SetVersion sets the version scalar, creating missing mapping keys.
func (d *YAMLDocument) SetVersion(version string) error {
	root, err := d.read()
	if err != nil {
		return err
	}
	if err := set(root, d.key, version); err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return writeFileAtomic(d.path, buf.Bytes())
}

func (d *YAMLDocument) read() (*yaml.Node, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", d.path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	return &doc, nil
}

func mappingOf(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func lookup(doc *yaml.Node, key []string) *yaml.Node {
	n := mappingOf(doc)
	for _, k := range key {
		if n.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == k {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

func set(doc *yaml.Node, key []string, value string) error {
	n := mappingOf(doc)
	for depth, k := range key {
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(key[:depth], "."))
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == k {
				next = n.Content[i+1]
				break
			}
		}
		last := depth == len(key)-1
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if last {
				next = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str"}
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, next)
		}
		if last {
			next.Kind = yaml.ScalarNode
			next.Tag = "!!str"
			next.Value = value
			next.Content = nil
		}
		n = next
	}
	return nil
}
