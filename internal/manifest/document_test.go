package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestJSONDocumentPreservesLayout(t *testing.T) {
	dir := t.TempDir()
	orig := "{\n  \"name\": \"demo\",\n  \"version\": \"0.0.0-development\",\n  \"scripts\": {\n    \"test\": \"x\"\n  }\n}\n"
	path := writeFile(t, dir, "package.json", orig)

	doc := NewJSONDocument(path, "")
	v, err := doc.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0-development", v)

	require.NoError(t, doc.SetVersion("1.0.0"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"version\": \"1.0.0\",\n  \"scripts\": {\n    \"test\": \"x\"\n  }\n}\n", string(data))

	name, err := doc.Name()
	require.NoError(t, err)
	assert.Equal(t, "demo", name)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestJSONDocumentAddsMissingVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "package.json", `{"name":"demo"}`)
	doc := NewJSONDocument(path, "")
	v, err := doc.GetVersion()
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, doc.SetVersion("2.0.0"))
	v, err = doc.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v)
}

func TestJSONDocumentInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "package.json", `{"name":`)
	_, err := NewJSONDocument(path, "").GetVersion()
	assert.Error(t, err)
	assert.Error(t, NewJSONDocument(path, "").SetVersion("1.0.0"))
}

func TestYAMLDocumentKeepsComments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Chart.yaml", "# chart\nname: demo\nversion: 0.1.0 # bumped by CI\nappVersion: x\n")
	doc := NewYAMLDocument(path, "")
	v, err := doc.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", v)

	require.NoError(t, doc.SetVersion("1.2.0"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# chart")
	assert.Contains(t, string(data), "version: 1.2.0 # bumped by CI")
	assert.Contains(t, string(data), "appVersion: x")
}

func TestYAMLDocumentNestedKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "meta.yml", "project:\n  name: demo\n")
	doc := NewYAMLDocument(path, "project.release.version")
	require.NoError(t, doc.SetVersion("3.0.0"))
	v, err := doc.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", v)

	bad := NewYAMLDocument(path, "project.name.version")
	assert.Error(t, bad.SetVersion("1.0.0"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"demo","version":"1.0.0"}`)

	docs, err := Open(dir, DefaultSpecs())
	require.NoError(t, err)
	require.Len(t, docs, 1, "missing optional shrinkwrap must be skipped")
	assert.Equal(t, filepath.Join(dir, "package.json"), docs[0].Path())

	writeFile(t, dir, "npm-shrinkwrap.json", `{"name":"demo","version":"1.0.0","lockfileVersion":3}`)
	docs, err = Open(dir, DefaultSpecs())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = Open(dir, []Spec{{Path: "missing.json"}})
	assert.Error(t, err)

	writeFile(t, dir, "VERSION.txt", "1.0.0")
	_, err = Open(dir, []Spec{{Path: "VERSION.txt"}})
	assert.Error(t, err)

	writeFile(t, dir, "chart.yml", "version: 1.0.0\n")
	docs, err = Open(dir, []Spec{{Path: "chart.yml"}})
	require.NoError(t, err)
	assert.IsType(t, &YAMLDocument{}, docs[0])
}
