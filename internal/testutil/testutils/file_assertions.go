package helpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// DocumentAssertions checks version-bearing documents under a project root.
type DocumentAssertions struct {
	t    *testing.T
	root string
}

// NewDocumentAssertions returns assertions rooted at dir.
func NewDocumentAssertions(t *testing.T, dir string) *DocumentAssertions {
	return &DocumentAssertions{t: t, root: dir}
}

func (da *DocumentAssertions) read(rel string) (string, bool) {
	da.t.Helper()
	data, err := os.ReadFile(filepath.Join(da.root, rel))
	if err != nil {
		da.t.Errorf("read %s: %v", rel, err)
		return "", false
	}
	return string(data), true
}

// Snapshot returns the current content of rel for a later Unchanged check.
func (da *DocumentAssertions) Snapshot(rel string) string {
	da.t.Helper()
	s, _ := da.read(rel)
	return s
}

// Unchanged fails when rel no longer holds exactly want.
func (da *DocumentAssertions) Unchanged(rel, want string) *DocumentAssertions {
	da.t.Helper()
	if got, ok := da.read(rel); ok && got != want {
		da.t.Errorf("%s changed.\nwant:\n%s\ngot:\n%s", rel, want, got)
	}
	return da
}

// JSONField fails unless the gjson path in rel resolves to want.
func (da *DocumentAssertions) JSONField(rel, path, want string) *DocumentAssertions {
	da.t.Helper()
	got, ok := da.read(rel)
	if !ok {
		return da
	}
	if v := gjson.Get(got, path); !v.Exists() || v.String() != want {
		da.t.Errorf("%s: %s = %q, want %q", rel, path, v.String(), want)
	}
	return da
}

// Contains fails unless rel contains substr.
func (da *DocumentAssertions) Contains(rel, substr string) *DocumentAssertions {
	da.t.Helper()
	if got, ok := da.read(rel); ok && !strings.Contains(got, substr) {
		da.t.Errorf("expected %s to contain %q, got:\n%s", rel, substr, got)
	}
	return da
}
