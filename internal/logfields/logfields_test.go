package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Stage", KeyStage, "publish", Stage("publish")},
		{"State", KeyState, "Done", State("Done")},
		{"Plugin", KeyPlugin, "registry", Plugin("registry")},
		{"Package", KeyPackage, "demo", Package("demo")},
		{"Version", KeyVersion, "1.2.3", Version("1.2.3")},
		{"LastVersion", KeyLastVersion, "1.2.2", LastVersion("1.2.2")},
		{"ReleaseType", KeyReleaseType, "minor", ReleaseType("minor")},
		{"Kind", KeyKind, "ENOCHANGE", Kind("ENOCHANGE")},
		{"Path", KeyPath, "package.json", Path("package.json")},
		{"Commit", KeyCommit, "0123abcd", Commit("0123abcdef0123456789")},
		{"ShortCommit", KeyCommit, "abc", Commit("abc")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Attempt(3); v.Key != KeyAttempt || v.Value.Int64() != 3 {
		t.Fatalf("Attempt mismatch: %v", v)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	if got := Error(errors.New("err-test")).Value.String(); got != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", got)
	}
}
