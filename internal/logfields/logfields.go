package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyStage       = "stage"
	KeyState       = "state"
	KeyPlugin      = "plugin"
	KeyPackage     = "package"
	KeyVersion     = "version"
	KeyLastVersion = "last_version"
	KeyCommit      = "commit"
	KeyReleaseType = "release_type"
	KeyKind        = "kind"
	KeyAttempt     = "attempt"
	KeyPath        = "path"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func LastVersion(v string) slog.Attr  { return slog.String(KeyLastVersion, v) }
func ReleaseType(t string) slog.Attr  { return slog.String(KeyReleaseType, t) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Commit logs the abbreviated form of a commit hash.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
