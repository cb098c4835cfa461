package errors

import "maps"

// Kind is the stable, machine-readable classification of a release failure.
// Callers branch on Kind, never on message text.
type Kind string

const (
	// KindNoChange means no commit since the last release warrants a new version.
	KindNoChange Kind = "ENOCHANGE"
	// KindNoHead means the HEAD commit could not be determined.
	KindNoHead Kind = "ENOHEAD"
	// KindInvalidVersion means the last version or the initial version is not valid semver.
	KindInvalidVersion Kind = "EINVALIDVERSION"
	// KindMissingPlugin means configuration named a plugin that is not registered.
	KindMissingPlugin Kind = "EMISSINGPLUGIN"
	// KindPluginConfig means a plugin was registered but its options are invalid
	// or it lacks the capability for the stage it was configured on.
	KindPluginConfig Kind = "EPLUGINCONFIG"
	// KindVerifyConditions means a verifyConditions plugin rejected the run.
	KindVerifyConditions Kind = "EVERIFYCONDITIONS"
	// KindVerifyRelease means a verifyRelease plugin vetoed the release.
	KindVerifyRelease Kind = "EVERIFYRELEASE"
	// KindGenerateNotes means a notes generator failed. Never fatal.
	KindGenerateNotes Kind = "EGENERATENOTES"
	// KindPublish means a publish step failed.
	KindPublish Kind = "EPUBLISH"
	// KindVerifyArtifact means the registry never showed the expected version and commit.
	KindVerifyArtifact Kind = "EVERIFYARTIFACT"
	// KindNotInHistory means the last release commit is not an ancestor of HEAD.
	KindNotInHistory Kind = "ENOTINHISTORY"
	// KindMarker means the release marker could not be recorded after verification.
	KindMarker Kind = "EMARKER"
	// KindCanceled means the run was canceled before any durable side effect.
	KindCanceled Kind = "ECANCELED"
	// KindInternal covers failures that fit no other kind.
	KindInternal Kind = "EINTERNAL"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	// SeverityFatal aborts the run.
	SeverityFatal ErrorSeverity = "fatal"
	// SeverityError is a failure the caller should surface.
	SeverityError ErrorSeverity = "error"
	// SeverityWarning is logged and the run continues.
	SeverityWarning ErrorSeverity = "warning"
	// SeverityInfo is an expected non-release outcome such as ENOCHANGE.
	SeverityInfo ErrorSeverity = "info"
)

// RetryStrategy indicates how a caller may retry after an error.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext holds structured key/value data attached to an error.
type ErrorContext map[string]any

// Set stores a value, allocating the map when nil.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get returns a value from the context.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// GetString returns a string value from the context.
func (c ErrorContext) GetString(key string) (string, bool) {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Merge returns a new context holding c overlaid by other.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}

// defaultSeverity returns the severity a kind carries unless overridden.
func defaultSeverity(k Kind) ErrorSeverity {
	switch k {
	case KindNoChange:
		return SeverityInfo
	case KindGenerateNotes:
		return SeverityWarning
	default:
		return SeverityFatal
	}
}
