package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ClassifiedError is the structured failure returned by every release stage.
type ClassifiedError struct {
	kind     Kind
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	plugin   string
	partial  bool
	cause    error
	context  ErrorContext
}

// Error renders "KIND message", followed by the plugin and cause when present.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.kind))
	if e.message != "" {
		b.WriteByte(' ')
		b.WriteString(e.message)
	}
	if e.plugin != "" {
		fmt.Fprintf(&b, " (plugin %s)", e.plugin)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Kind returns the error kind.
func (e *ClassifiedError) Kind() Kind {
	return e.kind
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// RetryStrategy returns the recommended retry strategy.
func (e *ClassifiedError) RetryStrategy() RetryStrategy {
	return e.retry
}

// Message returns the human-readable message.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Plugin returns the name of the plugin that raised the error, if any.
func (e *ClassifiedError) Plugin() string {
	return e.plugin
}

// PartialMutation reports whether durable side effects happened before the failure.
func (e *ClassifiedError) PartialMutation() bool {
	return e.partial
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// WithContext returns a copy of the error with key set in its context.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.Merge(ErrorContext{key: value})
	return &cp
}

// WithPartialMutation returns a copy of the error with the partial-mutation flag set.
func (e *ClassifiedError) WithPartialMutation(partial bool) *ClassifiedError {
	cp := *e
	cp.partial = partial
	return &cp
}

// Is matches another ClassifiedError of the same kind. A target with a
// message only matches an identical message.
func (e *ClassifiedError) Is(target error) bool {
	t, ok := target.(*ClassifiedError)
	if !ok {
		return false
	}
	if e.kind != t.kind {
		return false
	}
	return t.message == "" || e.message == t.message
}

// IsFatal reports whether the error aborts the run.
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// CanRetry reports whether a caller may retry the operation.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf returns the kind of the first ClassifiedError in err's chain,
// or "" when there is none.
func KindOf(err error) Kind {
	if ce, ok := AsClassified(err); ok {
		return ce.kind
	}
	return ""
}

// HasKind reports whether err's chain holds a ClassifiedError of kind k.
func HasKind(err error, k Kind) bool {
	return KindOf(err) == k
}
