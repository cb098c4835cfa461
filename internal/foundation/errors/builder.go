package errors

import "strconv"

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	kind     Kind
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	plugin   string
	partial  bool
	cause    error
	context  ErrorContext
}

// NewError starts a builder for kind with the kind's default severity.
func NewError(kind Kind, message string) *ErrorBuilder {
	return &ErrorBuilder{
		kind:     kind,
		severity: defaultSeverity(kind),
		retry:    RetryNever,
		message:  message,
	}
}

// WrapError starts a builder that wraps err.
func WrapError(err error, kind Kind, message string) *ErrorBuilder {
	return NewError(kind, message).WithCause(err)
}

// WithKind overrides the kind.
func (b *ErrorBuilder) WithKind(kind Kind) *ErrorBuilder {
	b.kind = kind
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithPlugin records the plugin that raised the error.
func (b *ErrorBuilder) WithPlugin(name string) *ErrorBuilder {
	b.plugin = name
	return b
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithContextMap adds multiple context values.
func (b *ErrorBuilder) WithContextMap(ctx ErrorContext) *ErrorBuilder {
	b.context = b.context.Merge(ctx)
	return b
}

// PartialMutation marks whether durable side effects already happened.
func (b *ErrorBuilder) PartialMutation(partial bool) *ErrorBuilder {
	b.partial = partial
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.severity = SeverityFatal
	return b
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.severity = SeverityWarning
	return b
}

// Retryable marks the error as retryable with backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.retry = RetryBackoff
	return b
}

// UserAction marks the error as requiring manual remediation.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	b.retry = RetryUserAction
	return b
}

// Build creates the ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		kind:     b.kind,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		plugin:   b.plugin,
		partial:  b.partial,
		cause:    b.cause,
		context:  b.context,
	}
}

// NoChangeMessage is reported with ENOCHANGE.
const NoChangeMessage = "There are no relevant changes, so no new version is released"

// NoChange returns the ENOCHANGE outcome.
func NoChange() *ClassifiedError {
	return NewError(KindNoChange, NoChangeMessage).Build()
}

// PluginFailure wraps an error raised by plugin during a stage of the given kind.
func PluginFailure(kind Kind, plugin string, err error) *ClassifiedError {
	msg := "plugin failed"
	if err != nil {
		msg = err.Error()
	}
	return NewError(kind, msg).WithPlugin(plugin).WithCause(err).Build()
}

// MissingPlugin reports a configured plugin name that is not registered.
func MissingPlugin(name string) *ClassifiedError {
	return NewError(KindMissingPlugin, "plugin is not registered").
		WithPlugin(name).
		UserAction().
		Build()
}

// PluginConfig reports invalid options or a missing capability for plugin.
func PluginConfig(plugin, message string, cause error) *ClassifiedError {
	return NewError(KindPluginConfig, message).
		WithPlugin(plugin).
		WithCause(cause).
		UserAction().
		Build()
}

// InvalidVersion reports a version string that is not valid semver.
func InvalidVersion(version string, cause error) *ClassifiedError {
	return NewError(KindInvalidVersion, "invalid semantic version "+strconv.Quote(version)).
		WithCause(cause).
		WithContext("version", version).
		Build()
}
