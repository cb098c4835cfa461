package errors

import (
	"context"
	stderrors "errors"
)

// Classify normalizes any error into a ClassifiedError. Errors already
// classified are returned as-is, context cancellation becomes ECANCELED and
// everything else is wrapped as EINTERNAL.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	if ce, ok := AsClassified(err); ok {
		return ce
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, KindCanceled, "release run canceled").Build()
	}
	return WrapError(err, KindInternal, "unexpected failure").Build()
}

// ClassifyAs wraps err as kind. An error already classified as kind is kept
// and gains the plugin attribution when it has none.
func ClassifyAs(err error, kind Kind, plugin string) *ClassifiedError {
	if err == nil {
		return nil
	}
	if ce, ok := AsClassified(err); ok && ce.kind == kind {
		if ce.plugin == "" && plugin != "" {
			cp := *ce
			cp.plugin = plugin
			return &cp
		}
		return ce
	}
	return PluginFailure(kind, plugin, err)
}
