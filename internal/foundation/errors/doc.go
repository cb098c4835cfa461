// Package errors provides the classified error primitives used across the releaser.
//
// Every failure that leaves the pipeline is a ClassifiedError carrying a Kind
// (ENOCHANGE, EPUBLISH, ...), a severity, a retry strategy, the plugin that
// raised it and whether durable side effects had already happened.
//
// Example usage:
//
//	err := errors.NewError(errors.KindPublish, "registry write failed").
//		WithPlugin("registry").
//		WithCause(originalErr).
//		PartialMutation(true).
//		Build()
package errors
