package eventstore

import (
	"git.home.luguber.info/inful/releaser/internal/foundation/errors"
)

// storeError starts an event-store-scoped ClassifiedError.
func storeError(message string) *errors.ErrorBuilder {
	return errors.NewError(errors.KindInternal, message).
		WithContext("component", "eventstore").
		Warning()
}
