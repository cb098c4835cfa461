package git

import (
	stderrors "errors"

	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/releaser/internal/foundation/errors"
)

// GitError simplifies creating a history-scoped ClassifiedError.
func GitError(kind errors.Kind, message string) *errors.ErrorBuilder {
	return errors.NewError(kind, message)
}

// ClassifyGitError translates go-git errors into ClassifiedErrors for op.
func ClassifyGitError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	kind := errors.KindInternal
	msg := "git operation failed"
	switch {
	case stderrors.Is(err, plumbing.ErrReferenceNotFound):
		kind, msg = errors.KindNoHead, "no commit to bind the release to"
	case stderrors.Is(err, plumbing.ErrObjectNotFound):
		kind, msg = errors.KindNotInHistory, "commit not found in repository"
	}
	return GitError(kind, msg).
		WithCause(err).
		WithContext("op", op).
		Build()
}
