package git

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
)

// SetReleaseMarker tags commitID with name. Re-tagging the same commit is a
// no-op; a tag of that name on another commit is EMARKER.
func (h *History) SetReleaseMarker(name, commitID string) error {
	hash, err := h.resolve(commitID)
	if err != nil {
		return markerError(name, err)
	}

	if existing, err := h.repo.Tag(name); err == nil {
		target := existing.Hash()
		if tagObj, err := h.repo.TagObject(target); err == nil {
			target = tagObj.Target
		}
		if target == hash {
			return nil
		}
		return markerError(name, stderrors.New("tag already exists on "+target.String()[:8]))
	} else if !stderrors.Is(err, git.ErrTagNotFound) {
		return markerError(name, err)
	}

	if _, err := h.repo.CreateTag(name, hash, nil); err != nil {
		return markerError(name, err)
	}
	slog.Info("Release marker set", slog.String("tag", name), logfields.Commit(hash.String()))
	return nil
}

// MarkerCommit returns the commit a release marker tag points to.
func (h *History) MarkerCommit(name string) (string, error) {
	ref, err := h.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return "", fmt.Errorf("release marker %s: %w", name, err)
	}
	target := ref.Hash()
	if tagObj, err := h.repo.TagObject(target); err == nil {
		target = tagObj.Target
	}
	return target.String(), nil
}

func markerError(name string, cause error) error {
	return GitError(errors.KindMarker, "could not set release marker "+name).
		WithCause(cause).
		WithContext("tag", name).
		PartialMutation(true).
		UserAction().
		Build()
}
