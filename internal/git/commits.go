package git

import (
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/releaser/internal/commit"
	"git.home.luguber.info/inful/releaser/internal/foundation/errors"
)

// CommitsSince returns the commits reachable from HEAD but not from the
// commit from, oldest first. An empty from returns the whole history. A
// from that HEAD does not descend from is ENOTINHISTORY.
func (h *History) CommitsSince(from string) ([]commit.Raw, error) {
	headRef, err := h.repo.Head()
	if err != nil {
		return nil, ClassifyGitError(err, "log")
	}

	exclude := map[plumbing.Hash]struct{}{}
	if from != "" {
		fromHash, err := h.resolve(from)
		if err != nil {
			return nil, notInHistory(from, err)
		}
		ok, err := isAncestor(h.repo, fromHash, headRef.Hash())
		if err != nil {
			return nil, notInHistory(from, err)
		}
		if !ok {
			return nil, notInHistory(from, nil)
		}
		if exclude, err = ancestors(h.repo, fromHash); err != nil {
			return nil, ClassifyGitError(err, "log")
		}
	}

	iter, err := h.repo.Log(&git.LogOptions{From: headRef.Hash()})
	if err != nil {
		return nil, ClassifyGitError(err, "log")
	}
	defer iter.Close()

	var out []commit.Raw
	err = iter.ForEach(func(c *object.Commit) error {
		if _, skip := exclude[c.Hash]; skip {
			return nil
		}
		out = append(out, commit.Raw{Hash: c.Hash.String(), Message: c.Message})
		return nil
	})
	if err != nil {
		return nil, ClassifyGitError(err, "log")
	}
	slices.Reverse(out)
	return out, nil
}

func notInHistory(from string, cause error) error {
	return GitError(errors.KindNotInHistory, "last released commit "+from+" is not an ancestor of HEAD").
		WithCause(cause).
		WithContext("commit", from).
		UserAction().
		Build()
}

// isAncestor reports whether a is reachable from b.
func isAncestor(repo *git.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		c, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, c.ParentHashes...)
	}
	return false, nil
}

// ancestors returns from and every commit reachable from it.
func ancestors(repo *git.Repository, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{from}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		c, err := repo.CommitObject(h)
		if err != nil {
			return nil, err
		}
		queue = append(queue, c.ParentHashes...)
	}
	return seen, nil
}
