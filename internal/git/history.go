package git

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
)

// History wraps an opened repository.
type History struct {
	repo *git.Repository
	path string
}

// Open opens the repository at path, searching parent directories.
func Open(path string) (*History, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, GitError(errors.KindNoHead, "not a git repository: "+path).WithCause(err).Build()
	}
	return &History{repo: repo, path: path}, nil
}

// FromRepository wraps an already opened repository.
func FromRepository(repo *git.Repository) *History {
	return &History{repo: repo}
}

// Repository exposes the underlying go-git repository.
func (h *History) Repository() *git.Repository {
	return h.repo
}

// Head returns the full hash of the HEAD commit. An unborn HEAD is ENOHEAD.
func (h *History) Head() (string, error) {
	ref, err := h.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "head")
	}
	if ref.Hash().IsZero() {
		return "", GitError(errors.KindNoHead, "HEAD does not point to a commit").Build()
	}
	slog.Debug("Resolved HEAD", logfields.Commit(ref.Hash().String()))
	return ref.Hash().String(), nil
}

// CurrentBranch returns the short name of the checked out branch, or an
// error when HEAD is detached.
func (h *History) CurrentBranch() (string, error) {
	ref, err := h.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "branch")
	}
	if !ref.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", ref.Hash().String()[:8])
	}
	return ref.Name().Short(), nil
}

// IsClean reports whether tracked files have no uncommitted changes.
// Untracked files do not count, nor do changes to the ignored paths, which
// are absolute or relative to the directory the history was opened at.
func (h *History) IsClean(ignore ...string) (bool, error) {
	wt, err := h.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	skip, err := h.worktreePaths(wt.Filesystem.Root(), ignore)
	if err != nil {
		return false, err
	}
	for file, fs := range status {
		if fs.Staging == git.Untracked || (fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified) {
			continue
		}
		if _, ok := skip[file]; ok {
			continue
		}
		return false, nil
	}
	return true, nil
}

// worktreePaths maps paths to the slash-separated form status reports.
func (h *History) worktreePaths(root string, paths []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve worktree root: %w", err)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(h.path, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil {
			continue
		}
		out[filepath.ToSlash(rel)] = struct{}{}
	}
	return out, nil
}

// resolve parses a full or abbreviated commit id.
func (h *History) resolve(rev string) (plumbing.Hash, error) {
	if plumbing.IsHash(rev) {
		return plumbing.NewHash(rev), nil
	}
	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}
