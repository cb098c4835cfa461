package helpers

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SetupTestGitRepo initializes an empty repository in a temp dir.
func SetupTestGitRepo(t *testing.T) (*git.Repository, *git.Worktree, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := git.PlainInit(tempDir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	return repo, w, tempDir
}

// CommitFile writes content to filename, stages it and commits with msg.
// It returns the new commit hash.
func CommitFile(t *testing.T, w *git.Worktree, repoPath, filename, content, msg string) string {
	t.Helper()

	full := filepath.Join(repoPath, filename)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := w.Add(filename); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash.String()
}

// CommitMessages creates one commit per message, each touching a fresh file.
func CommitMessages(t *testing.T, w *git.Worktree, repoPath string, messages ...string) []string {
	t.Helper()

	hashes := make([]string, 0, len(messages))
	for _, msg := range messages {
		name := filepath.Join("changes", strconv.FormatInt(time.Now().UnixNano(), 10)+".txt")
		hashes = append(hashes, CommitFile(t, w, repoPath, name, msg, msg))
	}
	return hashes
}
