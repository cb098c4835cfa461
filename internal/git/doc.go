// Package git is the history collaborator of a release run over go-git.
//
// It provides:
//   - the HEAD commit id bound into a published artifact
//   - the ordered commit log since the last released commit
//   - the release marker (a tag on the released commit)
//   - worktree facts used by condition checks (branch, cleanliness)
package git
