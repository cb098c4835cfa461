// Package plugins holds the built-in release plugins. Importing the
// package registers them with plugin.DefaultRegistry():
//
//	verifyConditions: env, clean-worktree, noop
//	analyzeCommits:   conventional, release-rules
//	verifyRelease:    branch-policy, version-policy, noop
//	generateNotes:    changelog, commit-list
//	publish:          registry, html-notes, nats-announce
package plugins
