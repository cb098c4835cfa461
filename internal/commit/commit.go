// Package commit turns raw commit records into structured conventional commits.
package commit

import "strings"

// BreakingChange is the canonical title of a breaking-change note.
const BreakingChange = "BREAKING CHANGE"

// Raw is a commit as delivered by the commit source.
type Raw struct {
	Hash    string
	Message string
}

// Note is a footer note extracted from a commit body.
type Note struct {
	Title string
	Text  string
}

// Commit is a parsed commit. Values are never mutated after parsing.
//
// Type is empty when the header does not follow the "type(scope): subject"
// convention; such commits are kept so analyzers can decide relevance.
type Commit struct {
	Hash     string
	Message  string
	Type     string
	Scope    string
	Subject  string
	Breaking bool
	Notes    []Note
}

// IsConventional reports whether the header matched the convention.
func (c Commit) IsConventional() bool {
	return c.Type != ""
}

// HasBreakingNote reports whether the commit carries a breaking-change note.
func (c Commit) HasBreakingNote() bool {
	return c.Breaking || len(c.Notes) > 0
}

// TypeIs compares the commit type case-insensitively.
func (c Commit) TypeIs(t string) bool {
	return c.Type != "" && strings.EqualFold(c.Type, t)
}

// ShortHash returns the first 7 characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Clone returns a deep copy.
func (c Commit) Clone() Commit {
	if c.Notes != nil {
		c.Notes = append([]Note(nil), c.Notes...)
	}
	return c
}
