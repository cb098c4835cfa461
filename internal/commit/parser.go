package commit

import (
	"regexp"
	"strings"

	cc "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// notePattern widens the footer grammar to the keyword spellings seen in
// the wild: any case, a plural, and leading whitespace.
var notePattern = regexp.MustCompile(`(?i)^\s*(BREAKING[ -]CHANGES?)\s*:\s?(.*)$`)

// newMachine returns a header parser accepting any type token. Best effort
// keeps the header when the body or footers do not conform.
func newMachine() cc.Machine {
	return parser.NewMachine(
		cc.WithTypes(cc.TypesFreeForm),
		parser.WithBestEffort(),
	)
}

// Parse converts a raw commit into a structured Commit. It performs no I/O
// and always yields the same output for the same input.
func Parse(raw Raw) Commit {
	return parse(newMachine(), raw)
}

// ParseAll parses every raw commit preserving input order.
func ParseAll(raws []Raw) []Commit {
	out := make([]Commit, 0, len(raws))
	m := newMachine()
	for _, r := range raws {
		out = append(out, parse(m, r))
	}
	return out
}

func parse(m cc.Machine, raw Raw) Commit {
	msg := strings.ReplaceAll(raw.Message, "\r\n", "\n")
	c := Commit{Hash: raw.Hash, Message: raw.Message}

	lines := strings.Split(msg, "\n")
	header := strings.TrimSpace(lines[0])
	c.Subject = header

	if h, ok := parseHeader(m, header, lines[1:]); ok {
		c.Type = h.Type
		if h.Scope != nil {
			c.Scope = strings.TrimSpace(*h.Scope)
		}
		c.Subject = strings.TrimSpace(h.Description)
		c.Breaking = h.IsBreakingChange()
	}

	c.Notes = parseNotes(lines[1:])
	if c.Breaking && len(c.Notes) == 0 {
		c.Notes = []Note{{Title: BreakingChange, Text: c.Subject}}
	}
	if len(c.Notes) > 0 {
		c.Breaking = true
	}
	return c
}

// parseHeader runs the machine over the trimmed header and body. The
// result is used only when at least a type and a description were read.
func parseHeader(m cc.Machine, header string, body []string) (*cc.ConventionalCommit, bool) {
	input := header
	if len(body) > 0 {
		input += "\n" + strings.Join(body, "\n")
	}
	res, _ := m.Parse([]byte(input))
	h, ok := res.(*cc.ConventionalCommit)
	if !ok || h == nil || h.Type == "" || strings.TrimSpace(h.Description) == "" {
		return nil, false
	}
	return h, true
}

// parseNotes collects breaking-change notes from body and footer lines.
// A note continues over following lines until the next note keyword.
func parseNotes(lines []string) []Note {
	var notes []Note
	var text []string
	inNote := false

	flush := func() {
		if !inNote {
			return
		}
		notes = append(notes, Note{Title: BreakingChange, Text: strings.TrimSpace(strings.Join(text, "\n"))})
		text = nil
		inNote = false
	}

	for _, line := range lines {
		if m := notePattern.FindStringSubmatch(line); m != nil {
			flush()
			inNote = true
			text = append(text, m[2])
			continue
		}
		if inNote {
			text = append(text, line)
		}
	}
	flush()
	return notes
}
