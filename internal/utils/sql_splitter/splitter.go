package sql_splitter

import (
	"fmt"
	"regexp"
	"strings"

	"dialect-bridge/internal/model"
)

// PlaceholderMode selects the identifier given to fragments without a
// recognizable relation name.
type PlaceholderMode int

const (
	// PlaceholderOrdinal names unidentified fragments query_1, query_2, ...
	PlaceholderOrdinal PlaceholderMode = iota
	// PlaceholderUnknown names every unidentified fragment "Unknown".
	PlaceholderUnknown
)

// UnknownIdentifier is the fixed placeholder used by PlaceholderUnknown.
const UnknownIdentifier = "Unknown"

// BoundaryMode selects where fragments are cut.
type BoundaryMode int

const (
	// BoundaryCreate cuts before every line-leading CREATE TABLE / CREATE VIEW.
	BoundaryCreate BoundaryMode = iota
	// BoundaryTerminator additionally cuts on top-level semicolons.
	BoundaryTerminator
)

var (
	createBoundary = regexp.MustCompile(`(?im)^[ \t]*CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+|TEMP\s+)?(?:EXTERNAL\s+)?(?:TABLE|VIEW)\b`)
	relationName   = regexp.MustCompile("(?i)CREATE\\s+(?:OR\\s+REPLACE\\s+)?(?:TEMPORARY\\s+|TEMP\\s+)?(?:EXTERNAL\\s+)?(?:TABLE|VIEW|FUNCTION)\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?([\\w.`]+)")
)

// Splitter partitions a source text into translation units.
type Splitter struct {
	Placeholder PlaceholderMode
	Boundary    BoundaryMode
	Dialect     model.Dialect
	Origin      string
}

// ForDialect returns the splitter configuration each source dialect uses:
// Hive scripts are cut on CREATE boundaries and fall back to "Unknown",
// Trino files hold one query per terminator and fall back to ordinals.
func ForDialect(dialect model.Dialect, origin string) Splitter {
	if dialect == model.DialectTrino {
		return Splitter{Placeholder: PlaceholderOrdinal, Boundary: BoundaryTerminator, Dialect: dialect, Origin: origin}
	}
	return Splitter{Placeholder: PlaceholderUnknown, Boundary: BoundaryCreate, Dialect: dialect, Origin: origin}
}

// Split strips line comments and returns the ordered translation units.
// A text without any boundary yields a single unit with the trimmed text.
func (s Splitter) Split(text string) []model.TranslationUnit {
	cleaned := StripLineComments(text)

	pieces := []string{cleaned}
	if s.Boundary == BoundaryTerminator {
		pieces = SplitOnTerminators(cleaned)
	}

	var fragments []string
	for _, piece := range pieces {
		for _, fragment := range splitOnCreate(piece) {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			fragments = append(fragments, fragment)
		}
	}

	units := make([]model.TranslationUnit, 0, len(fragments))
	for i, fragment := range fragments {
		units = append(units, model.TranslationUnit{
			Identifier: s.identify(fragment, i+1),
			SourceText: fragment,
			Origin:     s.Origin,
			Dialect:    s.Dialect,
		})
	}
	return units
}

func (s Splitter) identify(fragment string, ordinal int) string {
	if name := RelationName(fragment); name != "" {
		return name
	}
	if s.Placeholder == PlaceholderUnknown {
		return UnknownIdentifier
	}
	return fmt.Sprintf("query_%d", ordinal)
}

// RelationName returns the first table, view or function name declared in
// the text, or "" when none is found.
func RelationName(text string) string {
	m := relationName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "`", "")
}

func splitOnCreate(text string) []string {
	starts := createBoundary.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return []string{text}
	}

	var fragments []string
	prev := 0
	for _, loc := range starts {
		if loc[0] > prev {
			fragments = append(fragments, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	return append(fragments, text[prev:])
}

// SplitOnTerminators cuts on semicolons outside quoted literals and
// identifiers and drops the terminators.
func SplitOnTerminators(text string) []string {
	var (
		pieces []string
		quotes quoteState
		start  int
	)
	for i := 0; i < len(text); i++ {
		if quotes.step(text[i]) {
			continue
		}
		if text[i] == ';' {
			pieces = append(pieces, text[start:i])
			start = i + 1
		}
	}
	return append(pieces, text[start:])
}

// MatchingParen returns the index of the parenthesis closing the one at
// open, or -1. Parentheses inside quoted spans are ignored.
func MatchingParen(text string, open int) int {
	if open < 0 || open >= len(text) || text[open] != '(' {
		return -1
	}
	var quotes quoteState
	depth := 0
	for i := open; i < len(text); i++ {
		if quotes.step(text[i]) {
			continue
		}
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// quoteState follows single-quoted and double-quoted literals and backtick
// identifiers. A quote character only closes the span it opened, and a
// backslash escapes the next byte inside a literal.
type quoteState struct {
	open    byte
	escaped bool
}

// step consumes c and reports whether it belongs to a quoted span.
func (q *quoteState) step(c byte) bool {
	if q.open == 0 {
		switch c {
		case '\'', '"', '`':
			q.open = c
			return true
		}
		return false
	}
	switch {
	case q.escaped:
		q.escaped = false
	case c == '\\' && q.open != '`':
		q.escaped = true
	case c == q.open:
		q.open = 0
	}
	return true
}

// StripLineComments removes "--" comments through end of line. Text before
// the delimiter is kept byte for byte and a "--" inside a quoted literal or
// identifier is not treated as a comment.
func StripLineComments(text string) string {
	lines := strings.Split(text, "\n")
	var quotes quoteState
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if quotes.step(line[j]) {
				continue
			}
			if line[j] == '-' && j+1 < len(line) && line[j+1] == '-' {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
