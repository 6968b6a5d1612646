package arbor

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strconv"
	"strings"
)

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. We do not define any constants here, as
// it is up to applications to define them.
type TokType int

// Tokens represent input tokens. They are usually produced by a scanner and
// reflect terminals in a language.
//
// An example would be a token for an identifier:
//
//    TokType = Ident       // identifier for this kind of tokens (application specific)
//    Lexeme  = "milk"      // lexeme how it appeared in the input stream
//    Value   = "milk"      // may be converted by the scanner
//    Span    = 67…71       // occured from position 67 in the input stream
//
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a length of input token run. A span denotes
// a start position and the position just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// --- Positions -------------------------------------------------------------

// Point is a location in source text. Lines start at 1, columns start at 0.
type Point struct {
	Line   int
	Column int
}

// IsBefore is a predicate: does p come before q?
func (p Point) IsBefore(q Point) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column < q.Column)
}

func (p Point) String() string {
	return fmt.Sprintf("L%d:%d", p.Line, p.Column)
}

// Position is a range of source text, from Start up to (excluding) End.
type Position struct {
	Start Point
	End   Point
}

// Pos is a shortcut for creating a position.
func Pos(startLine, startCol, endLine, endCol int) *Position {
	return &Position{
		Start: Point{Line: startLine, Column: startCol},
		End:   Point{Line: endLine, Column: endCol},
	}
}

// Contains is a predicate: is other completely enclosed by pos?
func (pos *Position) Contains(other *Position) bool {
	if pos == nil || other == nil {
		return false
	}
	return !other.Start.IsBefore(pos.Start) && !pos.End.IsBefore(other.End)
}

// Union returns the smallest position covering both pos and other.
// Either one may be nil.
func (pos *Position) Union(other *Position) *Position {
	if pos == nil {
		return other
	}
	if other == nil {
		return pos
	}
	u := *pos
	if other.Start.IsBefore(u.Start) {
		u.Start = other.Start
	}
	if u.End.IsBefore(other.End) {
		u.End = other.End
	}
	return &u
}

// String returns a position in the form "L1:0-L3:12". This form is understood
// by ParsePosition.
func (pos *Position) String() string {
	if pos == nil {
		return ""
	}
	return pos.Start.String() + "-" + pos.End.String()
}

// ParsePosition reads a position in the form produced by Position.String.
func ParsePosition(s string) (*Position, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("malformed position %q", s)
	}
	start, err := parsePoint(from)
	if err != nil {
		return nil, err
	}
	end, err := parsePoint(to)
	if err != nil {
		return nil, err
	}
	return &Position{Start: start, End: end}, nil
}

func parsePoint(s string) (Point, error) {
	if !strings.HasPrefix(s, "L") {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	l, c, ok := strings.Cut(s[1:], ":")
	if !ok {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	line, err := strconv.Atoi(l)
	if err != nil {
		return Point{}, fmt.Errorf("malformed line in %q: %w", s, err)
	}
	col, err := strconv.Atoi(c)
	if err != nil {
		return Point{}, fmt.Errorf("malformed column in %q: %w", s, err)
	}
	return Point{Line: line, Column: col}, nil
}

// --- Issues ----------------------------------------------------------------

// IssueType categorizes issues by the processing phase they occured in.
type IssueType int8

// Phases for issues.
const (
	Lexical IssueType = iota
	Syntactic
	Semantic
	Translation
)

func (t IssueType) String() string {
	switch t {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntactic"
	case Semantic:
		return "semantic"
	case Translation:
		return "translation"
	}
	return "unknown"
}

// Severity of an issue.
type Severity int8

// Severities, from most to least severe.
const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	}
	return "unknown"
}

// Issue is a diagnostic message collected while processing a tree.
// Issues are data, not errors: a run collecting issues may still complete.
type Issue struct {
	Type     IssueType
	Message  string
	Severity Severity
	Position *Position // may be nil
}

func (is Issue) String() string {
	if is.Position == nil {
		return fmt.Sprintf("%s %s: %s", is.Type, is.Severity, is.Message)
	}
	return fmt.Sprintf("%s %s @%s: %s", is.Type, is.Severity, is.Position, is.Message)
}
