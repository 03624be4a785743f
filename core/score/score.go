// Package score is the read model of a score's parts and staves together with
// the undoable layout commands that change staff brackets and barline spans.
//
// Layout code never mutates a Score directly. It pushes Commands into a
// CommandSink, normally an UndoStack bound to the score.
package score

import (
	"fmt"
	"strings"
)

// BracketType is the visual style of a staff bracket.
type BracketType int

const (
	// NoBracket marks a staff without a template bracket.
	NoBracket BracketType = iota
	// Normal is the thick section bracket.
	Normal
	// Brace is the curly brace used by keyboard instruments.
	Brace
	// Square is the thin bracket joining staves of one instrument.
	Square
	// Line is a plain vertical line.
	Line
)

var bracketNames = map[BracketType]string{
	NoBracket: "none",
	Normal:    "normal",
	Brace:     "brace",
	Square:    "square",
	Line:      "line",
}

func (b BracketType) String() string {
	if name, ok := bracketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BracketType(%d)", int(b))
}

// ParseBracketType parses a bracket name case-insensitively.
func ParseBracketType(s string) (BracketType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range bracketNames {
		if name == s {
			return t, true
		}
	}
	return NoBracket, false
}

// Bracket is a bracket drawn from a staff across Span staves in a column.
// Column 0 holds section brackets, column 1 thin brackets and column 2
// instrument brackets.
type Bracket struct {
	Column int
	Type   BracketType
	Span   int
}

func (b Bracket) String() string {
	return fmt.Sprintf("%s[col=%d span=%d]", b.Type, b.Column, b.Span)
}

// Staff is one staff of a part.
type Staff struct {
	index       int
	brackets    []Bracket
	barlineSpan bool
}

// Index returns the staff's position in the score.
func (s *Staff) Index() int { return s.index }

// Brackets returns a copy of the staff's brackets ordered by column.
func (s *Staff) Brackets() []Bracket {
	out := make([]Bracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

// BarlineSpan reports whether barlines continue to the next staff.
func (s *Staff) BarlineSpan() bool { return s.barlineSpan }

// bracket returns the bracket in column, if any.
func (s *Staff) bracket(column int) (Bracket, bool) {
	for _, b := range s.brackets {
		if b.Column == column {
			return b, true
		}
	}
	return Bracket{}, false
}

func (s *Staff) setBracket(b Bracket) {
	for i := range s.brackets {
		if s.brackets[i].Column == b.Column {
			s.brackets[i] = b
			return
		}
	}
	i := 0
	for i < len(s.brackets) && s.brackets[i].Column < b.Column {
		i++
	}
	s.brackets = append(s.brackets, Bracket{})
	copy(s.brackets[i+1:], s.brackets[i:])
	s.brackets[i] = b
}

func (s *Staff) removeBracket(column int) {
	for i := range s.brackets {
		if s.brackets[i].Column == column {
			s.brackets = append(s.brackets[:i], s.brackets[i+1:]...)
			return
		}
	}
}

// Part is one instrument of the score.
type Part struct {
	InstrumentID string
	Soloist      bool
	staves       []*Staff
}

// Staves returns the part's staves in order.
func (p *Part) Staves() []*Staff { return p.staves }

// NStaves returns the number of staves of the part.
func (p *Part) NStaves() int { return len(p.staves) }

// Score is an ordered list of parts.
type Score struct {
	Title  string
	parts  []*Part
	staves []*Staff
}

// New returns an empty score.
func New(title string) *Score {
	return &Score{Title: title}
}

// AddPart appends a part with nstaves staves (at least one).
func (s *Score) AddPart(instrumentID string, soloist bool, nstaves int) *Part {
	if nstaves < 1 {
		nstaves = 1
	}
	p := &Part{InstrumentID: instrumentID, Soloist: soloist}
	for i := 0; i < nstaves; i++ {
		st := &Staff{index: len(s.staves)}
		s.staves = append(s.staves, st)
		p.staves = append(p.staves, st)
	}
	s.parts = append(s.parts, p)
	return p
}

// Parts returns the parts in score order.
func (s *Score) Parts() []*Part { return s.parts }

// Staves returns all staves in score order.
func (s *Score) Staves() []*Staff { return s.staves }

// Staff returns the staff at index, or nil.
func (s *Score) Staff(index int) *Staff {
	if index < 0 || index >= len(s.staves) {
		return nil
	}
	return s.staves[index]
}
