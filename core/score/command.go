package score

import "fmt"

// Command is an undoable change to a score's layout.
type Command interface {
	Redo(s *Score)
	Undo(s *Score)
	String() string
}

// CommandSink receives layout commands.
type CommandSink interface {
	Push(cmd Command)
}

// AddBracket sets the bracket of a column on a staff, replacing any bracket
// already in that column.
type AddBracket struct {
	Staff   int
	Bracket Bracket

	prev    Bracket
	hadPrev bool
}

func (c *AddBracket) Redo(s *Score) {
	st := s.Staff(c.Staff)
	if st == nil {
		return
	}
	c.prev, c.hadPrev = st.bracket(c.Bracket.Column)
	st.setBracket(c.Bracket)
}

func (c *AddBracket) Undo(s *Score) {
	st := s.Staff(c.Staff)
	if st == nil {
		return
	}
	if c.hadPrev {
		st.setBracket(c.prev)
	} else {
		st.removeBracket(c.Bracket.Column)
	}
}

func (c *AddBracket) String() string {
	return fmt.Sprintf("add bracket staff=%d %s", c.Staff, c.Bracket)
}

// RemoveBracket removes the bracket of a column from a staff.
type RemoveBracket struct {
	Staff   int
	Bracket Bracket

	removed bool
}

func (c *RemoveBracket) Redo(s *Score) {
	st := s.Staff(c.Staff)
	if st == nil {
		return
	}
	if _, ok := st.bracket(c.Bracket.Column); ok {
		st.removeBracket(c.Bracket.Column)
		c.removed = true
	}
}

func (c *RemoveBracket) Undo(s *Score) {
	st := s.Staff(c.Staff)
	if st == nil || !c.removed {
		return
	}
	st.setBracket(c.Bracket)
}

func (c *RemoveBracket) String() string {
	return fmt.Sprintf("remove bracket staff=%d %s", c.Staff, c.Bracket)
}

// ChangeBarlineSpan sets whether barlines of a staff continue to the next one.
type ChangeBarlineSpan struct {
	Staff int
	Span  bool

	old bool
}

func (c *ChangeBarlineSpan) Redo(s *Score) {
	st := s.Staff(c.Staff)
	if st == nil {
		return
	}
	c.old = st.barlineSpan
	st.barlineSpan = c.Span
}

func (c *ChangeBarlineSpan) Undo(s *Score) {
	if st := s.Staff(c.Staff); st != nil {
		st.barlineSpan = c.old
	}
}

func (c *ChangeBarlineSpan) String() string {
	return fmt.Sprintf("set barline span staff=%d %t", c.Staff, c.Span)
}
