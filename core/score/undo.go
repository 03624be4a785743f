package score

// Macro groups the commands of one user-visible edit.
type Macro struct {
	Name     string
	Commands []Command
}

// UndoStack applies commands to a score and records them for undo/redo.
// Commands pushed between Begin and End form one macro; commands pushed
// outside a macro become single-command macros.
type UndoStack struct {
	score  *Score
	open   *Macro
	done   []*Macro
	undone []*Macro
}

// NewUndoStack returns an empty stack bound to s.
func NewUndoStack(s *Score) *UndoStack {
	return &UndoStack{score: s}
}

// Begin opens a macro. An already open macro is closed first.
func (u *UndoStack) Begin(name string) {
	u.End()
	u.open = &Macro{Name: name}
}

// End closes the open macro. Empty macros are dropped.
func (u *UndoStack) End() {
	if u.open == nil {
		return
	}
	if len(u.open.Commands) > 0 {
		u.done = append(u.done, u.open)
		u.undone = nil
	}
	u.open = nil
}

// Push applies cmd and records it.
func (u *UndoStack) Push(cmd Command) {
	cmd.Redo(u.score)
	if u.open != nil {
		u.open.Commands = append(u.open.Commands, cmd)
		return
	}
	u.done = append(u.done, &Macro{Name: cmd.String(), Commands: []Command{cmd}})
	u.undone = nil
}

// Undo reverts the last macro. It returns false when there is nothing to undo.
func (u *UndoStack) Undo() bool {
	u.End()
	if len(u.done) == 0 {
		return false
	}
	m := u.done[len(u.done)-1]
	u.done = u.done[:len(u.done)-1]
	for i := len(m.Commands) - 1; i >= 0; i-- {
		m.Commands[i].Undo(u.score)
	}
	u.undone = append(u.undone, m)
	return true
}

// Redo reapplies the last undone macro.
func (u *UndoStack) Redo() bool {
	if len(u.undone) == 0 {
		return false
	}
	m := u.undone[len(u.undone)-1]
	u.undone = u.undone[:len(u.undone)-1]
	for _, c := range m.Commands {
		c.Redo(u.score)
	}
	u.done = append(u.done, m)
	return true
}

// Last returns the most recent macro, or nil.
func (u *UndoStack) Last() *Macro {
	if len(u.done) == 0 {
		return nil
	}
	return u.done[len(u.done)-1]
}

// Recorder is a CommandSink that only collects commands.
type Recorder struct {
	Commands []Command
}

// Push records cmd without applying it.
func (r *Recorder) Push(cmd Command) {
	r.Commands = append(r.Commands, cmd)
}
