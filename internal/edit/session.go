// Package edit tracks successive generation results within one editing
// session as a two-stack undo/redo structure. The session is scoped to one
// uploaded source image and is purely in-memory.
package edit

// Session holds the undo/redo state for one source image.
//
// current is the displayed result; nil means only the untouched source is
// shown. past holds prior results (most recent last), future holds undone
// results (most recent first). The two stacks are disjoint.
type Session struct {
	source  []byte
	current []byte
	past    [][]byte
	future  [][]byte
}

// NewSession starts an editing session for source with no results yet.
func NewSession(source []byte) *Session {
	return &Session{source: source}
}

// Source returns the uploaded source image.
func (s *Session) Source() []byte { return s.source }

// Current returns the displayed result, or nil when only the source shows.
func (s *Session) Current() []byte { return s.current }

// CanUndo reports whether Undo would change state.
func (s *Session) CanUndo() bool { return len(s.past) > 0 || s.current != nil }

// CanRedo reports whether Redo would change state.
func (s *Session) CanRedo() bool { return len(s.future) > 0 }

// Push installs a new forward result: the old current moves onto past and
// the redo stack is emptied, since any new forward action invalidates
// previously undone states.
func (s *Session) Push(result []byte) {
	if s.current != nil {
		s.past = append(s.past, s.current)
	}
	s.current = result
	s.future = nil
}

// Undo steps back one result. With an empty past it reverts to the unedited
// source (current becomes nil). Returns false if there was nothing to undo.
func (s *Session) Undo() bool {
	switch {
	case len(s.past) > 0:
		if s.current != nil {
			s.future = append([][]byte{s.current}, s.future...)
		}
		s.current = s.past[len(s.past)-1]
		s.past = s.past[:len(s.past)-1]
		return true
	case s.current != nil:
		s.future = append([][]byte{s.current}, s.future...)
		s.current = nil
		return true
	}
	return false
}

// Redo reapplies the most recently undone result. Returns false if the redo
// stack is empty.
func (s *Session) Redo() bool {
	if len(s.future) == 0 {
		return false
	}
	if s.current != nil {
		s.past = append(s.past, s.current)
	}
	s.current = s.future[0]
	s.future = s.future[1:]
	return true
}

// Reset rebinds the session to a new source image, clearing both stacks.
// current may be non-nil when reopening a history entry.
func (s *Session) Reset(source, current []byte) {
	s.source = source
	s.current = current
	s.past = nil
	s.future = nil
}
