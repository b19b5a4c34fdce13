// Package history keeps bounded undo and redo stacks of reversible actions.
package history

import (
	"errors"
	"fmt"

	"projmap/internal/monitoring"
)

// DefaultLimit is the undo depth used when New is given a non-positive limit.
const DefaultLimit = 50

// ErrEmpty is returned by Undo and Redo when there is nothing to apply.
var ErrEmpty = errors.New("history: nothing to apply")

// Action is a reversible change. Do re-applies it and Undo reverts it.
type Action struct {
	Name string
	Do   func() error
	Undo func() error
}

// History is a bounded undo stack with a redo stack that is cleared on every
// new action.
type History struct {
	limit int
	undo  []Action
	redo  []Action
}

// New returns an empty history keeping at most limit actions.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Push records an action that has already been applied.
func (h *History) Push(a Action) {
	h.undo = append(h.undo, a)
	h.redo = h.redo[:0]
	if len(h.undo) > h.limit {
		h.undo = append(h.undo[:0], h.undo[len(h.undo)-h.limit:]...)
	}
}

// Do applies a and records it.
func (h *History) Do(a Action) error {
	if err := a.Do(); err != nil {
		return fmt.Errorf("history: %s: %w", a.Name, err)
	}
	h.Push(a)
	return nil
}

// Undo reverts the most recent action. A failed revert drops the action.
func (h *History) Undo() error {
	if len(h.undo) == 0 {
		return ErrEmpty
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	if err := a.Undo(); err != nil {
		return fmt.Errorf("history: undo %s: %w", a.Name, err)
	}
	h.redo = append(h.redo, a)
	monitoring.Logf("history: undone %s", a.Name)
	return nil
}

// Redo re-applies the most recently undone action.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrEmpty
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	if err := a.Do(); err != nil {
		return fmt.Errorf("history: redo %s: %w", a.Name, err)
	}
	h.undo = append(h.undo, a)
	monitoring.Logf("history: redone %s", a.Name)
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the undo depth.
func (h *History) Len() int { return len(h.undo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
