// Package history implements the bounded undo/redo stacks over full tuning
// snapshots. Snapshots are value types; pushing one is already a deep copy.
package history

import (
	"io"
	"log/slog"

	"github.com/vtuner/extension/internal/model"
)

// MaxDepth caps the undo stack; the oldest snapshot is evicted beyond it.
const MaxDepth = 10

// History holds the undo and redo stacks. Not safe for concurrent use; the
// tuning core is single-threaded by design.
type History struct {
	undo []model.TuningSnapshot
	redo []model.TuningSnapshot
	log  *slog.Logger
}

// New creates empty history stacks.
func New(log *slog.Logger) *History {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &History{log: log}
}

// Commit pushes the pre-change state onto the undo stack, evicting the
// oldest entry beyond capacity, and clears the redo stack. Called for every
// user-driven change; never called by undo/redo themselves.
func (h *History) Commit(s model.TuningSnapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > MaxDepth {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// Undo exchanges the current state for the most recent committed one: the
// current state moves to the redo stack and the popped snapshot is returned.
// Returns false, with a warning, when there is nothing to undo.
func (h *History) Undo(current model.TuningSnapshot) (model.TuningSnapshot, bool) {
	if len(h.undo) == 0 {
		h.log.Warn("nothing to undo")
		return model.TuningSnapshot{}, false
	}
	h.redo = append(h.redo, current)
	s := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return s, true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current model.TuningSnapshot) (model.TuningSnapshot, bool) {
	if len(h.redo) == 0 {
		h.log.Warn("nothing to redo")
		return model.TuningSnapshot{}, false
	}
	h.undo = append(h.undo, current)
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return s, true
}

// UndoDepth returns the undo stack depth.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the redo stack depth.
func (h *History) RedoDepth() int { return len(h.redo) }
