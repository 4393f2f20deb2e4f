// Package history provides a generic bounded undo/redo stack pair.
package history

// DefaultMaxSize is the stack capacity used when none is given.
const DefaultMaxSize = 1000

// History holds bounded undo and redo stacks over any action type. Both
// stacks share one maximum size and evict their oldest entry when full.
// History carries no domain knowledge and is not safe for concurrent use;
// the owning session serializes access.
type History[T any] struct {
	undo    []T
	redo    []T
	maxSize int
}

// New creates a history with the given capacity. Non-positive sizes fall
// back to DefaultMaxSize.
func New[T any](maxSize int) *History[T] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History[T]{maxSize: maxSize}
}

// Push records a new action. The oldest entry is evicted at capacity and the
// redo stack is always cleared.
func (h *History[T]) Push(action T) {
	h.undo = appendBounded(h.undo, action, h.maxSize)
	h.redo = nil
}

// Undo pops the most recent action onto the redo stack and returns it.
func (h *History[T]) Undo() (T, bool) {
	var zero T
	if len(h.undo) == 0 {
		return zero, false
	}
	action := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = appendBounded(h.redo, action, h.maxSize)
	return action, true
}

// Redo pops the most recently undone action back onto the undo stack and
// returns it.
func (h *History[T]) Redo() (T, bool) {
	var zero T
	if len(h.redo) == 0 {
		return zero, false
	}
	action := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = appendBounded(h.undo, action, h.maxSize)
	return action, true
}

// CanUndo reports whether an undo is available.
func (h *History[T]) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo is available.
func (h *History[T]) CanRedo() bool {
	return len(h.redo) > 0
}

// Len returns the current undo stack depth.
func (h *History[T]) Len() int {
	return len(h.undo)
}

// Clear discards both stacks.
func (h *History[T]) Clear() {
	h.undo = nil
	h.redo = nil
}

func appendBounded[T any](stack []T, action T, maxSize int) []T {
	if len(stack) >= maxSize {
		n := copy(stack, stack[len(stack)-maxSize+1:])
		stack = stack[:n]
	}
	return append(stack, action)
}
