package input

import (
	"github.com/crossy/crossy-go/internal/protocol"
)

// Buffer holds at most one pending direction — the client-loop input
// buffering rule: while a move is in progress the player can queue the
// next one, and a later press simply overwrites an unconsumed one rather
// than stacking up.
type Buffer struct {
	pending    protocol.Input
	hasPending bool
}

// NewBuffer creates an empty input buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Press records a direction as the pending input, overwriting whatever
// was buffered and not yet consumed.
func (b *Buffer) Press(in protocol.Input) {
	b.pending = in
	b.hasPending = true
}

// Consume returns the buffered input and clears it, or InputNone if
// nothing was pending.
func (b *Buffer) Consume() protocol.Input {
	if !b.hasPending {
		return protocol.InputNone
	}
	b.hasPending = false
	return b.pending
}

// HasPending reports whether an input is waiting to be consumed.
func (b *Buffer) HasPending() bool {
	return b.hasPending
}
