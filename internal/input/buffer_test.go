package input

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
)

func TestBufferConsumeEmpty(t *testing.T) {
	b := NewBuffer()
	if b.HasPending() {
		t.Fatal("fresh buffer should have nothing pending")
	}
	if got := b.Consume(); got != protocol.InputNone {
		t.Fatalf("expected InputNone from an empty buffer, got %v", got)
	}
}

func TestBufferPressThenConsume(t *testing.T) {
	b := NewBuffer()
	b.Press(protocol.InputLeft)
	if !b.HasPending() {
		t.Fatal("expected a pending input after Press")
	}
	if got := b.Consume(); got != protocol.InputLeft {
		t.Fatalf("expected InputLeft, got %v", got)
	}
	if b.HasPending() {
		t.Fatal("expected buffer to be empty after Consume")
	}
}

func TestBufferLatestPressOverwritesUnconsumed(t *testing.T) {
	b := NewBuffer()
	b.Press(protocol.InputUp)
	b.Press(protocol.InputDown)
	if got := b.Consume(); got != protocol.InputDown {
		t.Fatalf("expected the latest press to win, got %v", got)
	}
}
