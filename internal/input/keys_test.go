package input

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
)

func TestKeyStateToInputPriority(t *testing.T) {
	s := NewKeyState()
	s.SetPressed(KeyDown, true)
	s.SetPressed(KeyLeft, true)
	if got := s.ToInput(); got != protocol.InputDown {
		t.Fatalf("expected Down to take priority over Left, got %v", got)
	}
}

func TestKeyStateToInputNoneWhenNothingPressed(t *testing.T) {
	s := NewKeyState()
	if got := s.ToInput(); got != protocol.InputNone {
		t.Fatalf("expected InputNone, got %v", got)
	}
}

func TestKeyStateResetClearsAll(t *testing.T) {
	s := NewKeyState()
	s.SetPressed(KeyUp, true)
	s.Reset()
	if s.IsPressed(KeyUp) {
		t.Fatal("expected Reset to clear all pressed keys")
	}
}

func TestKeyStateOutOfRangeIsSafe(t *testing.T) {
	s := NewKeyState()
	s.SetPressed(KeyCount, true)
	if s.IsPressed(KeyCount) {
		t.Fatal("KeyCount is a sentinel, not a real key, and must never read as pressed")
	}
}

func TestKeyStateClone(t *testing.T) {
	s := NewKeyState()
	s.SetPressed(KeyRight, true)
	clone := s.Clone()
	s.SetPressed(KeyRight, false)
	if !clone.IsPressed(KeyRight) {
		t.Fatal("Clone should capture a snapshot independent of later mutation")
	}
}
