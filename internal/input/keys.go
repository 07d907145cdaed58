package input

import (
	"github.com/crossy/crossy-go/internal/protocol"
)

// GameKey represents a logical game key (backend-agnostic), decoupled
// from whatever terminal or GUI capture layer reads the real keyboard.
type GameKey uint8

const (
	KeyUp GameKey = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyReady
	KeyQuit
	KeyCount // Sentinel for array sizing
)

// KeyEventType indicates press or release.
type KeyEventType uint8

const (
	KeyPress KeyEventType = iota
	KeyRelease
)

// KeyEvent represents a key state transition.
type KeyEvent struct {
	Type KeyEventType
	Key  GameKey
}

// KeyState tracks pressed state of all keys using a fixed-size array.
type KeyState struct {
	pressed [KeyCount]bool
}

// NewKeyState creates a new key state tracker.
func NewKeyState() *KeyState {
	return &KeyState{}
}

// IsPressed returns whether a key is currently pressed.
func (s *KeyState) IsPressed(key GameKey) bool {
	if key >= KeyCount {
		return false
	}
	return s.pressed[key]
}

// SetPressed updates a key's pressed state.
func (s *KeyState) SetPressed(key GameKey, pressed bool) {
	if key >= KeyCount {
		return
	}
	s.pressed[key] = pressed
}

// ToInput resolves the pressed arrow keys to a single protocol.Input,
// since the wire schema carries at most one direction per frame. Up/Down
// take priority over Left/Right, matching the order keys are declared in.
func (s *KeyState) ToInput() protocol.Input {
	switch {
	case s.pressed[KeyUp]:
		return protocol.InputUp
	case s.pressed[KeyDown]:
		return protocol.InputDown
	case s.pressed[KeyLeft]:
		return protocol.InputLeft
	case s.pressed[KeyRight]:
		return protocol.InputRight
	default:
		return protocol.InputNone
	}
}

// Clone returns a copy of the key state.
func (s *KeyState) Clone() KeyState {
	return KeyState{pressed: s.pressed}
}

// Reset clears all key states.
func (s *KeyState) Reset() {
	for i := range s.pressed {
		s.pressed[i] = false
	}
}
