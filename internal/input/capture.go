// Package input handles terminal key capture and its mapping onto
// protocol.Input directions.
package input

// Handler captures terminal key presses and converts them to GameKeys via
// a rebindable mapping, then exposes the result as a single
// protocol.Input through KeyState.ToInput.
type Handler struct {
	mapping map[rune]GameKey
	state   *KeyState
}

// NewHandler creates an input handler with default key bindings.
func NewHandler() *Handler {
	h := &Handler{
		mapping: make(map[rune]GameKey),
		state:   NewKeyState(),
	}
	h.SetDefaultBindings()
	return h
}

// SetDefaultBindings configures WASD key bindings. Arrow keys arrive as
// multi-rune escape sequences and are left to the terminal backend to
// normalize into these same runes before calling OnKeyPress.
func (h *Handler) SetDefaultBindings() {
	h.mapping['w'] = KeyUp
	h.mapping['W'] = KeyUp
	h.mapping['s'] = KeyDown
	h.mapping['S'] = KeyDown
	h.mapping['a'] = KeyLeft
	h.mapping['A'] = KeyLeft
	h.mapping['d'] = KeyRight
	h.mapping['D'] = KeyRight
	h.mapping['r'] = KeyReady
	h.mapping['R'] = KeyReady
	h.mapping['q'] = KeyQuit
	h.mapping['Q'] = KeyQuit
}

// Bind sets a custom key binding.
func (h *Handler) Bind(key rune, gameKey GameKey) {
	h.mapping[key] = gameKey
}

// OnKeyPress handles a key press event.
func (h *Handler) OnKeyPress(key rune) {
	if gameKey, ok := h.mapping[key]; ok {
		h.state.SetPressed(gameKey, true)
	}
}

// OnKeyRelease handles a key release (if the terminal backend supports
// reporting one).
func (h *Handler) OnKeyRelease(key rune) {
	if gameKey, ok := h.mapping[key]; ok {
		h.state.SetPressed(gameKey, false)
	}
}

// State returns the current key state.
func (h *Handler) State() *KeyState {
	return h.state
}

// Clear resets all key state.
func (h *Handler) Clear() {
	h.state.Reset()
}
