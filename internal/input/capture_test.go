package input

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
)

func TestHandlerDefaultBindingsWASD(t *testing.T) {
	h := NewHandler()
	h.OnKeyPress('w')
	if got := h.State().ToInput(); got != protocol.InputUp {
		t.Fatalf("expected 'w' to map to InputUp, got %v", got)
	}
	h.Clear()

	h.OnKeyPress('D')
	if got := h.State().ToInput(); got != protocol.InputRight {
		t.Fatalf("expected 'D' (uppercase) to map to InputRight, got %v", got)
	}
}

func TestHandlerOnKeyRelease(t *testing.T) {
	h := NewHandler()
	h.OnKeyPress('a')
	h.OnKeyRelease('a')
	if got := h.State().ToInput(); got != protocol.InputNone {
		t.Fatalf("expected release to clear the direction, got %v", got)
	}
}

func TestHandlerCustomBind(t *testing.T) {
	h := NewHandler()
	h.Bind('i', KeyUp)
	h.OnKeyPress('i')
	if got := h.State().ToInput(); got != protocol.InputUp {
		t.Fatalf("expected custom binding 'i' to map to InputUp, got %v", got)
	}
}

func TestHandlerUnboundKeyIsIgnored(t *testing.T) {
	h := NewHandler()
	h.OnKeyPress('z')
	if got := h.State().ToInput(); got != protocol.InputNone {
		t.Fatalf("expected an unbound key to have no effect, got %v", got)
	}
}
