package server

import (
	"log/slog"
	"sync"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/telemetry"
)

// hubCapacity is the bounded per-subscriber queue depth, carried from
// the original's tokio::sync::broadcast::channel(16).
const hubCapacity = 16

// hub fans one authoritative broadcast out to every connected socket's
// own bounded queue. Unlike a plain Go channel shared by many readers, a
// slow reader here never blocks the others or the tick loop: its queue
// is fast-forwarded to just the newest message instead, matching spec
// §5's "subscribers that fall behind skip to the newest" rule.
type hub struct {
	mu   sync.Mutex
	subs map[SocketId]chan protocol.CrossyMessage
}

func newHub() *hub {
	return &hub{subs: make(map[SocketId]chan protocol.CrossyMessage)}
}

// subscribe registers a socket's outbound queue. The returned channel is
// closed by unsubscribe, which the socket's write pump must observe to
// exit cleanly (spec §9 "scoped resources").
func (h *hub) subscribe(id SocketId) <-chan protocol.CrossyMessage {
	ch := make(chan protocol.CrossyMessage, hubCapacity)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(id SocketId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// broadcast delivers msg to every subscriber, never blocking: a full
// queue has its whole backlog discarded so msg is the only entry left,
// and the skipped count is surfaced as a Lagged telemetry event rather
// than a disconnect.
func (h *hub) broadcast(msg protocol.CrossyMessage, log *slog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			skipped := 0
		drain:
			for {
				select {
				case <-ch:
					skipped++
				default:
					break drain
				}
			}
			select {
			case ch <- msg:
			default:
			}
			if log != nil {
				telemetry.Lagged{SocketId: uint32(id), Skipped: skipped}.Log(log)
			}
		}
	}
}

func (h *hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
