package server

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
)

func TestHubBroadcastDeliversToEverySubscriber(t *testing.T) {
	h := newHub()
	a := h.subscribe(1)
	b := h.subscribe(2)

	h.broadcast(protocol.NewGoodBye(), nil)

	select {
	case <-a:
	default:
		t.Fatal("subscriber 1 did not receive the broadcast")
	}
	select {
	case <-b:
	default:
		t.Fatal("subscriber 2 did not receive the broadcast")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := newHub()
	ch := h.subscribe(1)
	h.unsubscribe(1)

	if _, open := <-ch; open {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
	if h.subscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", h.subscriberCount())
	}
}

func TestHubBroadcastSkipsToNewestWhenFull(t *testing.T) {
	h := newHub()
	ch := h.subscribe(1)

	for i := 0; i < hubCapacity; i++ {
		h.broadcast(protocol.NewClientDrop(), nil)
	}
	// Queue is now full; one more broadcast must discard the backlog
	// rather than block.
	h.broadcast(protocol.NewGoodBye(), nil)

	var last protocol.CrossyMessage
	for {
		select {
		case msg := <-ch:
			last = msg
			continue
		default:
		}
		break
	}
	if last.Kind != protocol.MsgGoodBye {
		t.Fatalf("expected the newest message to be GoodBye, got kind %d", last.Kind)
	}
}
