package network

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/crossy/crossy-go/internal/protocol"
)

func newEchoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msg, err := conn.Recv()
			if err != nil {
				return
			}
			if err := conn.Send(msg); err != nil {
				return
			}
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func TestDialSendRecvRoundTrip(t *testing.T) {
	srv, wsURL := newEchoServer(t)
	defer srv.Close()

	conn, err := Dial(wsURL)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	want := protocol.NewClientDrop()
	if err := conn.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := conn.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.Kind != want.Kind {
		t.Fatalf("expected echoed kind %v, got %v", want.Kind, got.Kind)
	}
}

func TestRecvMalformedFrameReturnsErrDecodeFailed(t *testing.T) {
	// The server side writes a raw, non-gob frame directly (bypassing our
	// own Send, which can never produce a malformed payload), so the
	// client's Recv sees exactly what a corrupted wire frame looks like.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := UpgradeRaw(w, r)
		if err != nil {
			return
		}
		defer raw.Close()
		_ = raw.WriteMessage(websocket.BinaryMessage, []byte("not a gob payload"))
		for {
			if _, _, err := raw.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, err := Dial(wsURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, err = conn.Recv()
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}
