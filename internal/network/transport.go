// Package network implements client-server communication over WebSocket,
// carrying protocol.CrossyMessage values as binary frames.
package network

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crossy/crossy-go/internal/protocol"
)

// ErrDecodeFailed wraps a malformed frame: the socket itself is healthy
// (a frame was read), but its payload didn't decode as a CrossyMessage.
// Distinct from a transport-level error so a caller can log and keep
// reading instead of tearing down the connection (spec §7).
var ErrDecodeFailed = errors.New("malformed message frame")

// Connection is a single client-server message stream. Unlike a raw TCP
// socket, a WebSocket connection is already message-framed, so Send/Recv
// operate on whole CrossyMessage values rather than raw byte slices —
// there is no length-prefixing left to get wrong.
type Connection interface {
	// Send serializes and writes one message as a binary frame.
	Send(msg protocol.CrossyMessage) error

	// Recv blocks for the next frame and deserializes it.
	Recv() (protocol.CrossyMessage, error)

	// Close closes the underlying socket.
	Close() error

	// RemoteAddr returns the remote address, for logging.
	RemoteAddr() net.Addr
}

// upgrader accepts any origin: the game has no same-origin cookie/session
// state for CheckOrigin to protect, and the wire protocol is itself
// versioned (ClientHello) against talking to an incompatible peer.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConnection implements Connection over a gorilla/websocket socket.
type WSConnection struct {
	conn *websocket.Conn
}

// NewWSConnection wraps an already-established websocket connection, e.g.
// the result of Upgrade on the server side or Dial on the client side.
func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

// Upgrade promotes an HTTP request to a WebSocket connection, the
// server-side entry point bound to the /ws route.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WSConnection, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade websocket: %w", err)
	}
	return NewWSConnection(conn), nil
}

// UpgradeRaw promotes an HTTP request to a bare WebSocket connection,
// bypassing the CrossyMessage framing — used by the /ping route, which
// exists purely as a connectivity smoke test independent of any game
// session or wire schema.
func UpgradeRaw(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// Dial opens a client-side WebSocket connection to a /ws endpoint.
func Dial(url string) (*WSConnection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", url, err)
	}
	return NewWSConnection(conn), nil
}

// Send implements Connection.
func (c *WSConnection) Send(msg protocol.CrossyMessage) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Recv implements Connection.
func (c *WSConnection) Recv() (protocol.CrossyMessage, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.CrossyMessage{}, err
	}
	if kind != websocket.BinaryMessage {
		return protocol.CrossyMessage{}, fmt.Errorf("%w: unexpected frame type %d", ErrDecodeFailed, kind)
	}
	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		return protocol.CrossyMessage{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return msg, nil
}

// Close implements Connection.
func (c *WSConnection) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements Connection.
func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetReadDeadline arms a read timeout, used by the server to detect a
// socket that has stopped pumping without a clean close.
func (c *WSConnection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}
