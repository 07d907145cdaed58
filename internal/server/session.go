package server

import (
	"sync"

	"github.com/crossy/crossy-go/internal/network"
	"github.com/crossy/crossy-go/internal/protocol"
)

// SocketId identifies one /join-allocated connection slot for the
// lifetime of a game, independent of the TCP/WebSocket socket itself —
// a client can /join and /play before its /ws connection arrives without
// losing its slot. Once an attached /ws connection closes, the slot's
// session and player are dropped.
type SocketId uint32

// Session is one connected (or connecting) client's bookkeeping: the
// teacher's Session (ID/PlayerID/Name/InputQueue/LastAckTick) carried
// forward and generalized from a tick-indexed input queue to the
// frame-indexed ClientTick batches the wire schema now carries.
type Session struct {
	mu sync.Mutex

	SocketId SocketId
	Name     string

	hasPlayer bool
	playerId  protocol.PlayerId

	conn              network.Connection
	lastClientFrameId uint32

	loggedDecodeFailure bool
}

// newSession allocates a session with no bound player yet — the state a
// socket is in right after /join, before /play.
func newSession(id SocketId, name string) *Session {
	return &Session{SocketId: id, Name: name}
}

// bindPlayer records the PlayerId /play assigned to this session.
func (s *Session) bindPlayer(id protocol.PlayerId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasPlayer = true
	s.playerId = id
}

// Player returns the session's bound PlayerId, or ok=false if /play
// hasn't happened yet (the "tries /play without /join" case never
// reaches here; this covers /ws arriving before /play).
func (s *Session) Player() (protocol.PlayerId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerId, s.hasPlayer
}

// attachConn binds the live WebSocket connection to an already-/played
// session, the point at which /ws actually starts pumping messages.
func (s *Session) attachConn(conn network.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

func (s *Session) connection() network.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// recordClientFrameId tracks the newest frame this client has
// acknowledged processing, the per-client input into LKG selection
// (spec §4.7 step 5: `min(last_client_frame_id)` across all sessions).
func (s *Session) recordClientFrameId(frameId uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frameId > s.lastClientFrameId {
		s.lastClientFrameId = frameId
	}
}

func (s *Session) lastFrameId() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClientFrameId
}

// markDecodeFailureLogged reports whether this is the first protocol
// decode failure seen on this session, so the caller logs once per
// socket rather than once per malformed frame (spec §7).
func (s *Session) markDecodeFailureLogged() (alreadyLogged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alreadyLogged = s.loggedDecodeFailure
	s.loggedDecodeFailure = true
	return alreadyLogged
}
