// Package server implements the authoritative crossing-game server: one
// Server per match owns a Timeline and a set of connected Sessions,
// ticks the simulation at a fixed cadence, and broadcasts the resulting
// LindenServerTick to every socket through a lag-tolerant hub.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crossy/crossy-go/internal/game"
	"github.com/crossy/crossy-go/internal/network"
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/timeline"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// spawnRectMin/Max bound find_spawn_pos's scan: the fixed rectangle in
// the lobby ready zone the original's crossy_server.rs scans (x,y in
// [7,13]).
const (
	spawnRectMin int32 = 7
	spawnRectMax int32 = 13
)

// Server is the authoritative state for one running match: config,
// procedural map, Timeline, connected sessions, and the inbound message
// queue the tick loop drains once per tick (spec §4.7 step 1).
type Server struct {
	GameId uint32
	Config Config
	log    *slog.Logger

	m  *worldmap.Map
	tl *timeline.Timeline
	hb *hub

	mu       sync.Mutex
	sessions map[SocketId]*Session
	nextSock SocketId

	inbox chan inboundMessage

	idleTicks int
	ended     bool
}

// inboundMessage pairs a decoded CrossyMessage with the socket it
// arrived on — the unit the tick loop's intake step (spec §4.7 step 1)
// drains in FIFO order per socket.
type inboundMessage struct {
	socket SocketId
	msg    protocol.CrossyMessage
}

// NewServer creates a fresh match. seed drives every procedural and
// rules-internal RNG draw for the lifetime of the game.
func NewServer(gameId, seed uint32, cfg Config, log *slog.Logger) *Server {
	m := worldmap.NewMap(seed)
	return &Server{
		GameId:   gameId,
		Config:   cfg,
		log:      log,
		m:        m,
		tl:       timeline.NewFromSeed(m, seed, gameId),
		hb:       newHub(),
		sessions: make(map[SocketId]*Session),
		inbox:    make(chan inboundMessage, 256),
	}
}

// Seed exposes the map seed so /join can hand it to a connecting client.
func (s *Server) Seed() uint32 { return s.m.Seed() }

// Join allocates a session slot for a newly connecting client, the
// effect of the /join route (spec §6). No PlayerId is assigned yet —
// that happens at /play.
func (s *Server) Join(name string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSock++
	id := s.nextSock
	sess := newSession(id, name)
	s.sessions[id] = sess
	return sess
}

// Session looks up a previously /join-ed socket.
func (s *Server) Session(id SocketId) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Play binds a /join-ed session to a fresh PlayerId and spawns it on the
// map, the effect of the /play route. Returns an error (surfaced as a
// 4xx, spec §7) without mutating state if the session was never
// /join-ed or is already bound.
func (s *Server) Play(id SocketId) (protocol.PlayerId, error) {
	sess, ok := s.Session(id)
	if !ok {
		return 0, fmt.Errorf("socket %d never joined", id)
	}
	if _, already := sess.Player(); already {
		return 0, fmt.Errorf("socket %d already playing", id)
	}

	s.mu.Lock()
	spawn, ok := findSpawnPos(s.tl.HeadState())
	if !ok {
		s.mu.Unlock()
		return 0, fmt.Errorf("no free spawn position")
	}
	playerId, ok := s.tl.AddPlayer(spawn)
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("game is full")
	}

	sess.bindPlayer(playerId)
	return playerId, nil
}

// findSpawnPos scans the fixed lobby rectangle for the first grid cell
// with no player occupant, per spec §4.7.
func findSpawnPos(state game.GameState) (protocol.CoordPos, bool) {
	occupied := make(map[protocol.CoordPos]bool)
	for _, id := range state.Players.Keys() {
		p, _ := state.Players.Get(id)
		occupied[p.Pos.ToCoord()] = true
	}
	for y := spawnRectMin; y <= spawnRectMax; y++ {
		for x := spawnRectMin; x <= spawnRectMax; x++ {
			pos := protocol.CoordPos{X: x, Y: y}
			if !occupied[pos] {
				return pos, true
			}
		}
	}
	return protocol.CoordPos{}, false
}

// AttachSocket binds a live WebSocket connection to an already-/join-ed
// session and subscribes it to the broadcast hub, the effect of the /ws
// route. The caller owns pumping messages in both directions, using the
// returned channel for outbound and EnqueueInbound for inbound.
func (s *Server) AttachSocket(id SocketId, conn network.Connection) (<-chan protocol.CrossyMessage, error) {
	sess, ok := s.Session(id)
	if !ok {
		return nil, fmt.Errorf("socket %d never joined", id)
	}
	sess.attachConn(conn)
	return s.hb.subscribe(id), nil
}

// DetachSocket unsubscribes a socket from the hub and surfaces a
// ClientDrop into the inbox, the explicit-leave notice spec §5's
// cancellation rules call for on disconnect.
func (s *Server) DetachSocket(id SocketId) {
	s.hb.unsubscribe(id)
	s.EnqueueInbound(id, protocol.NewClientDrop())
}

// EnqueueInbound queues a decoded message for the tick loop to drain.
// Safe to call from any socket's read pump concurrently.
func (s *Server) EnqueueInbound(id SocketId, msg protocol.CrossyMessage) {
	select {
	case s.inbox <- inboundMessage{socket: id, msg: msg}:
	default:
		if s.log != nil {
			s.log.Warn("server inbox full, dropping message", "game_id", s.GameId, "socket_id", id)
		}
	}
}

// Run drives the tick loop until ctx is cancelled or the game ends
// (idle shutdown). Adapted from the teacher's runTickLoop/doneCh pairing
// to spec §4.7's ~70Hz cadence and idle-shutdown rule, supervised by an
// errgroup so the loop's exit is always observable by the caller.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(s.Config.DesiredTickTime)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if s.tick() {
					s.shutdown()
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// tick runs spec §4.7 steps 1-7 once, returning true if the game should
// shut down after this tick (step 8).
func (s *Server) tick() (shouldShutdown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return true
	}

	inputs := s.drainInbox()

	next := s.tl.Tick(inputs, s.Config.TickIntervalUs)

	lkgState := s.selectLKG(next)

	tickMsg := s.compileLindenServerTick(next, lkgState)
	s.hb.broadcast(protocol.NewLindenServerTick(tickMsg), s.log)

	if s.hb.subscriberCount() <= 1 {
		s.idleTicks++
	} else {
		s.idleTicks = 0
	}

	return s.idleTicks >= s.Config.EmptyTicksShutdown
}

// drainInbox processes every queued message non-blockingly, applying
// lifecycle changes (ClientDrop) immediately and folding ClientTick
// entries targeting the current frame into this tick's PlayerInputs.
// Entries for earlier frames are reconciled via propagate_inputs instead
// of folded here, matching spec §4.7 step 3's "non-None client ticks
// received for the current frame" framing.
func (s *Server) drainInbox() protocol.PlayerInputs {
	inputs := protocol.NewPlayerInputs()
	currentFrame := s.tl.HeadFrameId() + 1

	var deltas []timeline.RemoteInput

	for {
		select {
		case m := <-s.inbox:
			sess, ok := s.sessions[m.socket]
			if !ok {
				continue
			}
			playerId, bound := sess.Player()
			if !bound {
				continue
			}

			switch m.msg.Kind {
			case protocol.MsgClientTick:
				for _, entry := range m.msg.ClientTick.Ticks {
					sess.recordClientFrameId(entry.FrameId)
					switch {
					case entry.FrameId == currentFrame:
						inputs.Set(playerId, entry.Input)
					case entry.FrameId < currentFrame:
						deltas = append(deltas, timeline.RemoteInput{
							FrameId: entry.FrameId, PlayerId: playerId, Input: entry.Input,
						})
					}
					if entry.LobbyReadySet {
						s.tl.SetPlayerReady(playerId, entry.LobbyReady)
					}
				}
			case protocol.MsgClientDrop:
				s.tl.RemovePlayer(playerId)
				delete(s.sessions, m.socket)
			case protocol.MsgTimeRequestPacket:
				s.handleTimeRequest(m.socket, m.msg.TimeRequestPacket)
			}
		default:
			if len(deltas) > 0 {
				if dropped := s.tl.PropagateInputs(deltas); dropped > 0 && s.log != nil {
					s.log.Debug("dropped out-of-window delta inputs", "game_id", s.GameId, "count", dropped)
				}
			}
			return inputs
		}
	}
}

// handleTimeRequest completes the time-sync round trip for one socket
// (spec §4.6): stamp the server's receive/send times and reply directly
// rather than routing through the broadcast hub, since this is a
// point-to-point exchange.
func (s *Server) handleTimeRequest(id SocketId, req protocol.TimeRequestPacket) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	conn := sess.connection()
	if conn == nil {
		return
	}
	receiveUs := uint32(time.Now().UnixMicro())
	resp := protocol.NewTimeResponsePacket(req.ClientSendTimeUs, receiveUs, uint32(time.Now().UnixMicro()))
	if err := conn.Send(resp); err != nil && s.log != nil {
		s.log.Debug("time response send failed", "game_id", s.GameId, "socket_id", id, "err", err)
	}
}

// selectLKG picks the most recent frame every connected, playing client
// has acknowledged (spec §4.7 step 5): min(last_client_frame_id) across
// sessions, or the freshly simulated frame if nobody has ever
// acknowledged anything yet (a brand new game with no round trips).
func (s *Server) selectLKG(latest game.GameState) game.GameState {
	min := latest.FrameId
	any := false
	for _, sess := range s.sessions {
		if _, bound := sess.Player(); !bound {
			continue
		}
		f := sess.lastFrameId()
		if !any || f < min {
			min = f
			any = true
		}
	}
	if !any {
		return latest
	}
	if st, ok := s.tl.TryGetState(min); ok {
		return st
	}
	return latest
}

// compileLindenServerTick assembles the authoritative broadcast: the
// live top state, the LKG snapshot, every input affecting a frame after
// the LKG, each session's acknowledged frame, and the rules FST (spec
// §4.7 step 6).
func (s *Server) compileLindenServerTick(latest, lkgState game.GameState) protocol.LindenServerTick {
	lastClientFrameId := protocol.NewPlayerIdMap[uint32]()
	for _, sess := range s.sessions {
		if playerId, bound := sess.Player(); bound {
			lastClientFrameId.Set(playerId, sess.lastFrameId())
		}
	}

	deltas := s.tl.DeltaInputsSince(lkgState.FrameId)
	wireDeltas := make([]protocol.DeltaInputWire, 0, len(deltas))
	for _, d := range deltas {
		wireDeltas = append(wireDeltas, protocol.DeltaInputWire{FrameId: d.FrameId, PlayerId: d.PlayerId, Input: d.Input})
	}

	return protocol.LindenServerTick{
		Latest:            game.ToStateSummary(latest),
		LkgState:          game.ToStateSummary(lkgState),
		DeltaInputs:       wireDeltas,
		LastClientFrameId: lastClientFrameId,
		RulesState:        game.ToRulesWire(latest.Rules),
	}
}

// shutdown broadcasts GoodBye and marks the game ended, spec §4.7 step 8
// and spec §7's "game idle" policy.
func (s *Server) shutdown() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	s.hb.broadcast(protocol.NewGoodBye(), s.log)
	if s.log != nil {
		s.log.Info("game ended: idle shutdown", "game_id", s.GameId)
	}
}

// Ended reports whether this game has already broadcast GoodBye.
func (s *Server) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
