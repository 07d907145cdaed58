package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/crossy/crossy-go/internal/network"
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/telemetry"
)

var (
	errMissingGameId   = errors.New("missing or malformed game_id")
	errMissingSocketId = errors.New("missing or malformed socket_id")
	errUnknownGame     = errors.New("no game with that id")
)

// Router wires the HTTP routes spec §6 lists onto a Registry: /new,
// /join, /play, /ws, plus /ping (a raw echo smoke test carried over from
// the original) and / for static assets.
type Router struct {
	registry *Registry
	cfg      Config
	static   http.Handler
}

// NewRouter builds the mux.Router handling every route. staticDir may be
// empty, in which case / serves nothing but 404s rather than panicking —
// static asset serving is explicitly out of scope for the core engine.
func NewRouter(registry *Registry, cfg Config, staticDir string) *mux.Router {
	rt := &Router{registry: registry, cfg: cfg}
	if staticDir != "" {
		rt.static = http.FileServer(http.Dir(staticDir))
	}

	r := mux.NewRouter()
	r.HandleFunc("/new", rt.handleNew).Methods(http.MethodGet)
	r.HandleFunc("/join", rt.handleJoin).Methods(http.MethodGet)
	r.HandleFunc("/play", rt.handlePlay).Methods(http.MethodGet)
	r.HandleFunc("/ws", rt.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/ping", rt.handlePing).Methods(http.MethodGet)
	if rt.static != nil {
		r.PathPrefix("/").Handler(rt.static)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleNew implements GET /new?debug_bypass_lobby=…, creating a fresh
// game and returning its id. debug_bypass_lobby is accepted for wire
// compatibility but otherwise unused: the lobby-skip behavior it names
// in the original is a developer convenience outside this engine's
// scope, not a documented operation.
func (rt *Router) handleNew(w http.ResponseWriter, r *http.Request) {
	s := rt.registry.NewGame(context.Background(), rt.cfg)
	writeJSON(w, http.StatusOK, map[string]uint32{"game_id": s.GameId})
}

// handleJoin implements GET /join?game_id=&name=, allocating a SocketId
// and describing the game's current state so a client can render a
// lobby screen before committing to /play.
func (rt *Router) handleJoin(w http.ResponseWriter, r *http.Request) {
	gameId, ok := parseUint32(r.URL.Query().Get("game_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingGameId)
		return
	}
	s, ok := rt.registry.Get(gameId)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownGame)
		return
	}

	name := r.URL.Query().Get("name")
	sess := s.Join(name)
	head := s.tl.HeadState()

	writeJSON(w, http.StatusOK, map[string]any{
		"socket_id":          sess.SocketId,
		"server_description": protocol.ServerDescription{ServerVersion: protocol.ServerVersion, Seed: s.Seed()},
		"server_time_us":     head.TimeUs,
		"server_frame_id":    head.FrameId,
	})
}

// handlePlay implements GET /play?game_id=&socket_id=, binding a
// previously /join-ed socket to a fresh PlayerId. Per spec §7, a /play
// without a prior /join is a 4xx with no state mutation — Play itself
// enforces that by erroring before touching the Timeline.
func (rt *Router) handlePlay(w http.ResponseWriter, r *http.Request) {
	gameId, ok := parseUint32(r.URL.Query().Get("game_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingGameId)
		return
	}
	s, ok := rt.registry.Get(gameId)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownGame)
		return
	}
	socketId, ok := parseUint32(r.URL.Query().Get("socket_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingSocketId)
		return
	}

	playerId, err := s.Play(SocketId(socketId))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player_id": playerId})
}

// handleWS implements the WS upgrade at GET /ws?game_id=&socket_id=,
// binding the live connection to its session and pumping messages in
// both directions until the socket closes.
func (rt *Router) handleWS(w http.ResponseWriter, r *http.Request) {
	gameId, ok := parseUint32(r.URL.Query().Get("game_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingGameId)
		return
	}
	s, ok := rt.registry.Get(gameId)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownGame)
		return
	}
	socketId, ok := parseUint32(r.URL.Query().Get("socket_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingSocketId)
		return
	}

	conn, err := network.Upgrade(w, r)
	if err != nil {
		return
	}

	id := SocketId(socketId)
	outbound, err := s.AttachSocket(id, conn)
	if err != nil {
		_ = conn.Close()
		return
	}
	defer s.DetachSocket(id)
	defer conn.Close()

	sess, _ := s.Session(id)

	errCh := make(chan error, 1)
	go func() {
		for {
			msg, err := conn.Recv()
			if err != nil {
				if errors.Is(err, network.ErrDecodeFailed) {
					if sess != nil && !sess.markDecodeFailureLogged() && s.log != nil {
						telemetry.ProtocolDecodeFailure{SocketId: uint32(id), Err: err}.Log(s.log)
					}
					continue
				}
				errCh <- err
				return
			}
			s.EnqueueInbound(id, msg)
		}
	}()

	for {
		select {
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			if err := conn.Send(msg); err != nil {
				return
			}
		case <-errCh:
			return
		}
	}
}

// handlePing implements the raw WS echo smoke test carried over from
// the original's ping_handler — independent of any game session.
func (rt *Router) handlePing(w http.ResponseWriter, r *http.Request) {
	conn, err := network.UpgradeRaw(w, r)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

func parseUint32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
