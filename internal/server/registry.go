package server

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry is a multi-game server: the Go analogue of the original's
// GameDb, a mutex-guarded map from GameId to a running Server so
// cmd/crossy-server can host many concurrent matches, each with its own
// Timeline, tick loop, and broadcast hub.
type Registry struct {
	mu    sync.Mutex
	games map[uint32]*Server
	log   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{games: make(map[uint32]*Server), log: log}
}

// newId derives a compact, collision-resistant 32-bit identifier from a
// random UUID rather than a shared atomic counter — the wire schema's
// GameId/SocketId fields are u32, but the allocation itself borrows
// uuid's randomness so IDs are hard to guess across games, not just
// hard to collide within one process.
func newId() uint32 {
	u, err := uuid.NewRandom()
	if err != nil {
		var b [4]byte
		_, _ = rand.Read(b[:])
		return binary.BigEndian.Uint32(b[:])
	}
	return binary.BigEndian.Uint32(u[:4])
}

// NewGame creates and registers a fresh match, returning it started
// under ctx — the caller is responsible for cancelling ctx (or letting
// the game's own idle shutdown end it) and then calling Remove.
func (r *Registry) NewGame(ctx context.Context, cfg Config) *Server {
	gameId := newId()
	seed := newId()
	s := NewServer(gameId, seed, cfg, r.log)

	r.mu.Lock()
	r.games[gameId] = s
	r.mu.Unlock()

	go func() {
		_ = s.Run(ctx)
		r.Remove(gameId)
	}()

	return s
}

// Get looks up a running game by id.
func (r *Registry) Get(gameId uint32) (*Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.games[gameId]
	return s, ok
}

// Remove drops a game from the registry, called once its tick loop has
// exited (idle shutdown or context cancellation).
func (r *Registry) Remove(gameId uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameId)
}

// Len reports how many games are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
