package server

import (
	"time"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/timeline"
)

// Config holds per-game server configuration, the Go-idiomatic shape of
// the teacher's own server.Config.
type Config struct {
	Port               int
	MaxPlayers         int
	TickIntervalUs     uint32
	DesiredTickTime    time.Duration
	EmptyTicksShutdown int
}

// DefaultConfig returns sensible defaults: a 16 666µs simulation tick
// broadcast at the ~14ms (71Hz) cadence spec §4.7 calls for, shutting an
// idle game down after EmptyTicksShutdown ticks with at most one
// listener attached.
func DefaultConfig() Config {
	return Config{
		Port:               7777,
		MaxPlayers:         protocol.MaxPlayers,
		TickIntervalUs:     timeline.TickIntervalUs,
		DesiredTickTime:    14 * time.Millisecond,
		EmptyTicksShutdown: protocol.EmptyTicksShutdown,
	}
}
