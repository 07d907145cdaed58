// Package game owns the per-tick simulation: PlayerState, GameState, and
// the pure Simulate step that advances one from the other. GameState is
// deliberately a plain, cheaply-copyable value (no pointers into shared
// mutable state) so a Timeline can hold 100+ of them in a ring buffer
// without the cost of cloning a live object graph — the same tradeoff the
// teacher's World.Snapshot/Restore pair makes, but paid once per
// GameState value rather than walked field by field through an ECS query.
package game

import (
	"hash/fnv"
	"math"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rules"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// MoveCooldownTicks is how many ticks must elapse between a player's grid
// steps, so a held direction doesn't move every 60Hz tick.
const MoveCooldownTicks = 6

// DrownTicks is how long a player survives treading water with no
// lilypad under them before they die.
const DrownTicks = 30

// PlayerState is one player's contribution to a GameState snapshot.
type PlayerState struct {
	Id            protocol.PlayerId
	Pos           protocol.Pos
	Riding        *worldmap.LilyId
	MoveCooldown  uint8
	TicksInWater  uint8
	Dead          bool
	ReachedGoal   bool
}

// CanMove reports whether a fresh direction input would actually move this
// player this tick — mirrors applyMoves' own gate (alive, not finished, no
// cooldown remaining) so a client can decide when to consume a buffered
// input instead of guessing at the server's timing.
func (p PlayerState) CanMove() bool {
	return !p.Dead && !p.ReachedGoal && p.MoveCooldown == 0
}

// ToPublic projects a player's state to its wire/UI-facing coordinate,
// resolving a lilypad ride to the lilypad's current realised position.
func (p PlayerState) ToPublic(roundId uint8, timeUs uint32, m *worldmap.Map) protocol.Pos {
	if p.Riding == nil {
		return p.Pos
	}
	x, ok := m.LilypadPos(roundId, timeUs, *p.Riding)
	if !ok {
		return p.Pos
	}
	return protocol.NewPrecisePos(x, float64(p.Riding.Y))
}

// GameState is a single tick's complete, self-contained world snapshot:
// every field needed to produce the next tick's GameState lives here, and
// nowhere else, so Simulate never reaches outside its arguments.
type GameState struct {
	FrameId uint32
	TimeUs  uint32
	Seed    uint32
	GameId  uint32
	Rules   rules.RulesState
	Players protocol.PlayerIdMap[PlayerState]
	// Ready is a client-reported lobby-ready flag, separate from whether a
	// player is currently standing in the raft's ready zone. It is surfaced
	// to the lobby UI (a player can tick "ready" before stepping onto the
	// raft) but the round actually starts, per rules.Advance, on sustained
	// raft occupancy — Ready is informational, not a gate.
	Ready protocol.PlayerIdMap[bool]
}

// NewGameState returns the initial state for a freshly created match.
func NewGameState(seed, gameId uint32) GameState {
	return GameState{
		FrameId: 0,
		TimeUs:  0,
		Seed:    seed,
		GameId:  gameId,
		Rules:   rules.NewRulesState(gameId, rules.DefaultGameConfig()),
		Players: protocol.NewPlayerIdMap[PlayerState](),
		Ready:   protocol.NewPlayerIdMap[bool](),
	}
}

// AddPlayer admits a new player at a spawn position, returning the
// updated state and the id assigned, or ok=false if the game is full.
func (g GameState) AddPlayer(spawn protocol.CoordPos) (GameState, protocol.PlayerId, bool) {
	id, ok := g.Players.NextFree()
	if !ok {
		return g, 0, false
	}
	g.Players.Set(id, PlayerState{Id: id, Pos: protocol.NewCoordPos(spawn.X, spawn.Y)})
	g.Ready.Set(id, false)
	return g, id, true
}

// RemovePlayer drops a player from the state, e.g. on disconnect.
func (g GameState) RemovePlayer(id protocol.PlayerId) GameState {
	g.Players.Delete(id)
	g.Ready.Delete(id)
	return g
}

// SetPlayerReady records a player's self-reported lobby-ready flag.
func (g GameState) SetPlayerReady(id protocol.PlayerId, ready bool) GameState {
	g.Ready.Set(id, ready)
	return g
}

// Checksum hashes the parts of the state that must agree bit-for-bit
// between client and server for prediction to be considered correct. It
// is the whole of the LKG comparison: internal/client's reconcile rebases
// and surfaces an LKG_mismatch telemetry event on a checksum difference
// alone, without comparing the PlayerStates field by field, so two states
// that collide under this hash are treated as equal.
func (g GameState) Checksum() uint32 {
	h := fnv.New32a()
	var buf [8]byte
	putU32 := func(v uint32) {
		buf[0], buf[1], buf[2], buf[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		h.Write(buf[:4])
	}
	putF64 := func(v float64) {
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}

	putU32(g.FrameId)
	putU32(g.TimeUs)
	putU32(uint32(g.Rules.FST.Kind))
	for _, id := range g.Players.Keys() {
		p, _ := g.Players.Get(id)
		putU32(uint32(id))
		precise := p.Pos.ToPrecise()
		putF64(precise.X)
		putF64(precise.Y)
		if p.Dead {
			putU32(1)
		} else {
			putU32(0)
		}
	}
	return h.Sum32()
}
