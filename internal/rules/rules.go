// Package rules implements CrossyRulesetFST, the hierarchical finite
// state machine governing a match's lifecycle: players gather in a lobby,
// a round warms up, plays out, cools down showing who crossed, and
// either loops back to warmup or declares a winner. The FST is advanced
// by a pure Advance call driven by RoundEvents computed elsewhere (the
// game package observes player positions; rules never inspects
// GameState directly, which keeps this package import-cycle free).
package rules

import (
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rng"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// FSTKind selects which of CrossyRulesetFST's variant fields is live.
type FSTKind uint8

const (
	FSTLobby FSTKind = iota
	FSTRoundWarmup
	FSTRound
	FSTRoundCooldown
	FSTEndWinner
)

func (k FSTKind) String() string {
	switch k {
	case FSTLobby:
		return "Lobby"
	case FSTRoundWarmup:
		return "RoundWarmup"
	case FSTRound:
		return "Round"
	case FSTRoundCooldown:
		return "RoundCooldown"
	case FSTEndWinner:
		return "EndWinner"
	default:
		return "Unknown"
	}
}

// AliveState is a player's standing within the current round.
type AliveState uint8

const (
	Alive AliveState = iota
	Dead
)

// GameConfig bounds a match: how many rounds are needed to win, and how
// long each phase lingers before advancing.
type GameConfig struct {
	MinPlayers         int
	WarmupTicks        uint32
	RoundTicksPerRow   uint32
	CooldownTicks      uint32
	WinnerDisplayTicks uint32
	TargetWins         int
	RaftWidth          int32
}

// DefaultGameConfig mirrors the original's GameConfig::default(): a small
// lobby threshold and phase lengths tuned for a 60Hz simulation tick.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		MinPlayers:         2,
		WarmupTicks:         90,
		RoundTicksPerRow:   24,
		CooldownTicks:      150,
		WinnerDisplayTicks: 240,
		TargetWins:         3,
		RaftWidth:          4,
	}
}

// LobbyState is the pre-round waiting room. RaftPos drifts back and forth
// across the lobby river, and PlayerInLobbyReadyZone gates readiness on a
// player's column lying within the raft's current span.
type LobbyState struct {
	RaftPos   float64
	RaftDir   float64
	WaitTicks uint32
}

// RoundWarmupState is the brief pause before a round starts, giving
// clients time to show "Round N" before the screen begins scrolling.
type RoundWarmupState struct {
	RoundId       uint8
	TicksRemaining uint32
}

// RoundState is the live round: the screen scrolls forward (ScreenY
// decreases, matching worldmap's "forward is negative y" convention),
// rivers open on the schedule fixed at warmup, and players are marked
// dead as the simulation reports their deaths. Falling behind the
// scrolling screen does not by itself kill a player.
type RoundState struct {
	RoundId     uint8
	ScreenY     int32
	TickInRound uint32
	SpawnTimes  worldmap.RiverSpawnTimes
	Alive       protocol.PlayerIdMap[AliveState]
}

// RoundCooldownState holds the round's outcome on screen briefly before
// either looping back to warmup or, once TargetWins is reached, handing
// off to EndWinner.
type RoundCooldownState struct {
	RoundId        uint8
	TicksRemaining uint32
	Winner         *protocol.PlayerId
}

// EndWinnerState is the terminal celebration screen; the match loops back
// to Lobby once its display window elapses.
type EndWinnerState struct {
	Winner         protocol.PlayerId
	TicksRemaining uint32
}

// CrossyRulesetFST is the tagged union of match phases. Exactly one of
// the variant fields is meaningful, selected by Kind.
type CrossyRulesetFST struct {
	Kind     FSTKind
	Lobby    LobbyState
	Warmup   RoundWarmupState
	Round    RoundState
	Cooldown RoundCooldownState
	EndWin   EndWinnerState
}

// NewLobby returns the FST's initial state.
func NewLobby() CrossyRulesetFST {
	return CrossyRulesetFST{Kind: FSTLobby, Lobby: LobbyState{RaftPos: 0, RaftDir: 1}}
}

// RulesState pairs the FST with the match-wide config and the running
// per-player round-win tally, which outlives any single FST variant and
// so is tracked here rather than nested inside Cooldown/EndWinner.
type RulesState struct {
	GameId       uint32
	Config       GameConfig
	FST          CrossyRulesetFST
	WinnerCounts protocol.PlayerIdMap[int]
}

// NewRulesState returns a fresh match in the lobby.
func NewRulesState(gameId uint32, config GameConfig) RulesState {
	return RulesState{GameId: gameId, Config: config, FST: NewLobby(), WinnerCounts: protocol.NewPlayerIdMap[int]()}
}

// GetRoundId returns the current round number, stable across
// Warmup/Round/Cooldown so a client can key map generation consistently
// through a round's lifetime. Lobby and EndWinner report 0.
func (f CrossyRulesetFST) GetRoundId() uint8 {
	switch f.Kind {
	case FSTRoundWarmup:
		return f.Warmup.RoundId
	case FSTRound:
		return f.Round.RoundId
	case FSTRoundCooldown:
		return f.Cooldown.RoundId
	default:
		return 0
	}
}

// GetScreenY returns the forward-most row the camera should reveal. Only
// meaningful in Round; other phases report the lobby's fixed framing.
func (f CrossyRulesetFST) GetScreenY() int32 {
	if f.Kind == FSTRound {
		return f.Round.ScreenY
	}
	return 10
}

// GetPlayerAlive reports a player's standing. Players are always Alive
// outside of Round, since death only has meaning mid-round.
func (f CrossyRulesetFST) GetPlayerAlive(id protocol.PlayerId) AliveState {
	switch f.Kind {
	case FSTRound:
		if st, ok := f.Round.Alive.Get(id); ok {
			return st
		}
	}
	return Alive
}

// GetRiverSpawnTimes exposes the round's fixed lilypad spawn schedule, or
// a zero-value schedule (everything already spawned) outside of Round.
func (f CrossyRulesetFST) GetRiverSpawnTimes() worldmap.RiverSpawnTimes {
	if f.Kind == FSTRound {
		return f.Round.SpawnTimes
	}
	return worldmap.RiverSpawnTimes{}
}

// PlayerInLobbyReadyZone reports whether pos's column lies within the
// lobby raft's current span [RaftPos, RaftPos+raftWidth), which is how
// the original gates "everyone is ready" without a separate ready-up
// message. Only the column is checked; pos's row is not.
func PlayerInLobbyReadyZone(lobby LobbyState, raftWidth int32, pos protocol.CoordPos) bool {
	lo := int32(lobby.RaftPos)
	return pos.X >= lo && pos.X < lo+raftWidth
}

// GetWinnerCounts exposes the running per-player round-win tally.
func (rs RulesState) GetWinnerCounts() protocol.PlayerIdMap[int] {
	return rs.WinnerCounts
}

// RoundEvents is the pure input rules.Advance needs from a tick's
// simulation outcome, computed by the game package so this package never
// has to import GameState.
type RoundEvents struct {
	PlayerCount      int
	PlayersInReadyZone int
	PlayersAtGoal    []protocol.PlayerId
	PlayersDied      []protocol.PlayerId
	PlayersRemaining []protocol.PlayerId
}

// Advance steps the FST by one tick. It is a pure function of the current
// state, the match config, events observed this tick and a seed used only
// to derive a new round's river spawn schedule — never of wall-clock time
// — so replaying the same (state, events, seed) sequence on any peer
// reproduces the identical sequence of phase transitions.
func Advance(rs RulesState, ev RoundEvents, seed uint32, m *worldmap.Map) RulesState {
	switch rs.FST.Kind {
	case FSTLobby:
		rs.FST = advanceLobby(rs, ev)
	case FSTRoundWarmup:
		rs.FST = advanceWarmup(rs, seed, m)
	case FSTRound:
		rs.FST, rs.WinnerCounts = advanceRound(rs, ev)
	case FSTRoundCooldown:
		rs.FST = advanceCooldown(rs)
	case FSTEndWinner:
		rs.FST = advanceEndWinner(rs)
	}
	return rs
}

func advanceLobby(rs RulesState, ev RoundEvents) CrossyRulesetFST {
	l := rs.FST.Lobby
	l.RaftPos += l.RaftDir * 0.05
	if l.RaftPos > float64(worldmap.ScreenSize-rs.Config.RaftWidth) || l.RaftPos < 0 {
		l.RaftDir = -l.RaftDir
	}

	if ev.PlayerCount >= rs.Config.MinPlayers && ev.PlayersInReadyZone == ev.PlayerCount {
		l.WaitTicks++
	} else {
		l.WaitTicks = 0
	}

	const readyHoldTicks = 120
	if l.WaitTicks >= readyHoldTicks {
		return CrossyRulesetFST{Kind: FSTRoundWarmup, Warmup: RoundWarmupState{
			RoundId:        1,
			TicksRemaining: rs.Config.WarmupTicks,
		}}
	}

	return CrossyRulesetFST{Kind: FSTLobby, Lobby: l}
}

func advanceWarmup(rs RulesState, seed uint32, m *worldmap.Map) CrossyRulesetFST {
	w := rs.FST.Warmup
	if w.TicksRemaining > 0 {
		w.TicksRemaining--
		return CrossyRulesetFST{Kind: FSTRoundWarmup, Warmup: w}
	}

	roundSeed := rng.New(seed).NextIntRange(0, 1<<31, rng.KeyString("round_spawn_seed"), rng.Key(w.RoundId))
	spawnTimes := worldmap.NewRiverSpawnTimes(uint32(roundSeed), w.RoundId, -200, 0, m)

	return CrossyRulesetFST{Kind: FSTRound, Round: RoundState{
		RoundId:    w.RoundId,
		ScreenY:    10,
		SpawnTimes: spawnTimes,
		Alive:      protocol.NewPlayerIdMap[AliveState](),
	}}
}

func advanceRound(rs RulesState, ev RoundEvents) (CrossyRulesetFST, protocol.PlayerIdMap[int]) {
	r := rs.FST.Round
	r.TickInRound++

	for _, id := range ev.PlayersDied {
		r.Alive.Set(id, Dead)
	}

	if r.TickInRound%rs.Config.RoundTicksPerRow == 0 {
		r.ScreenY--
	}

	counts := rs.WinnerCounts

	if len(ev.PlayersAtGoal) > 0 {
		winner := ev.PlayersAtGoal[0]
		if c, ok := counts.Get(winner); ok {
			counts.Set(winner, c+1)
		} else {
			counts.Set(winner, 1)
		}
		return CrossyRulesetFST{Kind: FSTRoundCooldown, Cooldown: RoundCooldownState{
			RoundId:        r.RoundId,
			TicksRemaining: rs.Config.CooldownTicks,
			Winner:         &winner,
		}}, counts
	}

	allDead := r.Alive.Len() >= ev.PlayerCount && ev.PlayerCount > 0
	if allDead {
		return CrossyRulesetFST{Kind: FSTRoundCooldown, Cooldown: RoundCooldownState{
			RoundId:        r.RoundId,
			TicksRemaining: rs.Config.CooldownTicks,
			Winner:         nil,
		}}, counts
	}

	return CrossyRulesetFST{Kind: FSTRound, Round: r}, counts
}

func advanceCooldown(rs RulesState) CrossyRulesetFST {
	c := rs.FST.Cooldown
	if c.TicksRemaining > 0 {
		c.TicksRemaining--
		return CrossyRulesetFST{Kind: FSTRoundCooldown, Cooldown: c}
	}

	for _, id := range rs.WinnerCounts.Keys() {
		wins, _ := rs.WinnerCounts.Get(id)
		if wins >= rs.Config.TargetWins {
			return CrossyRulesetFST{Kind: FSTEndWinner, EndWin: EndWinnerState{
				Winner:         id,
				TicksRemaining: rs.Config.WinnerDisplayTicks,
			}}
		}
	}

	return CrossyRulesetFST{Kind: FSTRoundWarmup, Warmup: RoundWarmupState{
		RoundId:        c.RoundId + 1,
		TicksRemaining: rs.Config.WarmupTicks,
	}}
}

func advanceEndWinner(rs RulesState) CrossyRulesetFST {
	e := rs.FST.EndWin
	if e.TicksRemaining > 0 {
		e.TicksRemaining--
		return CrossyRulesetFST{Kind: FSTEndWinner, EndWin: e}
	}
	return NewLobby()
}
