package game

import (
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rules"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// PlayerToWire flattens a PlayerState (plus its separately-tracked ready
// flag) into protocol's wire-safe form.
func PlayerToWire(p PlayerState, ready bool) protocol.PlayerWire {
	w := protocol.PlayerWire{
		Id:           p.Id,
		Kind:         p.Pos.Kind,
		MoveCooldown: p.MoveCooldown,
		TicksInWater: p.TicksInWater,
		Dead:         p.Dead,
		ReachedGoal:  p.ReachedGoal,
		Ready:        ready,
	}
	if p.Pos.Kind == protocol.PosKindCoord {
		w.CoordX, w.CoordY = p.Pos.Coord.X, p.Pos.Coord.Y
	} else {
		w.PreciseX, w.PreciseY = p.Pos.Precise.X, p.Pos.Precise.Y
	}
	if p.Riding != nil {
		w.Riding = true
		w.RideY = p.Riding.Y
		w.RideIndex = int32(p.Riding.Index)
	}
	return w
}

// PlayerFromWire reconstructs a PlayerState from its wire form.
func PlayerFromWire(w protocol.PlayerWire) PlayerState {
	p := PlayerState{
		Id:           w.Id,
		MoveCooldown: w.MoveCooldown,
		TicksInWater: w.TicksInWater,
		Dead:         w.Dead,
		ReachedGoal:  w.ReachedGoal,
	}
	if w.Kind == protocol.PosKindCoord {
		p.Pos = protocol.NewCoordPos(w.CoordX, w.CoordY)
	} else {
		p.Pos = protocol.NewPrecisePos(w.PreciseX, w.PreciseY)
	}
	if w.Riding {
		lily := worldmap.LilyId{Y: w.RideY, Index: int(w.RideIndex)}
		p.Riding = &lily
	}
	return p
}

// ToStateSummary flattens a GameState's clock and players into protocol's
// wire-safe StateSummary. Rules state travels separately (see ToRulesWire)
// since LindenServerTick carries it once for the whole tick rather than
// duplicated across Latest and LkgState.
func ToStateSummary(g GameState) protocol.StateSummary {
	ids := g.Players.Keys()
	players := make([]protocol.PlayerWire, 0, len(ids))
	for _, id := range ids {
		p, _ := g.Players.Get(id)
		ready, _ := g.Ready.Get(id)
		players = append(players, PlayerToWire(p, ready))
	}
	return protocol.StateSummary{
		FrameId: g.FrameId,
		TimeUs:  g.TimeUs,
		Seed:    g.Seed,
		GameId:  g.GameId,
		Players: players,
	}
}

// FromStateSummary reconstructs a GameState from a StateSummary and a
// separately-carried RulesState (see FromRulesWire).
func FromStateSummary(s protocol.StateSummary, rs rules.RulesState) GameState {
	players := protocol.NewPlayerIdMap[PlayerState]()
	ready := protocol.NewPlayerIdMap[bool]()
	for _, w := range s.Players {
		players.Set(w.Id, PlayerFromWire(w))
		ready.Set(w.Id, w.Ready)
	}
	return GameState{
		FrameId: s.FrameId,
		TimeUs:  s.TimeUs,
		Seed:    s.Seed,
		GameId:  s.GameId,
		Rules:   rs,
		Players: players,
		Ready:   ready,
	}
}

// ToRulesWire flattens a rules.RulesState into protocol's wire-safe form.
func ToRulesWire(rs rules.RulesState) protocol.RulesWire {
	w := protocol.RulesWire{WinnerCounts: rs.WinnerCounts}

	switch rs.FST.Kind {
	case rules.FSTLobby:
		w.Kind = protocol.FSTWireLobby
		w.RaftPos = rs.FST.Lobby.RaftPos
		w.RaftDir = rs.FST.Lobby.RaftDir
		w.WaitTicks = rs.FST.Lobby.WaitTicks

	case rules.FSTRoundWarmup:
		w.Kind = protocol.FSTWireRoundWarmup
		w.RoundId = rs.FST.Warmup.RoundId
		w.TicksRemaining = rs.FST.Warmup.TicksRemaining

	case rules.FSTRound:
		r := rs.FST.Round
		w.Kind = protocol.FSTWireRound
		w.RoundId = r.RoundId
		w.ScreenY = r.ScreenY
		w.TickInRound = r.TickInRound

		for _, e := range r.SpawnTimes.Entries() {
			w.SpawnTimes = append(w.SpawnTimes, protocol.RiverSpawnEntryWire{Y: e.Y, SpawnTime: e.SpawnTime})
		}

		alive := protocol.NewPlayerIdMap[uint8]()
		for _, id := range r.Alive.Keys() {
			st, _ := r.Alive.Get(id)
			alive.Set(id, uint8(st))
		}
		w.Alive = alive

	case rules.FSTRoundCooldown:
		c := rs.FST.Cooldown
		w.Kind = protocol.FSTWireRoundCooldown
		w.RoundId = c.RoundId
		w.TicksRemaining = c.TicksRemaining
		if c.Winner != nil {
			w.HasWinner = true
			w.Winner = *c.Winner
		}

	case rules.FSTEndWinner:
		w.Kind = protocol.FSTWireEndWinner
		w.HasWinner = true
		w.Winner = rs.FST.EndWin.Winner
		w.TicksRemaining = rs.FST.EndWin.TicksRemaining
	}

	return w
}

// FromRulesWire reconstructs a rules.RulesState from its wire form, given
// the match config and game id (neither of which travel on the wire —
// both sides already agree on them from the initial handshake).
func FromRulesWire(w protocol.RulesWire, config rules.GameConfig, gameId uint32) rules.RulesState {
	rs := rules.RulesState{GameId: gameId, Config: config, WinnerCounts: w.WinnerCounts}

	switch w.Kind {
	case protocol.FSTWireLobby:
		rs.FST = rules.CrossyRulesetFST{Kind: rules.FSTLobby, Lobby: rules.LobbyState{
			RaftPos: w.RaftPos, RaftDir: w.RaftDir, WaitTicks: w.WaitTicks,
		}}

	case protocol.FSTWireRoundWarmup:
		rs.FST = rules.CrossyRulesetFST{Kind: rules.FSTRoundWarmup, Warmup: rules.RoundWarmupState{
			RoundId: w.RoundId, TicksRemaining: w.TicksRemaining,
		}}

	case protocol.FSTWireRound:
		entries := make([]worldmap.RiverSpawnEntry, 0, len(w.SpawnTimes))
		for _, e := range w.SpawnTimes {
			entries = append(entries, worldmap.RiverSpawnEntry{Y: e.Y, SpawnTime: e.SpawnTime})
		}

		alive := protocol.NewPlayerIdMap[rules.AliveState]()
		for _, id := range w.Alive.Keys() {
			st, _ := w.Alive.Get(id)
			alive.Set(id, rules.AliveState(st))
		}

		rs.FST = rules.CrossyRulesetFST{Kind: rules.FSTRound, Round: rules.RoundState{
			RoundId:     w.RoundId,
			ScreenY:     w.ScreenY,
			TickInRound: w.TickInRound,
			SpawnTimes:  worldmap.RiverSpawnTimesFromEntries(entries),
			Alive:       alive,
		}}

	case protocol.FSTWireRoundCooldown:
		var winner *protocol.PlayerId
		if w.HasWinner {
			id := w.Winner
			winner = &id
		}
		rs.FST = rules.CrossyRulesetFST{Kind: rules.FSTRoundCooldown, Cooldown: rules.RoundCooldownState{
			RoundId: w.RoundId, TicksRemaining: w.TicksRemaining, Winner: winner,
		}}

	case protocol.FSTWireEndWinner:
		rs.FST = rules.CrossyRulesetFST{Kind: rules.FSTEndWinner, EndWin: rules.EndWinnerState{
			Winner: w.Winner, TicksRemaining: w.TicksRemaining,
		}}
	}

	return rs
}
