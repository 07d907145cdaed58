package game

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rules"
	"github.com/crossy/crossy-go/internal/worldmap"
)

func TestStateSummaryRoundTripsPlayers(t *testing.T) {
	s := NewGameState(11, 1)
	s, _, _ = s.AddPlayer(protocol.CoordPos{X: 3, Y: -4})
	s = s.SetPlayerReady(0, true)

	summary := ToStateSummary(s)
	back := FromStateSummary(summary, s.Rules)

	p, ok := back.Players.Get(0)
	if !ok {
		t.Fatal("expected player 0 to survive the round trip")
	}
	if p.Pos.ToCoord() != (protocol.CoordPos{X: 3, Y: -4}) {
		t.Fatalf("expected position to round-trip, got %+v", p.Pos.ToCoord())
	}
	ready, ok := back.Ready.Get(0)
	if !ok || !ready {
		t.Fatal("expected ready flag to round-trip")
	}
}

func TestStateSummaryRoundTripsLilypadRider(t *testing.T) {
	s := NewGameState(12, 1)
	s, id, _ := s.AddPlayer(protocol.CoordPos{X: 2, Y: 5})
	p, _ := s.Players.Get(id)
	p.Pos = protocol.NewPrecisePos(2.5, 5)
	lily := worldmap.LilyId{Y: 5, Index: 3}
	p.Riding = &lily
	s.Players.Set(id, p)

	summary := ToStateSummary(s)
	back := FromStateSummary(summary, s.Rules)

	bp, _ := back.Players.Get(id)
	if bp.Riding == nil || *bp.Riding != lily {
		t.Fatalf("expected lilypad ride to round-trip, got %+v", bp.Riding)
	}
	if bp.Pos.ToPrecise() != (protocol.PrecisePos{X: 2.5, Y: 5}) {
		t.Fatalf("expected precise position to round-trip, got %+v", bp.Pos.ToPrecise())
	}
}

func TestRulesWireRoundTripsRound(t *testing.T) {
	m := worldmap.NewMap(13)
	spawnTimes := worldmap.NewRiverSpawnTimes(99, 1, -20, 0, m)
	alive := protocol.NewPlayerIdMap[rules.AliveState]()
	alive.Set(0, rules.Dead)

	counts := protocol.NewPlayerIdMap[int]()
	counts.Set(1, 2)

	rs := rules.RulesState{
		GameId:       1,
		Config:       rules.DefaultGameConfig(),
		WinnerCounts: counts,
		FST: rules.CrossyRulesetFST{Kind: rules.FSTRound, Round: rules.RoundState{
			RoundId:     4,
			ScreenY:     -16,
			TickInRound: 7,
			SpawnTimes:  spawnTimes,
			Alive:       alive,
		}},
	}

	w := ToRulesWire(rs)
	back := FromRulesWire(w, rs.Config, rs.GameId)

	if back.FST.Kind != rules.FSTRound {
		t.Fatalf("expected FSTRound, got %v", back.FST.Kind)
	}
	if back.FST.Round.RoundId != 4 || back.FST.Round.ScreenY != -16 || back.FST.Round.TickInRound != 7 {
		t.Fatalf("unexpected round state after round trip: %+v", back.FST.Round)
	}
	if st, ok := back.FST.Round.Alive.Get(0); !ok || st != rules.Dead {
		t.Fatal("expected alive state to round-trip")
	}
	if c, ok := back.WinnerCounts.Get(1); !ok || c != 2 {
		t.Fatal("expected winner counts to round-trip")
	}
}

func TestRulesWireRoundTripsCooldownWinner(t *testing.T) {
	winner := protocol.PlayerId(2)
	rs := rules.RulesState{
		Config: rules.DefaultGameConfig(),
		FST: rules.CrossyRulesetFST{Kind: rules.FSTRoundCooldown, Cooldown: rules.RoundCooldownState{
			RoundId: 5, TicksRemaining: 10, Winner: &winner,
		}},
	}

	w := ToRulesWire(rs)
	if !w.HasWinner || w.Winner != winner {
		t.Fatalf("expected winner to be flattened, got hasWinner=%v winner=%v", w.HasWinner, w.Winner)
	}

	back := FromRulesWire(w, rs.Config, 0)
	if back.FST.Cooldown.Winner == nil || *back.FST.Cooldown.Winner != winner {
		t.Fatal("expected winner pointer to round-trip")
	}
}
