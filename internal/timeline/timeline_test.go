package timeline

import (
	"testing"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/worldmap"
)

func TestTickAdvancesFrameAndTime(t *testing.T) {
	m := worldmap.NewMap(1)
	tl := NewFromSeed(m, 1, 1)

	s := tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	if s.FrameId != 1 {
		t.Fatalf("expected frame 1, got %d", s.FrameId)
	}
	if s.TimeUs != TickIntervalUs {
		t.Fatalf("expected TimeUs to advance by one tick, got %d", s.TimeUs)
	}
	if tl.HeadFrameId() != 1 {
		t.Fatalf("expected head frame id 1, got %d", tl.HeadFrameId())
	}
}

func TestTryGetStateFindsBufferedFrame(t *testing.T) {
	m := worldmap.NewMap(1)
	tl := NewFromSeed(m, 1, 1)

	for i := 0; i < 5; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	s, ok := tl.TryGetState(3)
	if !ok {
		t.Fatal("expected frame 3 to still be buffered")
	}
	if s.FrameId != 3 {
		t.Fatalf("expected FrameId 3, got %d", s.FrameId)
	}

	if _, ok := tl.TryGetState(999); ok {
		t.Fatal("expected an unsimulated frame to be absent")
	}
}

func TestTickEvictsOldestFrameBeyondCapacity(t *testing.T) {
	m := worldmap.NewMap(1)
	tl := NewFromSeed(m, 1, 1)

	for i := 0; i < Capacity+10; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	if tl.Len() != Capacity {
		t.Fatalf("expected buffer capped at %d frames, got %d", Capacity, tl.Len())
	}
	if _, ok := tl.TryGetState(0); ok {
		t.Fatal("expected frame 0 to have been evicted")
	}
}

func TestPropagateInputsRewritesHistoryForward(t *testing.T) {
	m := worldmap.NewMap(2)
	tl := NewFromSeed(m, 2, 1)
	tl.AddPlayer(protocol.CoordPos{X: 5, Y: 0})

	// Run several idle ticks first.
	for i := 0; i < 3; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	before, _ := tl.TryGetState(3)
	p, _ := before.Players.Get(0)
	if p.Pos.ToCoord().X != 5 {
		t.Fatalf("expected no movement yet, got x=%d", p.Pos.ToCoord().X)
	}

	// A late-arriving input for frame 1 should move the player, and that
	// movement should still be visible at the latest frame once replayed.
	dropped := tl.PropagateInputs([]RemoteInput{{FrameId: 1, PlayerId: 0, Input: protocol.InputLeft}})
	if dropped != 0 {
		t.Fatalf("expected frame 1 to still be within the retention window, dropped=%d", dropped)
	}

	after := tl.HeadState()
	pa, _ := after.Players.Get(0)
	if pa.Pos.ToCoord().X != 4 {
		t.Fatalf("expected replayed move to land at x=4, got x=%d", pa.Pos.ToCoord().X)
	}
}

func TestPropagateInputsDropsFramesOutsideWindow(t *testing.T) {
	m := worldmap.NewMap(2)
	tl := NewFromSeed(m, 2, 1)
	tl.AddPlayer(protocol.CoordPos{X: 5, Y: 0})

	for i := 0; i < Capacity+5; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	dropped := tl.PropagateInputs([]RemoteInput{{FrameId: 0, PlayerId: 0, Input: protocol.InputLeft}})
	if dropped != 1 {
		t.Fatalf("expected the stale input to be dropped, got dropped=%d", dropped)
	}
}

func TestPropagateInputsAppliesEarliestOfABatch(t *testing.T) {
	m := worldmap.NewMap(2)
	tl := NewFromSeed(m, 2, 1)
	tl.AddPlayer(protocol.CoordPos{X: 5, Y: 0})

	for i := 0; i < 5; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	dropped := tl.PropagateInputs([]RemoteInput{
		{FrameId: 3, PlayerId: 0, Input: protocol.InputNone},
		{FrameId: 1, PlayerId: 0, Input: protocol.InputLeft},
	})
	if dropped != 0 {
		t.Fatalf("expected both inputs within window, got dropped=%d", dropped)
	}

	head := tl.HeadState()
	p, _ := head.Players.Get(0)
	if p.Pos.ToCoord().X != 4 {
		t.Fatalf("expected earliest input in the batch to move the player to x=4, got x=%d", p.Pos.ToCoord().X)
	}
}

func TestRebaseReplacesStateAndReplaysLocalInputs(t *testing.T) {
	m := worldmap.NewMap(3)
	tl := NewFromSeed(m, 3, 1)
	tl.AddPlayer(protocol.CoordPos{X: 5, Y: 0})

	inputs := protocol.NewPlayerInputs()
	inputs.Set(0, protocol.InputLeft)
	tl.Tick(inputs, TickIntervalUs) // frame 1: moves to x=4
	tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs) // frame 2: cooldown holds at x=4

	authoritative, ok := tl.TryGetState(0)
	if !ok {
		t.Fatal("expected frame 0 to still be buffered")
	}

	tl.Rebase(0, authoritative)

	// Replaying frame 1's recorded InputLeft against the rebased frame 0
	// should reproduce the same x=4 result at the head.
	head := tl.HeadState()
	p, _ := head.Players.Get(0)
	if p.Pos.ToCoord().X != 4 {
		t.Fatalf("expected rebase replay to reproduce x=4, got x=%d", p.Pos.ToCoord().X)
	}
	if tl.OldestFrameId() != 0 {
		t.Fatalf("expected rebase to keep frame 0 as the new oldest frame, got %d", tl.OldestFrameId())
	}
}

func TestRebaseOutsideWindowResetsTimeline(t *testing.T) {
	m := worldmap.NewMap(4)
	tl := NewFromSeed(m, 4, 1)
	for i := 0; i < 5; i++ {
		tl.Tick(protocol.NewPlayerInputs(), TickIntervalUs)
	}

	future := tl.HeadState()
	future.FrameId = 1000
	future.TimeUs = 1000 * TickIntervalUs

	tl.Rebase(1000, future)

	if tl.HeadFrameId() != 1000 {
		t.Fatalf("expected timeline reset to the authoritative frame, got %d", tl.HeadFrameId())
	}
	if tl.Len() != 1 {
		t.Fatalf("expected a single-frame timeline after an out-of-window rebase, got %d frames", tl.Len())
	}
}

func TestTickCurrentTimeHoldsLastKnownInput(t *testing.T) {
	m := worldmap.NewMap(5)
	tl := NewFromSeed(m, 5, 1)
	tl.AddPlayer(protocol.CoordPos{X: 5, Y: 0})

	first := protocol.NewPlayerInputs()
	first.Set(0, protocol.InputLeft)
	tl.TickCurrentTime(first, TickIntervalUs)

	// No explicit input this time; the player's last known direction
	// should not cause a second move to be applied to itself (cooldown)
	// but should be remembered and reported back.
	tl.TickCurrentTime(protocol.NewPlayerInputs(), 2*TickIntervalUs)

	in, ok := tl.GetLastPlayerInputs(0)
	if !ok || in != protocol.InputLeft {
		t.Fatalf("expected last known input to be remembered as Left, got %v ok=%v", in, ok)
	}
}

func TestAddPlayerDoesNotAdvanceFrame(t *testing.T) {
	m := worldmap.NewMap(6)
	tl := NewFromSeed(m, 6, 1)

	id, ok := tl.AddPlayer(protocol.CoordPos{X: 1, Y: 1})
	if !ok {
		t.Fatal("expected room for a new player")
	}
	if id != 0 {
		t.Fatalf("expected first player to get id 0, got %d", id)
	}
	if tl.HeadFrameId() != 0 {
		t.Fatalf("expected AddPlayer to leave the frame id unchanged, got %d", tl.HeadFrameId())
	}
}

func TestSetPlayerReadyRecordsFlag(t *testing.T) {
	m := worldmap.NewMap(7)
	tl := NewFromSeed(m, 7, 1)
	id, _ := tl.AddPlayer(protocol.CoordPos{X: 1, Y: 1})

	tl.SetPlayerReady(id, true)

	ready, ok := tl.HeadState().Ready.Get(id)
	if !ok || !ready {
		t.Fatal("expected player to be marked ready")
	}
}
