// Package timeline implements the rollback-netcode core: a ring buffer of
// game.GameState snapshots, indexed by FrameId, that lets both client and
// server hold a short window of simulation history in memory. A late or
// corrected input doesn't require rewinding to the network layer — it is
// spliced into the frame it belongs to and every later frame in the buffer
// is re-simulated from there, exactly as if the input had arrived on time.
//
// This is the same trick the teacher's client.PredictionBuffer plays for a
// single local player's inputs, generalized to every player and to a
// second source of truth: an authoritative snapshot from the server can
// also be spliced in (Rebase), which is how a client reconciles its
// predictions against the network's ground truth without ever needing to
// ask "was I right?" for every tick.
package timeline

import (
	"sort"
	"sync"

	"github.com/crossy/crossy-go/internal/game"
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// RemoteInput is one player's input for one past frame, arriving out of
// order relative to the ticks the timeline has already simulated — the
// unit PropagateInputs reconciles against buffered history.
type RemoteInput struct {
	FrameId  uint32
	PlayerId protocol.PlayerId
	Input    protocol.Input
}

// Capacity bounds how many ticks of history the ring buffer retains. At
// 60Hz this is a little over four seconds, comfortably more than any
// realistic round-trip-time jitter the reconciliation logic needs to
// absorb.
const Capacity = 256

// TickIntervalUs is the fixed simulation tick length in microseconds.
const TickIntervalUs uint32 = 16666

// frame is one buffered tick: the state it produced, and the inputs and
// delta-time that produced it, kept so the frame can be re-derived from
// its predecessor when an earlier frame in the buffer changes.
type frame struct {
	state  game.GameState
	inputs protocol.PlayerInputs
	dtUs   uint32
}

// Timeline is a contiguous, FrameId-ordered window of simulation history.
// It is not safe for concurrent use from multiple goroutines without
// external synchronization beyond what Timeline itself provides — callers
// that share a Timeline across a network read loop and a simulation loop
// should still serialize through its own mutex, which every exported
// method takes.
type Timeline struct {
	mu     sync.Mutex
	m      *worldmap.Map
	frames []frame

	// lastInputs remembers the most recent explicitly-set input per player,
	// used to extrapolate a held direction forward when TickCurrentTime is
	// asked to advance without a fresh input for every player.
	lastInputs protocol.PlayerIdMap[protocol.Input]
}

// NewFromSeed starts a fresh Timeline at frame 0 for a newly created match.
func NewFromSeed(m *worldmap.Map, seed, gameId uint32) *Timeline {
	return &Timeline{
		m:      m,
		frames: []frame{{state: game.NewGameState(seed, gameId)}},
	}
}

// NewFromServerState builds a Timeline seeded from an authoritative
// snapshot, the constructor a client uses the moment it receives the
// server's initial state broadcast (it has no local history to rewind
// into, so the snapshot simply becomes frame zero of its own window).
func NewFromServerState(m *worldmap.Map, state game.GameState) *Timeline {
	return &Timeline{
		m:      m,
		frames: []frame{{state: state}},
	}
}

// HeadFrameId returns the FrameId of the most recently simulated state.
func (t *Timeline) HeadFrameId() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.head().state.FrameId
}

// head is the most recent buffered frame. Callers must hold t.mu.
func (t *Timeline) head() frame {
	return t.frames[len(t.frames)-1]
}

// HeadState returns the most recently simulated GameState.
func (t *Timeline) HeadState() game.GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.head().state
}

// Tick advances the timeline by one frame from its current head, applying
// inputs over dtUs of simulated time, and returns the resulting state.
func (t *Timeline) Tick(inputs protocol.PlayerInputs, dtUs uint32) game.GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickLocked(inputs, dtUs)
}

func (t *Timeline) tickLocked(inputs protocol.PlayerInputs, dtUs uint32) game.GameState {
	prev := t.head()
	next := game.Simulate(prev.state, inputs, dtUs, t.m)

	for i := protocol.PlayerId(0); int(i) < protocol.MaxPlayers; i++ {
		if inputs.IsSet(i) {
			t.lastInputs.Set(i, inputs.Get(i))
		}
	}

	t.frames = append(t.frames, frame{state: next, inputs: inputs, dtUs: dtUs})
	if len(t.frames) > Capacity {
		t.frames = t.frames[len(t.frames)-Capacity:]
	}
	return next
}

// TickCurrentTime advances the timeline to nowUs, filling in any player
// absent from inputs with their last known held direction. This is the
// client-side prediction entry point: the local loop calls it every frame
// with whatever fresh input it has collected, and other players keep
// moving in the direction they were last observed moving until a
// correction arrives.
func (t *Timeline) TickCurrentTime(inputs protocol.PlayerInputs, nowUs uint32) game.GameState {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.head().state.TimeUs
	if nowUs <= cur {
		return t.head().state
	}
	dt := nowUs - cur

	filled := protocol.NewPlayerInputs()
	for i := protocol.PlayerId(0); int(i) < protocol.MaxPlayers; i++ {
		if in, ok := t.lastInputs.Get(i); ok {
			filled.Set(i, in)
		}
	}
	filled = filled.Merge(inputs)

	return t.tickLocked(filled, dt)
}

// indexOf returns the buffer index holding frameId, and whether it was
// found. Callers must hold t.mu.
func (t *Timeline) indexOf(frameId uint32) (int, bool) {
	if len(t.frames) == 0 {
		return 0, false
	}
	base := t.frames[0].state.FrameId
	if frameId < base {
		return 0, false
	}
	idx := int(frameId - base)
	if idx >= len(t.frames) {
		return 0, false
	}
	return idx, true
}

// TryGetState looks up the buffered state for a specific frame, returning
// ok=false if that frame has already scrolled out of the retention window
// or hasn't been simulated yet.
func (t *Timeline) TryGetState(frameId uint32) (game.GameState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.indexOf(frameId)
	if !ok {
		return game.GameState{}, false
	}
	return t.frames[idx].state, true
}

// GetLastPlayerInputs returns the most recent input recorded for a player,
// used to show a remote player continuing in a straight line between
// network updates.
func (t *Timeline) GetLastPlayerInputs(id protocol.PlayerId) (protocol.Input, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastInputs.Get(id)
}

// resimulateFrom replays frames[idx+1:] from frames[idx], using each
// frame's already-recorded inputs and dtUs. Callers must hold t.mu and
// have already mutated frames[idx] (or frames[idx].inputs) as needed.
func (t *Timeline) resimulateFrom(idx int) {
	for i := idx + 1; i < len(t.frames); i++ {
		prev := t.frames[i-1].state
		t.frames[i].state = game.Simulate(prev, t.frames[i].inputs, t.frames[i].dtUs, t.m)
	}
}

// PropagateInputs is the core reconciliation step: it splices a batch of
// out-of-order remote inputs into the frames they target and re-simulates
// every buffered frame from the earliest affected point forward, so a
// late-arriving input becomes retroactively correct rather than merely
// accepted from now on. Inputs targeting a frame that is no longer
// buffered, the oldest buffered frame (which has no predecessor to
// re-simulate from), or a frame newer than the head are dropped, not kept
// for later; the count dropped is returned so the caller can
// surface a warning without this failing outright — simulate itself
// cannot fail, and neither does reconciling around it.
//
// Applying the same batch twice is a no-op the second time: every input
// is simply re-written into its frame's recorded PlayerInputs before
// re-simulating, so repeating it recomputes the same states.
func (t *Timeline) PropagateInputs(deltaInputs []RemoteInput) (dropped int) {
	if len(deltaInputs) == 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := make([]RemoteInput, len(deltaInputs))
	copy(sorted, deltaInputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FrameId < sorted[j].FrameId })

	minIdx := -1
	for _, ri := range sorted {
		idx, ok := t.indexOf(ri.FrameId)
		if !ok || idx == 0 {
			dropped++
			continue
		}
		t.frames[idx].inputs.Set(ri.PlayerId, ri.Input)
		if minIdx == -1 || idx < minIdx {
			minIdx = idx
		}
	}

	if minIdx == -1 {
		return dropped
	}

	prev := t.frames[minIdx-1].state
	t.frames[minIdx].state = game.Simulate(prev, t.frames[minIdx].inputs, t.frames[minIdx].dtUs, t.m)
	t.resimulateFrom(minIdx)
	return dropped
}

// Rebase accepts an authoritative snapshot for frameId from the server,
// splices it into the buffer in place of whatever was locally predicted
// for that frame, and re-simulates every later frame forward from it using
// their already-recorded local inputs. If frameId is older than every
// frame currently buffered, or newer than every frame buffered (the local
// window has drifted out of range of the server, e.g. after a stall), the
// whole timeline is reset to start from the authoritative snapshot.
func (t *Timeline) Rebase(frameId uint32, authoritative game.GameState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.indexOf(frameId)
	if !ok {
		t.frames = []frame{{state: authoritative}}
		return
	}

	t.frames[idx].state = authoritative
	t.resimulateFrom(idx)

	// Drop history before the rebase point; nothing before it can ever be
	// re-examined now that a newer authoritative point exists.
	if idx > 0 {
		t.frames = t.frames[idx:]
	}
}

// PropagateState is reserved for propagating an authoritative mid-window
// correction without discarding the frames before it, mirroring the
// original protocol's propagate_state message. The project's reconciliation
// model only ever needs Rebase's "snap to latest known good, replay
// forward" behavior (see DESIGN.md), so this is deliberately a no-op kept
// as a documented extension point rather than removed outright.
func (t *Timeline) PropagateState(frameId uint32, state game.GameState) {
}

// AddPlayer admits a new player into the current head state, recording the
// change as an in-place edit to the head frame rather than as a new tick —
// joining a match doesn't advance the simulation clock.
func (t *Timeline) AddPlayer(spawn protocol.CoordPos) (protocol.PlayerId, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := len(t.frames) - 1
	next, id, ok := t.frames[i].state.AddPlayer(spawn)
	if !ok {
		return 0, false
	}
	t.frames[i].state = next
	return id, true
}

// RemovePlayer drops a player from the current head state.
func (t *Timeline) RemovePlayer(id protocol.PlayerId) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := len(t.frames) - 1
	t.frames[i].state = t.frames[i].state.RemovePlayer(id)
	t.lastInputs.Delete(id)
}

// SetPlayerReady records a player's lobby-ready flag on the current head
// state.
func (t *Timeline) SetPlayerReady(id protocol.PlayerId, ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := len(t.frames) - 1
	t.frames[i].state = t.frames[i].state.SetPlayerReady(id, ready)
}

// DeltaInputsSince returns every explicitly-set input recorded for
// frames after frameId, in frame order — the log a server compiles
// alongside an LKG snapshot so a client can replay forward from it
// (spec §4.7 step 6's delta_inputs).
func (t *Timeline) DeltaInputsSince(frameId uint32) []RemoteInput {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := 0
	if idx, ok := t.indexOf(frameId); ok {
		start = idx + 1
	}

	var out []RemoteInput
	for i := start; i < len(t.frames); i++ {
		f := t.frames[i]
		for p := protocol.PlayerId(0); int(p) < protocol.MaxPlayers; p++ {
			if f.inputs.IsSet(p) {
				out = append(out, RemoteInput{FrameId: f.state.FrameId, PlayerId: p, Input: f.inputs.Get(p)})
			}
		}
	}
	return out
}

// Len returns the number of frames currently retained.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

// OldestFrameId returns the FrameId of the oldest frame still retained.
func (t *Timeline) OldestFrameId() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames[0].state.FrameId
}
