package worldmap

import (
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rng"
)

const (
	lilyWidth   = 24.0 / 8.0
	lilyWidMin  = 0.2
	lilyWidMax  = 0.3
	lilyTimeDiv = 10_000_000.0
)

// RiverDescr names the generation seed for a River row, mirroring
// RoadDescr. Carried on the wire so a materialized row survives a
// round trip without re-deriving its comb.
type RiverDescr struct {
	Seed uint32
}

// LilyId identifies one lilypad in a river row: the row it belongs to and
// its index within that row's comb. Stable for the lifetime of the row,
// so a player riding a lilypad can be re-anchored to it every tick.
type LilyId struct {
	Y     int32
	Index int
}

type lilypad struct{ frac float64 }

// River is the closed-form counterpart to Road: a fixed comb of lilypads
// drifting at a constant rate. Unlike cars, lilypads are gated by a spawn
// time supplied by the rules FSM — before that tick a river row is empty
// water, which keeps a round from handing out a crossing until the FSM
// says the row is live.
type River struct {
	y         int32
	pads0     []lilypad
	r0, r1    float64
	timeScale float64
	inverted  bool
}

// NewRiver builds the closed-form description of a river row from a seed
// already derived from the match seed, round id and row y, following the
// same "comb of spaced offsets driven forward" shape as NewRoad.
func NewRiver(seed uint32, y int32, inverted bool) *River {
	r := rng.New(seed)

	width := r.NextRange(lilyWidMin, lilyWidMax, rng.KeyString("lily_width"))

	minSpacingScreen := lilyWidth * 1.1
	maxSpacingScreen := lilyWidth * 3.0

	minSpacing := width * minSpacingScreen / ScreenSize
	maxSpacing := width * maxSpacingScreen / ScreenSize

	pads0 := make([]lilypad, 0, 12)
	cur := 0.0
	for cur < 1.0 {
		idx := uint64(len(pads0))
		cur += r.NextRange(minSpacing, maxSpacing, rng.KeyString("lily_spacing"), idx)
		pads0 = append(pads0, lilypad{frac: cur})
	}

	return &River{
		y:         y,
		pads0:     pads0,
		r0:        0.5 - width,
		r1:        0.5 + width,
		timeScale: 1.0 / lilyTimeDiv,
		inverted:  inverted,
	}
}

// Y is the row this river occupies.
func (rv *River) Y() int32 { return rv.y }

func (rv *River) realise(p lilypad) float64 {
	pos := p.frac
	if rv.inverted {
		pos = 1.0 - p.frac
	}
	xOver := pos - rv.r0
	return (xOver * ScreenSize) / (rv.r1 - rv.r0)
}

func (p lilypad) drive(dt float64) lilypad {
	_, frac := splitFrac(p.frac + dt)
	return lilypad{frac: frac}
}

// LilyPublic is the wire/UI projection of a single lilypad.
type LilyPublic struct {
	Id LilyId
	X  float64
	Y  int32
}

// Spawned reports whether this river row is live at time_us, per the
// spawn time the rules FSM assigned it.
func Spawned(spawnTimes RiverSpawnTimes, y int32, timeUs uint32) bool {
	spawnAt, ok := spawnTimes.get(y)
	if !ok {
		return true
	}
	return timeUs >= spawnAt
}

// LilypadsPublic returns every lilypad on this river, projected to screen
// space, for the given time_us, or nil if the rules FSM hasn't yet spawned
// this row.
func (rv *River) LilypadsPublic(timeUs uint32, spawnTimes RiverSpawnTimes) []LilyPublic {
	if !Spawned(spawnTimes, rv.y, timeUs) {
		return nil
	}

	out := make([]LilyPublic, 0, len(rv.pads0))
	for i, p0 := range rv.pads0 {
		driven := p0.drive(rv.timeScale * float64(timeUs))
		out = append(out, LilyPublic{
			Id: LilyId{Y: rv.y, Index: i},
			X:  rv.realise(driven),
			Y:  rv.y,
		})
	}
	return out
}

// LilypadAt returns the lilypad (if any) under precisePos, within riding
// margin. Used both to let a player step onto a lilypad and to track the
// one they're already riding frame to frame.
func (rv *River) LilypadAt(timeUs uint32, spawnTimes RiverSpawnTimes, pos protocol.PrecisePos) (LilyId, bool) {
	if int32(pos.Round().Y) != rv.y {
		return LilyId{}, false
	}
	const margin = lilyWidth / 2.0
	for _, pub := range rv.LilypadsPublic(timeUs, spawnTimes) {
		if abs(pos.X-pub.X) < margin {
			return pub.Id, true
		}
	}
	return LilyId{}, false
}

// LilypadPos returns the current screen position of a specific lilypad by
// id, used to carry a rider along with it tick to tick.
func (rv *River) LilypadPos(timeUs uint32, id LilyId) (float64, bool) {
	if id.Y != rv.y || id.Index < 0 || id.Index >= len(rv.pads0) {
		return 0, false
	}
	driven := rv.pads0[id.Index].drive(rv.timeScale * float64(timeUs))
	return rv.realise(driven), true
}

// RiverSpawnTimes gates when each river row in a round becomes live,
// assigned once by the rules FSM at round warmup so every peer opens
// rivers in the same order without needing to synchronize it tick by
// tick. Rows not present in the map are always considered spawned.
type RiverSpawnTimes struct {
	byRow map[int32]uint32
}

// NewRiverSpawnTimes builds a spawn schedule for the river rows in
// [yMin, yMax], staggering each by a deterministic offset keyed on the
// round id so a round's rivers open in a stable, seed-derived order.
func NewRiverSpawnTimes(seed uint32, roundId uint8, yMin, yMax int32, m *Map) RiverSpawnTimes {
	byRow := make(map[int32]uint32)
	r := rng.New(seed)
	for y := yMin; y <= yMax; y++ {
		row := m.GetRow(roundId, y)
		if row.Kind != RowRiver {
			continue
		}
		offsetMs := r.NextIntRange(0, 6000, rng.KeyString("river_spawn"), rng.Key(roundId), rng.Key(y))
		byRow[y] = uint32(offsetMs) * 1000
	}
	return RiverSpawnTimes{byRow: byRow}
}

func (s RiverSpawnTimes) get(y int32) (uint32, bool) {
	if s.byRow == nil {
		return 0, false
	}
	v, ok := s.byRow[y]
	return v, ok
}

// RiverSpawnEntry is one row's spawn offset, the unit RiverSpawnTimes is
// serialized as on the wire (its internal map isn't itself encodable by a
// tagged-union-friendly codec).
type RiverSpawnEntry struct {
	Y         int32
	SpawnTime uint32
}

// Entries returns every row's spawn offset, for wire serialization.
func (s RiverSpawnTimes) Entries() []RiverSpawnEntry {
	out := make([]RiverSpawnEntry, 0, len(s.byRow))
	for y, t := range s.byRow {
		out = append(out, RiverSpawnEntry{Y: y, SpawnTime: t})
	}
	return out
}

// RiverSpawnTimesFromEntries reconstructs a schedule from its wire form.
func RiverSpawnTimesFromEntries(entries []RiverSpawnEntry) RiverSpawnTimes {
	byRow := make(map[int32]uint32, len(entries))
	for _, e := range entries {
		byRow[e.Y] = e.SpawnTime
	}
	return RiverSpawnTimes{byRow: byRow}
}
