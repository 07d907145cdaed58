// Package worldmap implements the procedurally generated crossing map:
// every row is a pure function of (map seed, round id, row y), so two
// peers holding the same seed materialize bit-identical terrain without
// exchanging it over the wire. Roads and rivers go one step further and
// describe their moving contents (cars, lilypads) as closed-form
// functions of time, so a car's position at any time_us is computed, not
// simulated tick by tick.
package worldmap

import (
	"sync"

	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rng"
)

const (
	startY       = 0
	lobbyRiverY  = 4
	lobbyBankY   = 5
	lobbyStandsY = 10
	lobbyTopY    = 14
)

// rowKey identifies a materialized row for memoization purposes.
type rowKey struct {
	roundId uint8
	y       int32
}

// Map is the procedural generator for one match's terrain. It is safe for
// concurrent use: row materialization is memoized behind a mutex, but the
// values it computes never depend on call order, only on (seed, round id,
// y), matching the closed-form contract the rest of the system relies on.
type Map struct {
	seed uint32

	mu   sync.Mutex
	rows map[rowKey]Row
}

// NewMap returns a procedural map keyed by seed.
func NewMap(seed uint32) *Map {
	return &Map{seed: seed, rows: make(map[rowKey]Row)}
}

// Seed returns the map's generation seed.
func (m *Map) Seed() uint32 { return m.seed }

// GetRow returns the materialized row at y for the given round, generating
// and memoizing it on first access. The result never changes for a given
// (roundId, y) pair: regenerating it (e.g. on a different peer, or after
// evicting the cache) always reproduces the same Row.
func (m *Map) GetRow(roundId uint8, y int32) Row {
	key := rowKey{roundId: roundId, y: y}

	m.mu.Lock()
	if row, ok := m.rows[key]; ok {
		m.mu.Unlock()
		return row
	}
	m.mu.Unlock()

	row := m.generateRow(roundId, y)

	m.mu.Lock()
	m.rows[key] = row
	m.mu.Unlock()

	return row
}

// GetRowView returns the rows visible in (screenY-height, screenY], paired
// with their y, in descending y order (closest to the player first) to
// match the order the original client draws them in.
func (m *Map) GetRowView(roundId uint8, screenY int32, height int32) []RowView {
	out := make([]RowView, 0, height)
	for i := int32(0); i < height; i++ {
		y := screenY - i
		out = append(out, RowView{Row: m.GetRow(roundId, y), Y: y})
	}
	return out
}

// lobbyRow returns the fixed, non-randomized rows of the pre-round lobby
// area, which sits at y >= startY.
func lobbyRow(y int32) (Row, bool) {
	switch {
	case y == startY:
		return Row{Kind: RowStartingBarrier, Y: y}, true
	case y == lobbyRiverY:
		return Row{Kind: RowLobbyRiver, Y: y}, true
	case y == lobbyBankY:
		return Row{Kind: RowLobbyRiverBank, Y: y}, true
	case y == lobbyStandsY:
		return Row{Kind: RowStands, Y: y}, true
	case y > startY && y <= lobbyTopY:
		return Row{Kind: RowLobbyMain, Y: y}, true
	case y > lobbyTopY:
		return Row{Kind: RowLobby, Y: y}, true
	default:
		return Row{}, false
	}
}

var gameplayKinds = []RowKind{
	RowGrass, RowGrass, RowRoad, RowRoad, RowRiver, RowRiver, RowPath, RowBushes, RowIcy,
}

// generateRow is the pure closed-form row generator for y < startY: no
// mutable state is read, only the seed, round id and y, plus — to avoid
// monotonous runs of identical terrain — the two previously generated
// rows, which are themselves pure functions of the same inputs.
func (m *Map) generateRow(roundId uint8, y int32) Row {
	if row, ok := lobbyRow(y); ok {
		return row
	}

	r := rng.New(m.seed)
	kind := rng.Choose(r, gameplayKinds, rng.KeyString("row_kind"), rng.Key(roundId), rng.Key(y))

	if y < startY-1 {
		prev1 := m.GetRow(roundId, y+1).Kind
		if prev1 == kind {
			prev2 := m.GetRow(roundId, y+2).Kind
			if prev2 == kind {
				kind = rng.Choose(r, gameplayKinds, rng.KeyString("row_kind_retry"), rng.Key(roundId), rng.Key(y))
			}
		}
	}

	switch kind {
	case RowRoad:
		inverted := r.NextIntRange(0, 2, rng.KeyString("road_inverted"), rng.Key(roundId), rng.Key(y)) == 1
		seed := m.subSeed(roundId, y, "road")
		return Row{Kind: RowRoad, Y: y, Road: NewRoad(seed, y, inverted)}
	case RowRiver:
		inverted := r.NextIntRange(0, 2, rng.KeyString("river_inverted"), rng.Key(roundId), rng.Key(y)) == 1
		seed := m.subSeed(roundId, y, "river")
		return Row{Kind: RowRiver, Y: y, River: NewRiver(seed, y, inverted)}
	case RowPath:
		ww := int32(r.NextIntRange(1, 5, rng.KeyString("wall_width"), rng.Key(roundId), rng.Key(y)))
		return Row{Kind: RowPath, Y: y, Path: PathDescr{WallWidth: ww}}
	case RowBushes:
		ww := int32(r.NextIntRange(1, 4, rng.KeyString("bush_width"), rng.Key(roundId), rng.Key(y)))
		return Row{Kind: RowBushes, Y: y, Path: PathDescr{WallWidth: ww}}
	case RowIcy:
		ww := int32(r.NextIntRange(0, 3, rng.KeyString("icy_width"), rng.Key(roundId), rng.Key(y)))
		var mask uint32
		for x := ww + 1; x < ScreenSize-1-ww; x++ {
			if r.GenUnit(rng.KeyString("ice_block"), rng.Key(roundId), rng.Key(y), rng.Key(x)) < 0.12 {
				mask |= 1 << uint(x)
			}
		}
		return Row{Kind: RowIcy, Y: y, Path: PathDescr{WallWidth: ww}, Ice: IceBlocks{mask: mask}}
	default:
		return Row{Kind: RowGrass, Y: y}
	}
}

// subSeed derives a road/river's own 32-bit seed from the map seed, round
// id and row, so two distinct roads never share a car comb even when
// their row-kind draw happened to collide.
func (m *Map) subSeed(roundId uint8, y int32, tag string) uint32 {
	h := rng.New(m.seed).NextIntRange(0, 1<<31, rng.KeyString(tag), rng.Key(roundId), rng.Key(y))
	return uint32(h)
}

// GetCars returns every car visible across rows [yMin, yMax] at time_us.
func (m *Map) GetCars(roundId uint8, timeUs uint32, yMin, yMax int32) []CarPublic {
	var out []CarPublic
	for y := yMin; y <= yMax; y++ {
		row := m.GetRow(roundId, y)
		if row.Kind == RowRoad {
			out = append(out, row.Road.CarsPublic(timeUs)...)
		}
	}
	return out
}

// GetLilypads returns every lilypad visible across rows [yMin, yMax] at
// time_us, honoring spawnTimes.
func (m *Map) GetLilypads(roundId uint8, timeUs uint32, spawnTimes RiverSpawnTimes, yMin, yMax int32) []LilyPublic {
	var out []LilyPublic
	for y := yMin; y <= yMax; y++ {
		row := m.GetRow(roundId, y)
		if row.Kind == RowRiver {
			out = append(out, row.River.LilypadsPublic(timeUs, spawnTimes)...)
		}
	}
	return out
}

// CollidesCar reports whether pos is under a car at time_us.
func (m *Map) CollidesCar(roundId uint8, timeUs uint32, pos protocol.CoordPos) bool {
	row := m.GetRow(roundId, pos.Y)
	if row.Kind != RowRoad {
		return false
	}
	return row.Road.CollidesCar(timeUs, pos)
}

// LilypadAt returns the lilypad (if any) under precisePos at time_us.
func (m *Map) LilypadAt(roundId uint8, timeUs uint32, spawnTimes RiverSpawnTimes, pos protocol.PrecisePos) (LilyId, bool) {
	y := pos.Round().Y
	row := m.GetRow(roundId, y)
	if row.Kind != RowRiver {
		return LilyId{}, false
	}
	return row.River.LilypadAt(timeUs, spawnTimes, pos)
}

// LilypadPos returns the current screen x of a specific lilypad, used to
// carry a rider along with it between ticks.
func (m *Map) LilypadPos(roundId uint8, timeUs uint32, id LilyId) (float64, bool) {
	row := m.GetRow(roundId, id.Y)
	if row.Kind != RowRiver {
		return 0, false
	}
	return row.River.LilypadPos(timeUs, id)
}

// Collides reports whether pos is blocked terrain (out of bounds, a
// roadside wall, bushes, an ice block, or open water) for a player not
// riding a lilypad.
func (m *Map) Collides(roundId uint8, pos protocol.CoordPos) bool {
	row := m.GetRow(roundId, pos.Y)
	return !row.Passable(pos.X)
}
