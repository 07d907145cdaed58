package worldmap

import (
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rng"
)

// ScreenSize is the map's width in tiles. Columns run [0, ScreenSize).
const ScreenSize = 20

// carWidth is expressed in tile units (24px sprite over an 8px tile grid).
const carWidth = 24.0 / 8.0

const (
	rWidthMin = 0.2
	rWidthMax = 0.25
)

// RoadDescr names the generation seed for a Road row, carried on the wire
// so a row's identity survives round trips without re-deriving it.
type RoadDescr struct {
	Seed     uint32
	Inverted bool
}

// car is an internal fractional position in [0,1) before it is projected
// into screen space by Road.realise.
type car struct{ frac float64 }

// Road describes a lane of traffic as a closed-form function of time:
// a fixed comb of initial offsets, all driven forward at the same rate, so
// any two peers holding the same seed compute bit-identical car positions
// for a given time_us without exchanging state.
type Road struct {
	y         int32
	cars0     []car
	r0, r1    float64
	timeScale float64
	inverted  bool
}

// NewRoad builds the closed-form description of a road row. seed must
// already be derived from the match seed, round id and row y (see
// Map.subSeed) so that distinct rows never share a comb.
func NewRoad(seed uint32, y int32, inverted bool) *Road {
	r := rng.New(seed)

	rWidth := r.NextRange(rWidthMin, rWidthMax, rng.KeyString("r_width"))

	minSpacingScreen := carWidth * 1.25
	maxSpacingScreen := carWidth * 16.0

	minSpacing := rWidth * minSpacingScreen / ScreenSize
	maxSpacing := rWidth * maxSpacingScreen / ScreenSize

	cars0 := make([]car, 0, 16)
	cur := 0.0
	for cur < 1.0 {
		idx := uint64(len(cars0))
		cur += r.NextRange(minSpacing, maxSpacing, rng.KeyString("car_spacing"), idx)
		cars0 = append(cars0, car{frac: cur})
	}

	return &Road{
		y:         y,
		cars0:     cars0,
		r0:        0.5 - rWidth,
		r1:        0.5 + rWidth,
		timeScale: 1.0 / 8_000_000.0,
		inverted:  inverted,
	}
}

// Y is the row this road occupies.
func (rd *Road) Y() int32 { return rd.y }

// CollidesCar reports whether a frog standing at frogPos is under a car at
// time_us. Matches a deliberate quirk of the source algorithm: the margin
// check compares the car's screen x directly against frogPos.X (not its
// tile centre), which is what makes the margin feel forgiving rather than
// exact.
func (rd *Road) CollidesCar(timeUs uint32, frogPos protocol.CoordPos) bool {
	if frogPos.Y != rd.y {
		return false
	}

	const margin = carWidth / 2.25
	for _, c := range rd.carsOnscreen(timeUs) {
		if abs(float64(frogPos.X)-rd.realise(c)) < margin {
			return true
		}
	}
	return false
}

func (rd *Road) realise(c car) float64 {
	pos := c.frac
	if rd.inverted {
		pos = 1.0 - c.frac
	}
	xOver := pos - rd.r0
	return (xOver * ScreenSize) / (rd.r1 - rd.r0)
}

// CarPublic is the wire/UI projection of a single car: its screen-space x,
// the row it's on, and whether its sprite should be flipped.
type CarPublic struct {
	X       float64
	Y       int32
	Flipped bool
}

// CarsPublic returns every car on this road, projected to screen space,
// for the given time_us. Deterministic: calling it twice at the same
// time_us on two peers sharing this Road's seed yields bit-identical
// results, which is the property the closed-form design exists to buy.
func (rd *Road) CarsPublic(timeUs uint32) []CarPublic {
	onscreen := rd.carsOnscreen(timeUs)
	out := make([]CarPublic, len(onscreen))
	for i, c := range onscreen {
		out[i] = CarPublic{X: rd.realise(c), Y: rd.y, Flipped: rd.inverted}
	}
	return out
}

func (rd *Road) carsOnscreen(timeUs uint32) []car {
	out := make([]car, 0, len(rd.cars0))
	for _, c0 := range rd.cars0 {
		driven := c0.drive(rd.timeScale * float64(timeUs))
		if driven.onScreen() {
			out = append(out, driven)
		}
	}
	return out
}

func (c car) drive(dt float64) car {
	v := c.frac + dt
	_, frac := splitFrac(v)
	return car{frac: frac}
}

// onScreen preserves the source's permissive bound: any fractional
// position in [0,1) satisfies one side of this OR, so in practice every
// car is kept. The visible window is instead carved out by realise's
// (r0, r1) projection.
func (c car) onScreen() bool {
	return c.frac > -carWidth || c.frac < ScreenSize+carWidth
}

func splitFrac(v float64) (whole, frac float64) {
	w := float64(int64(v))
	if v < 0 && w != v {
		w -= 1
	}
	return w, v - w
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
