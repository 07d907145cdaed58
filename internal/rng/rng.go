// Package rng implements FroggyRng, the deterministic hash-based
// pseudo-random generator every map and rules decision is keyed from.
//
// FroggyRng carries no mutable state: every call is a pure function of
// (seed, key tuple), so any two peers that agree on a seed and call sites
// reconstruct identical random decisions without exchanging them over the
// wire. This mirrors the checksum hashing in the teacher's
// internal/game/deterministic.go, extended into a general-purpose mixer.
package rng

import "hash/fnv"

// FroggyRng is a stateless keyed hash PRNG. The zero value is not usable;
// construct with New.
type FroggyRng struct {
	seed uint64
}

// New returns a generator keyed by seed. Calling it repeatedly with the
// same seed and the same keys always yields the same values.
func New(seed uint32) FroggyRng {
	return FroggyRng{seed: uint64(seed)}
}

// NewFromUint64 is like New but accepts a wider seed, used when chaining
// generators (e.g. keying a round's RNG off the match seed and round id).
func NewFromUint64(seed uint64) FroggyRng {
	return FroggyRng{seed: seed}
}

// hashKeys mixes the generator's seed with an arbitrary tuple of context
// keys into a single 64-bit value. It uses FNV-1a (the hash already
// present in the teacher's dependency surface via hash/fnv) followed by a
// splitmix64 finalizer so that closely-related key tuples (e.g. adjacent
// round ids) don't produce correlated low bits.
func hashKeys(seed uint64, keys ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	putUint64(seed)
	putUint64(uint64(len(keys)))
	for _, k := range keys {
		putUint64(k)
	}
	return splitmix64(h.Sum64())
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// Key widens an integer context value (a round id, a row y, a count) into
// a uint64 key usable by hashKeys; strings go through KeyString instead.
// Small helpers keep call sites readable:
// rng.New(seed).GenUnit(rng.KeyString("road"), rng.Key(roundID), rng.Key(y)).
func Key[T ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uint8](v T) uint64 {
	return uint64(v)
}

// KeyString hashes a short tag string (e.g. "road", "river_spawn") into a
// stable uint64 key.
func KeyString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// GenUnit returns a float64 in [0,1) deterministic in (seed, keys).
func (r FroggyRng) GenUnit(keys ...uint64) float64 {
	h := hashKeys(r.seed, keys...)
	// Keep 53 bits of entropy to land exactly in [0,1) as a float64.
	const mantissaBits = 53
	return float64(h>>(64-mantissaBits)) / float64(uint64(1)<<mantissaBits)
}

// NextRange returns a float64 in [lo, hi) deterministic in (seed, keys).
func (r FroggyRng) NextRange(lo, hi float64, keys ...uint64) float64 {
	return lo + r.GenUnit(keys...)*(hi-lo)
}

// NextIntRange returns an int in [lo, hi) deterministic in (seed, keys).
// hi must be greater than lo.
func (r FroggyRng) NextIntRange(lo, hi int, keys ...uint64) int {
	span := uint64(hi - lo)
	h := hashKeys(r.seed, keys...)
	return lo + int(h%span)
}

// Choose deterministically picks one element of items, keyed by keys.
// items must be non-empty.
func Choose[T any](r FroggyRng, items []T, keys ...uint64) T {
	idx := r.NextIntRange(0, len(items), keys...)
	return items[idx]
}

// Shuffle performs a deterministic Fisher-Yates shuffle of items in place,
// driven by repeated calls keyed on the shuffle's own key tuple plus the
// current pass index so the whole permutation is a pure function of
// (seed, keys).
func Shuffle[T any](r FroggyRng, items []T, keys ...uint64) {
	for i := len(items) - 1; i > 0; i-- {
		passKeys := append(append([]uint64{}, keys...), uint64(i))
		j := r.NextIntRange(0, i+1, passKeys...)
		items[i], items[j] = items[j], items[i]
	}
}
