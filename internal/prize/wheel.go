// Package prize implements the weighted discrete draw behind the spin wheel.
package prize

import (
	"math/rand"
	"sync"
)

// Segment pairs a prize amount in cents with its integer weight.  Weights
// do not need to be normalized; a segment's chance is weight/totalWeight.
type Segment struct {
	AmountCents int
	Weight      int
}

// DefaultSegments is the production wheel: weights sum to 100, so each
// weight reads directly as a percentage.
var DefaultSegments = []Segment{
	{AmountCents: 0, Weight: 40},
	{AmountCents: 500, Weight: 30},
	{AmountCents: 1000, Weight: 15},
	{AmountCents: 2500, Weight: 10},
	{AmountCents: 5000, Weight: 4},
	{AmountCents: 10000, Weight: 1},
}

// Wheel draws prize amounts from a fixed weighted distribution.  The random
// source is injected so tests can seed it and replay exact sequences.
type Wheel struct {
	segments []Segment
	total    int

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// NewWheel builds a Wheel over the given segments.  Segment order is
// significant: the cumulative-weight walk visits segments in declaration
// order, so a seeded source always lands on the same amounts.
func NewWheel(segments []Segment, rng *rand.Rand) *Wheel {
	total := 0
	for _, s := range segments {
		total += s.Weight
	}
	return &Wheel{segments: segments, total: total, rng: rng}
}

// Draw picks one amount.  A single uniform integer in [0, totalWeight) is
// walked down the segment list, subtracting each weight until the remainder
// goes negative.  The first segment's amount is the fallback if the walk
// somehow completes, which cannot happen while total equals the weight sum.
func (w *Wheel) Draw() int {
	w.mu.Lock()
	r := w.rng.Intn(w.total)
	w.mu.Unlock()
	for _, s := range w.segments {
		r -= s.Weight
		if r < 0 {
			return s.AmountCents
		}
	}
	return w.segments[0].AmountCents
}

// TotalWeight reports the sum of all segment weights.
func (w *Wheel) TotalWeight() int { return w.total }
