package aquarium

import "math"

// Vec is a 2D vector in container pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

// clampVec limits each component of v to [lo, hi] of the matching axis.
func clampVec(v, lo, hi Vec) Vec {
	return Vec{clamp(v.X, lo.X, hi.X), clamp(v.Y, lo.Y, hi.Y)}
}

// clamp limits x to [lo, hi]. When the range is empty (container smaller than
// a bubble) the midpoint wins.
func clamp(x, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, x))
}
