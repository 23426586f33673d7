package game

import (
	"math"
	"math/rand"
)

// Position is a point in map space. Coordinates are serialized directly
// onto the wire, so the field tags are part of the protocol.
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Distance returns the Euclidean distance between two centers.
func Distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// RandomPosition picks a uniform random point within the map bounds.
func RandomPosition(width, height float64) Position {
	return Position{
		X: rand.Float64() * width,
		Y: rand.Float64() * height,
	}
}

// InBounds reports whether p is a finite point inside
// [0, width] x [0, height]. Clients are untrusted; the msgpack codec can
// carry NaN and infinities, so finiteness is checked explicitly.
func (p Position) InBounds(width, height float64) bool {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return false
	}
	return p.X >= 0 && p.X <= width && p.Y >= 0 && p.Y <= height
}
