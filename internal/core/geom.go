// Package core provides the shared types and pure helpers of the pong client:
// geometry, kinematics, the character screen buffer and input signals.
// It contains no external dependencies (especially no Bubble Tea) to keep match
// logic pure and testable.
package core

import "cmp"

// Rect is an integer rectangle in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// RectF is an axis-aligned box in court units.
// Edges are inclusive: boxes that touch count as overlapping, which is how
// paddle contact is detected.
type RectF struct {
	X, Y float64
	W, H float64
}

// Right returns the x-coordinate of the right edge.
func (r RectF) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r RectF) Bottom() float64 {
	return r.Y + r.H
}

// CenterY returns the vertical midpoint.
func (r RectF) CenterY() float64 {
	return r.Y + r.H/2
}

// Intersects reports whether the two boxes overlap or touch.
func (r RectF) Intersects(o RectF) bool {
	if r.X > o.Right() || o.X > r.Right() {
		return false
	}
	if r.Y > o.Bottom() || o.Y > r.Bottom() {
		return false
	}
	return true
}

// Clamp restricts v to [lo, hi]. When lo > hi, lo wins.
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
