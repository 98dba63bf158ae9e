package core

import "math"

// Vec2 is a 2D point or vector in court units.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Unit returns v scaled to length 1. The zero vector stays zero.
func (v Vec2) Unit() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Axis selects a coordinate of a Vec2.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (v Vec2) get(a Axis) float64 {
	if a == AxisX {
		return v.X
	}
	return v.Y
}

func (v Vec2) with(a Axis, val float64) Vec2 {
	if a == AxisX {
		v.X = val
	} else {
		v.Y = val
	}
	return v
}

// MaxBounceAngle is the steepest deflection off a paddle edge (60 degrees).
const MaxBounceAngle = math.Pi / 3

// Advance integrates a position linearly over dt.
func Advance(pos, vel Vec2, dt float64) Vec2 {
	return pos.Add(vel.Scale(dt))
}

// ReflectOffWall bounces a body of the given extent between the walls lo and hi
// on one axis. When the body's box crosses a wall, the velocity component on
// that axis is negated and the position is clamped back inside [lo, hi-extent]
// in the same step, so the body never sinks into the wall.
func ReflectOffWall(pos, vel Vec2, extent float64, axis Axis, lo, hi float64) (Vec2, Vec2, bool) {
	p := pos.get(axis)
	v := vel.get(axis)
	switch {
	case p <= lo:
		pos = pos.with(axis, lo)
		vel = vel.with(axis, math.Abs(v))
		return pos, vel, true
	case p+extent >= hi:
		pos = pos.with(axis, hi-extent)
		vel = vel.with(axis, -math.Abs(v))
		return pos, vel, true
	}
	return pos, vel, false
}

// DeflectOffPaddle returns the ball velocity after it strikes a paddle.
//
// offset is the distance from the paddle centre to the ball centre along the
// paddle. It is normalised by half the paddle length into [-1, 1] and mapped to
// an angle of up to ±60 degrees. dirSign is the horizontal direction the ball
// leaves in (+1 away from the left paddle, -1 away from the right one).
// The result always has magnitude speed.
func DeflectOffPaddle(offset, paddleLength, dirSign, speed float64) Vec2 {
	n := 0.0
	if paddleLength > 0 {
		n = Clamp(offset/(paddleLength/2), -1, 1)
	}
	angle := n * MaxBounceAngle
	dir := Vec2{X: dirSign * math.Cos(angle), Y: math.Sin(angle)}
	return dir.Unit().Scale(speed)
}

// RallySpeed is the ball speed after rally paddle contacts.
func RallySpeed(base, boost float64, rally int) float64 {
	return base + boost*float64(rally)
}

// PlaceFlush returns the ball x that rests it one unit clear of the paddle face
// it just struck. dirSign is the outgoing horizontal direction.
func PlaceFlush(paddle RectF, ballSize, dirSign float64) float64 {
	if dirSign > 0 {
		return paddle.Right() + 1
	}
	return paddle.X - ballSize - 1
}
