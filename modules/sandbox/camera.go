package sandbox

import (
	"math"

	"github.com/aukilabs/kubb/messages"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Degrees of rotation per pixel of mouse motion.
	lookSensitivity = -0.08

	// Units travelled per second at full input.
	moveSpeed = 10.0

	maxPitch     = 89.0
	maxDeltaTime = 1.0
)

var (
	cameraStart  = mgl64.Vec3{-4, 10, -5}
	cameraTarget = mgl64.Vec3{}
	worldUp      = mgl64.Vec3{0, 1, 0}
)

// Camera is a free-fly camera. Yaw and pitch are in radians. A zero yaw and
// pitch looks toward -Z.
type Camera struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
}

// NewCamera returns a camera at the starting position looking at the world
// origin.
func NewCamera() Camera {
	c := Camera{Position: cameraStart}
	c.LookAt(cameraTarget)
	return c
}

// LookAt rotates the camera toward the target. Nothing happens when the
// target is the camera position.
func (c *Camera) LookAt(target mgl64.Vec3) {
	dir := target.Sub(c.Position)
	l := dir.Len()
	if l == 0 {
		return
	}

	c.Yaw = math.Atan2(-dir.X(), -dir.Z())
	c.Pitch = mgl64.Clamp(math.Asin(dir.Y()/l), -mgl64.DegToRad(maxPitch), mgl64.DegToRad(maxPitch))
}

// Forward returns the unit direction the camera looks at.
func (c Camera) Forward() mgl64.Vec3 {
	sy, cy := math.Sincos(c.Yaw)
	sp, cp := math.Sincos(c.Pitch)
	return mgl64.Vec3{-sy * cp, sp, -cy * cp}
}

// Right returns the horizontal unit direction on the right of the camera.
func (c Camera) Right() mgl64.Vec3 {
	sy, cy := math.Sincos(c.Yaw)
	return mgl64.Vec3{cy, 0, -sy}
}

// Look rotates the camera by the given mouse motion, in pixels.
func (c *Camera) Look(motion mgl64.Vec2) {
	if motion.X() == 0 && motion.Y() == 0 {
		return
	}

	delta := motion.Mul(mgl64.DegToRad(lookSensitivity))
	c.Yaw += delta.X()
	c.Pitch = mgl64.Clamp(c.Pitch+delta.Y(), -mgl64.DegToRad(maxPitch), mgl64.DegToRad(maxPitch))
}

// Move moves the camera along its forward and right directions and the world
// up axis. The combined input is clamped to a length of 1.
func (c *Camera) Move(input mgl64.Vec3, dt float64) {
	dt = mgl64.Clamp(dt, 0, maxDeltaTime)

	move := c.Forward().Mul(input[0]).
		Add(c.Right().Mul(input[1])).
		Add(worldUp.Mul(input[2]))
	if move.Len() > 1 {
		move = move.Normalize()
	}

	c.Position = c.Position.Add(move.Mul(dt * moveSpeed))
}

// Apply applies a camera move message. Non finite inputs are ignored.
func (c *Camera) Apply(m messages.CameraMove) {
	if isFiniteVec(m.Look[:]) {
		c.Look(m.Look)
	}
	if isFiniteVec(m.Move[:]) && isFiniteVec([]float64{m.DeltaTime}) {
		c.Move(m.Move, m.DeltaTime)
	}
}

func (c Camera) ToMessage() messages.CameraState {
	return messages.CameraState{
		Position: c.Position,
		Forward:  c.Forward(),
		Yaw:      c.Yaw,
		Pitch:    c.Pitch,
	}
}

func isFiniteVec(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
