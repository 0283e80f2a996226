// Package camera provides the orbit camera used to inspect a loaded object.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center [3]float32

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Vertical angle, radians
	Yaw      float32 // Horizontal angle, radians

	// Lens
	FovY      float32 // Vertical field of view, radians
	Near, Far float32

	// Constraints
	MinPitch    float32
	MaxPitch    float32
	MinDistance float32
	MaxDistance float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera looking at the origin from +Z.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        3,
		Pitch:           0.3,
		FovY:            mgl32.DegToRad(45),
		Near:            0.01,
		Far:             100,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		MinDistance:     0.01,
		MaxDistance:     1000,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Frame centers the camera on the origin and backs off until a sphere of the
// given radius fills the vertical field of view.
func (c *OrbitCamera) Frame(radius float32) {
	if radius <= 0 {
		radius = 1
	}
	c.Center = [3]float32{}
	c.Distance = radius / float32(gomath.Sin(float64(c.FovY)/2))
	c.MinDistance = radius * 0.01
	c.MaxDistance = radius * 100
	c.Near = radius * 0.01
	c.Far = c.Distance + radius*100
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() [3]float32 {
	cp, sp := gomath.Cos(float64(c.Pitch)), gomath.Sin(float64(c.Pitch))
	cy, sy := gomath.Cos(float64(c.Yaw)), gomath.Sin(float64(c.Yaw))
	return [3]float32{
		c.Center[0] + c.Distance*float32(cp*sy),
		c.Center[1] + c.Distance*float32(sp),
		c.Center[2] + c.Distance*float32(cp*cy),
	}
}

// ViewMatrix returns the world-to-camera transform.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.Mat4(mgl32.LookAtV(mgl32.Vec3(c.Position()), mgl32.Vec3(c.Center), mgl32.Vec3{0, 1, 0}))
}

// ProjectionMatrix returns the perspective projection for the aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math.Mat4(mgl32.Perspective(c.FovY, aspect, c.Near, c.Far))
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection(aspect float32) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}
