package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

func TestFrame(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = [3]float32{5, 5, 5}
	c.Frame(2)

	if c.Center != [3]float32{} {
		t.Errorf("center = %v, want origin", c.Center)
	}
	// The sphere's silhouette touches the edge of the field of view.
	half := float32(gomath.Asin(float64(2 / c.Distance)))
	if !math.ApproxEqual32(2*half, c.FovY, 1e-5) {
		t.Errorf("sphere subtends %v, want %v", 2*half, c.FovY)
	}
	if c.Near <= 0 || c.Far <= c.Distance+2 {
		t.Errorf("clip planes %v..%v do not contain the object", c.Near, c.Far)
	}

	c.Frame(0)
	if c.Distance <= 0 {
		t.Error("empty object should still get a positive distance")
	}
}

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Pitch, c.Yaw, c.Distance = 0, 0, 4

	if got := c.Position(); got != [3]float32{0, 0, 4} {
		t.Errorf("position = %v, want (0,0,4)", got)
	}
	if got := math.Length(c.ViewMatrix().TransformPoint(c.Center)); !math.ApproxEqual32(got, 4, 1e-5) {
		t.Errorf("center is %v from the eye, want 4", got)
	}
}

func TestViewProjectionKeepsCenterOnAxis(t *testing.T) {
	c := NewOrbitCamera()
	c.Frame(1)
	c.HandleDrag(120, -40)

	vp := c.ViewProjection(16.0 / 9.0)
	p := vp.TransformPoint(c.Center)
	if !math.ApproxEqual32(p[0], 0, 1e-4) || !math.ApproxEqual32(p[1], 0, 1e-4) {
		t.Errorf("center projects to %v, want screen center", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
}

func TestHandleZoom(t *testing.T) {
	c := NewOrbitCamera()
	c.Frame(1)
	before := c.Distance

	c.HandleZoom(1)
	if c.Distance >= before {
		t.Errorf("zoom in: distance %v, was %v", c.Distance, before)
	}

	c.HandleZoom(-1e6)
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want clamp at %v", c.Distance, c.MaxDistance)
	}
}
