package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera(640, 480)
	if c.Position != (mgl64.Vec3{0, 0, DefaultHeight}) {
		t.Errorf("Position = %v", c.Position)
	}
	if c.LookAt != (mgl64.Vec3{}) {
		t.Errorf("LookAt = %v", c.LookAt)
	}
	if c.Width != 640 || c.Height != 480 {
		t.Errorf("viewport = %dx%d", c.Width, c.Height)
	}
}

func TestZoomClamps(t *testing.T) {
	c := NewCamera(640, 480)

	c.Zoom(-10000)
	if c.Position[2] != MinHeight {
		t.Errorf("Zoom(in) height = %v, want %v", c.Position[2], MinHeight)
	}
	c.Zoom(10000)
	if c.Position[2] != MaxHeight {
		t.Errorf("Zoom(out) height = %v, want %v", c.Position[2], MaxHeight)
	}
	c.Zoom(-500)
	if c.Position[2] != MaxHeight-5 {
		t.Errorf("Zoom(-500) height = %v, want %v", c.Position[2], MaxHeight-5)
	}
}

func TestPanMovesLookAtWithCamera(t *testing.T) {
	c := NewCamera(640, 480)
	c.Pan(0.25, -0.5)
	c.Pan(0.25, 0)

	want := mgl64.Vec3{0.5, -0.5, 0}
	if !c.LookAt.ApproxEqual(want) {
		t.Errorf("LookAt = %v, want %v", c.LookAt, want)
	}
	if !c.Position.ApproxEqual(want.Add(mgl64.Vec3{0, 0, DefaultHeight})) {
		t.Errorf("Position = %v", c.Position)
	}

	c.Center()
	if c.LookAt != (mgl64.Vec3{}) || c.Position[2] != DefaultHeight {
		t.Errorf("Center() left camera at %v looking at %v", c.Position, c.LookAt)
	}
}
