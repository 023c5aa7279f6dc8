// Package scene holds the orthographic board camera and resolves cursor
// positions to hex cells by casting a ray onto the ground plane.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera limits and defaults.
const (
	DefaultHeight = 10.0
	MinHeight     = 4.0
	MaxHeight     = 40.0
	WheelFactor   = 0.01
	nearPlane     = 0.01
	farPlane      = 1000.0
)

// Camera is an orthographic camera looking down at the board. Fields are
// plain state; call UpdateView or UpdateProjection after changing them
// directly.
type Camera struct {
	Projection mgl64.Mat4
	View       mgl64.Mat4
	Position   mgl64.Vec3
	LookAt     mgl64.Vec3
	Width      int
	Height     int
}

// up is the camera's up vector; screen-down is world +y.
var up = mgl64.Vec3{0, -1, 0}

// NewCamera returns a centered camera for a viewport of w by h pixels.
func NewCamera(w, h int) *Camera {
	c := &Camera{}
	c.Center()
	c.Resize(w, h)
	return c
}

// UpdateView rebuilds the view matrix from Position and LookAt.
func (c *Camera) UpdateView() {
	c.View = mgl64.LookAtV(c.Position, c.LookAt, up)
}

// UpdateProjection rebuilds the orthographic projection. The visible width
// equals the camera height; the height follows the viewport aspect ratio.
func (c *Camera) UpdateProjection() {
	ratio := 1.0
	if c.Width > 0 && c.Height > 0 {
		ratio = float64(c.Width) / float64(c.Height)
	}
	zoom := -c.Position[2]
	c.Projection = mgl64.Ortho(-zoom/2, zoom/2, -zoom/ratio/2, zoom/ratio/2, nearPlane, farPlane)
}

// Resize sets the viewport size.
func (c *Camera) Resize(w, h int) {
	c.Width, c.Height = w, h
	c.UpdateProjection()
}

// Zoom moves the camera along z by delta wheel units, within
// [MinHeight, MaxHeight].
func (c *Camera) Zoom(delta float64) {
	c.Position[2] = mgl64.Clamp(c.Position[2]+delta*WheelFactor, MinHeight, MaxHeight)
	c.UpdateView()
	c.UpdateProjection()
}

// Pan shifts camera and look-at point together by (dx, dy) board units.
func (c *Camera) Pan(dx, dy float64) {
	d := mgl64.Vec3{dx, dy, 0}
	c.Position = c.Position.Add(d)
	c.LookAt = c.LookAt.Add(d)
	c.UpdateView()
}

// Center puts the camera back above the origin at the default height.
func (c *Camera) Center() {
	c.Position = mgl64.Vec3{0, 0, DefaultHeight}
	c.LookAt = mgl64.Vec3{0, 0, 0}
	c.UpdateView()
	c.UpdateProjection()
}
