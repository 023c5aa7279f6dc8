package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/hexton/internal/world"
)

// parallelEpsilon is the smallest |dir·normal| treated as a hit.
const parallelEpsilon = 1e-3

// NoIntersection is returned by IntersectPlane for a ray parallel to the
// plane.
var NoIntersection = mgl64.Vec3{-1, -1, -1}

// Ground plane of the board.
var (
	groundOrigin = mgl64.Vec3{0, 0, 0}
	groundNormal = mgl64.Vec3{0, 0, 1}
)

// Picker resolves cursor positions to cells. It reads the camera on every
// call and never mutates it.
type Picker struct {
	cam    *Camera
	coords *world.CoordinateSystem
}

// NewPicker returns a picker bound to a camera and coordinate system.
func NewPicker(cam *Camera, coords *world.CoordinateSystem) *Picker {
	return &Picker{cam: cam, coords: coords}
}

// Ray returns the world-space ray under pixel (px, py). The projection is
// orthographic, so every ray shares the view direction and only the
// origin depends on the pixel.
func (p *Picker) Ray(px, py float64) (origin, dir mgl64.Vec3) {
	c := p.cam
	w, h := float64(c.Width), float64(c.Height)

	ndc := mgl64.Vec4{2*px/w - 1, 1 - 2*py/h, 0, 1}
	eye := c.Projection.Inv().Mul4x1(ndc)
	eye = mgl64.Vec4{eye[0], eye[1], 0, 0}

	origin = c.Position.Add(c.View.Inv().Mul4x1(eye).Vec3())
	dir = c.Position.Normalize().Mul(-1)
	return origin, dir
}

// IntersectPlane intersects a ray with a plane. A ray within
// parallelEpsilon of parallel returns NoIntersection and false.
func IntersectPlane(origin, dir, planeOrigin, planeNormal mgl64.Vec3) (mgl64.Vec3, bool) {
	d := dir.Dot(planeNormal)
	if math.Abs(d) < parallelEpsilon {
		return NoIntersection, false
	}
	t := planeOrigin.Sub(origin).Dot(planeNormal) / d
	return origin.Add(dir.Mul(t)), true
}

// WorldAt returns the board-space point under pixel (px, py), with the
// camera look-at offset applied.
func (p *Picker) WorldAt(px, py float64) (mgl64.Vec3, bool) {
	origin, dir := p.Ray(px, py)
	hit, ok := IntersectPlane(origin, dir, groundOrigin, groundNormal)
	if !ok {
		return NoIntersection, false
	}
	return hit.Add(p.cam.LookAt), true
}

// HexAt returns the cell under pixel (px, py). Each cube component is
// rounded on its own, so the result can miss x+y+z = 0 near cell corners;
// check HexCoord.Valid before using it as a placement target.
func (p *Picker) HexAt(px, py float64) (world.HexCoord, bool) {
	pos, ok := p.WorldAt(px, py)
	if !ok {
		return world.HexCoord{}, false
	}
	return world.RoundComponents(p.coords.CartesianToHex(pos)), true
}

// VisibleRange returns the cells under the top-left and bottom-right
// viewport corners. Together they bound the template grid drawn behind
// the tiles.
func (p *Picker) VisibleRange() (topLeft, bottomRight world.HexCoord, ok bool) {
	topLeft, ok1 := p.HexAt(0, 0)
	bottomRight, ok2 := p.HexAt(float64(p.cam.Width), float64(p.cam.Height))
	return topLeft, bottomRight, ok1 && ok2
}
