package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ProjectionAngle is the camera tilt, in degrees, the tile artwork was
// rendered at.
const ProjectionAngle = 45.0

// CoordinateSystem maps cube coordinates to board space and back using a
// fixed flat-top basis. It is immutable and safe to share.
type CoordinateSystem struct {
	hex2cart mgl64.Mat3
	cart2hex mgl64.Mat3
}

// NewCoordinateSystem builds the basis from the hex geometry factor
// t = sqrt(3) / (2*sqrt(2)).
//
//	| 1.50  0.75    0.75   |
//	| 0.00  0.50*t -0.50*t |
//	| 1.00  1.00    1.00   |
//
// The last row sums the cube components, so valid cells land on z = 0.
func NewCoordinateSystem() *CoordinateSystem {
	t := math.Sqrt(3.0) / (2.0 * math.Sqrt(2.0))
	base := mgl64.Mat3FromRows(
		mgl64.Vec3{1.50, 0.75, 0.75},
		mgl64.Vec3{0.00, 0.50 * t, -0.50 * t},
		mgl64.Vec3{1.00, 1.00, 1.00},
	)
	return &CoordinateSystem{
		hex2cart: base,
		cart2hex: base.Inv(),
	}
}

// HexToCartesian converts (possibly fractional) cube coordinates to board space.
func (cs *CoordinateSystem) HexToCartesian(c mgl64.Vec3) mgl64.Vec3 {
	return cs.hex2cart.Mul3x1(c)
}

// CartesianToHex converts a board-space point to fractional cube
// coordinates. No rounding is applied.
func (cs *CoordinateSystem) CartesianToHex(p mgl64.Vec3) mgl64.Vec3 {
	return cs.cart2hex.Mul3x1(p)
}

// CellCenter returns the board-space center of a cell.
func (cs *CoordinateSystem) CellCenter(c HexCoord) mgl64.Vec3 {
	return cs.HexToCartesian(c.Vec3())
}

// TileOffset is the vertical nudge applied to a tile drawn at the given
// scale so that its base sits on the cell.
func (cs *CoordinateSystem) TileOffset(scale float64) mgl64.Vec3 {
	offset := 0.5 * (1.0 - math.Cos(mgl64.DegToRad(ProjectionAngle)))
	return mgl64.Vec3{0, offset * scale, 0}
}
