// Package world provides the hex grid: cube coordinates, the fixed
// hex/Cartesian transform and the sparse tile map.
// Cells use cube coordinates (x, y, z) with x + y + z = 0; maps are keyed
// by (x, y) only.
package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HexCoord is a cell on the hex grid in cube coordinates.
// Valid cells satisfy X + Y + Z = 0. Picked cells are rounded per
// component and may not (see Valid).
type HexCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// NewHexCoord returns the valid cell at (x, y), deriving z = -(x+y).
func NewHexCoord(x, y int) HexCoord {
	return HexCoord{X: x, Y: y, Z: -(x + y)}
}

// Valid reports whether the cube invariant x + y + z = 0 holds.
func (h HexCoord) Valid() bool {
	return h.X+h.Y+h.Z == 0
}

// Key returns the map key of the cell.
func (h HexCoord) Key() Key {
	return Key{X: h.X, Y: h.Y}
}

// Vec3 returns the cell as a float vector, ready for CoordinateSystem.
func (h HexCoord) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(h.X), float64(h.Y), float64(h.Z)}
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", h.X, h.Y, h.Z)
}

// RoundComponents rounds each cube component independently to the nearest
// integer, halves away from zero. The result is not forced back onto the
// x + y + z = 0 plane.
func RoundComponents(v mgl64.Vec3) HexCoord {
	return HexCoord{
		X: int(math.Round(v[0])),
		Y: int(math.Round(v[1])),
		Z: int(math.Round(v[2])),
	}
}

// HexNeighborDirections are the six cube offsets to adjacent cells.
var HexNeighborDirections = [6]HexCoord{
	{X: 1, Y: -1, Z: 0},
	{X: 1, Y: 0, Z: -1},
	{X: 0, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 0},
	{X: -1, Y: 0, Z: 1},
	{X: 0, Y: -1, Z: 1},
}

// Neighbors returns the six adjacent cells.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{X: h.X + dir.X, Y: h.Y + dir.Y, Z: h.Z + dir.Z}
	}
	return result
}

// Distance returns the hex distance between two valid cells.
func Distance(a, b HexCoord) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	dz := abs(a.Z - b.Z)
	return max(dx, dy, dz)
}

// Ring returns every valid cell within radius of center, center included.
func Ring(center HexCoord, radius int) []HexCoord {
	var cells []HexCoord
	for x := -radius; x <= radius; x++ {
		lo := max(-radius, -x-radius)
		hi := min(radius, -x+radius)
		for y := lo; y <= hi; y++ {
			cells = append(cells, HexCoord{
				X: center.X + x,
				Y: center.Y + y,
				Z: center.Z - x - y,
			})
		}
	}
	return cells
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
