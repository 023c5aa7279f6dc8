package world

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Key addresses a cell in a Map. z is implied by the cube invariant.
type Key struct {
	X, Y int
}

// Tile is a placed tile. TileID is an index into the tile catalog.
type Tile struct {
	TileID uint `json:"tile_id"`
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Z      int  `json:"z"`
}

// Coord returns the cell the tile occupies.
func (t Tile) Coord() HexCoord {
	return HexCoord{X: t.X, Y: t.Y, Z: t.Z}
}

// Map is a sparse set of placed tiles, at most one per (x, y).
// It is not safe for concurrent use.
type Map struct {
	tiles map[Key]Tile
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{tiles: make(map[Key]Tile)}
}

// AddTile places a tile at (x, y) when that cell is empty. An occupied
// cell is left untouched; use SubstituteTile to overwrite.
func (m *Map) AddTile(tileID uint, x, y, z int) {
	key := Key{X: x, Y: y}
	if _, ok := m.tiles[key]; ok {
		return
	}
	m.tiles[key] = Tile{TileID: tileID, X: x, Y: y, Z: z}
}

// RemoveTile deletes the tile at (x, y), if any.
func (m *Map) RemoveTile(x, y int) {
	delete(m.tiles, Key{X: x, Y: y})
}

// SubstituteTile swaps the tile id at (x, y) in place. Coordinates are
// kept. Empty cells are left empty.
func (m *Map) SubstituteTile(tileID uint, x, y int) {
	key := Key{X: x, Y: y}
	t, ok := m.tiles[key]
	if !ok {
		return
	}
	t.TileID = tileID
	m.tiles[key] = t
}

// TileID returns the tile id at (x, y), or -1 for an empty cell.
func (m *Map) TileID(x, y int) int {
	t, ok := m.tiles[Key{X: x, Y: y}]
	if !ok {
		return -1
	}
	return int(t.TileID)
}

// Tile returns a copy of the tile at (x, y).
func (m *Map) Tile(x, y int) (Tile, bool) {
	t, ok := m.tiles[Key{X: x, Y: y}]
	return t, ok
}

// Len returns the number of placed tiles.
func (m *Map) Len() int {
	return len(m.tiles)
}

// Tiles returns copies of all tiles in descending (x, y) order, the order
// map files are written in.
func (m *Map) Tiles() []Tile {
	out := make([]Tile, 0, len(m.tiles))
	for _, t := range m.tiles {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Tile) int {
		if c := cmp.Compare(b.X, a.X); c != 0 {
			return c
		}
		return cmp.Compare(b.Y, a.Y)
	})
	return out
}

// Bounds returns the inclusive min and max of x and y over all tiles.
// ok is false for an empty map.
func (m *Map) Bounds() (minKey, maxKey Key, ok bool) {
	for k := range m.tiles {
		if !ok {
			minKey, maxKey, ok = k, k, true
			continue
		}
		minKey.X = min(minKey.X, k.X)
		minKey.Y = min(minKey.Y, k.Y)
		maxKey.X = max(maxKey.X, k.X)
		maxKey.Y = max(maxKey.Y, k.Y)
	}
	return minKey, maxKey, ok
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(tiles=%d)", m.Len())
}
