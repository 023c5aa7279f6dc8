package world

import "testing"

func TestAddTileFirstWriteWins(t *testing.T) {
	m := NewMap()
	m.AddTile(4, 1, 0, -1)
	m.AddTile(9, 1, 0, -1)

	if got := m.TileID(1, 0); got != 4 {
		t.Errorf("TileID(1, 0) = %d, want 4", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestRemoveTile(t *testing.T) {
	m := NewMap()
	m.AddTile(2, 0, 1, -1)
	m.RemoveTile(0, 1)
	if got := m.TileID(0, 1); got != -1 {
		t.Errorf("TileID after remove = %d, want -1", got)
	}

	// Removing an empty cell is a no-op.
	m.RemoveTile(5, 5)
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestSubstituteTile(t *testing.T) {
	m := NewMap()
	m.AddTile(1, -2, 1, 1)
	m.SubstituteTile(7, -2, 1)

	tile, ok := m.Tile(-2, 1)
	if !ok {
		t.Fatal("Tile(-2, 1) missing after substitute")
	}
	if tile.TileID != 7 || tile.X != -2 || tile.Y != 1 || tile.Z != 1 {
		t.Errorf("Tile(-2, 1) = %+v, want id 7 at (-2,1,1)", tile)
	}
}

func TestSubstituteOnEmptyIsNoop(t *testing.T) {
	m := NewMap()
	m.AddTile(1, 0, 0, 0)
	m.SubstituteTile(3, 1, 1)

	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if got := m.TileID(1, 1); got != -1 {
		t.Errorf("TileID(1, 1) = %d, want -1", got)
	}
	if got := m.TileID(0, 0); got != 1 {
		t.Errorf("TileID(0, 0) = %d, want 1", got)
	}
}

func TestTileIDEmpty(t *testing.T) {
	if got := NewMap().TileID(0, 0); got != -1 {
		t.Errorf("TileID on empty map = %d, want -1", got)
	}
}

func TestTilesDescendingOrder(t *testing.T) {
	m := NewMap()
	cells := []HexCoord{
		NewHexCoord(0, 0),
		NewHexCoord(1, -1),
		NewHexCoord(-1, 2),
		NewHexCoord(1, 0),
		NewHexCoord(0, -1),
	}
	for i, c := range cells {
		m.AddTile(uint(i), c.X, c.Y, c.Z)
	}

	want := []Key{{1, 0}, {1, -1}, {0, 0}, {0, -1}, {-1, 2}}
	got := m.Tiles()
	if len(got) != len(want) {
		t.Fatalf("len(Tiles()) = %d, want %d", len(got), len(want))
	}
	for i, tile := range got {
		if (Key{tile.X, tile.Y}) != want[i] {
			t.Errorf("Tiles()[%d] = (%d,%d), want %v", i, tile.X, tile.Y, want[i])
		}
	}
}

func TestBounds(t *testing.T) {
	m := NewMap()
	if _, _, ok := m.Bounds(); ok {
		t.Fatal("Bounds() on empty map reported ok")
	}
	m.AddTile(0, -3, 2, 1)
	m.AddTile(0, 4, -1, -3)
	lo, hi, ok := m.Bounds()
	if !ok || lo != (Key{-3, -1}) || hi != (Key{4, 2}) {
		t.Errorf("Bounds() = %v, %v, %v", lo, hi, ok)
	}
}
