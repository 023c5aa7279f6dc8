package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/mapio"
	"github.com/talgya/hexton/internal/world"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	return NewSession(cat)
}

func nameAt(s *Session, x, y int) string {
	id := s.Map().TileID(x, y)
	if id < 0 {
		return ""
	}
	return s.Catalog().Name(uint(id))
}

func TestNewSessionStarterTile(t *testing.T) {
	s := newTestSession(t)
	if s.Map().Len() != 1 || nameAt(s, 0, 0) != StarterTile {
		t.Errorf("new map = %v with %q at origin, want only %s", s.Map(), nameAt(s, 0, 0), StarterTile)
	}
	if s.Active() != -1 {
		t.Errorf("Active() = %d, want -1", s.Active())
	}
}

func TestSessionIDsDiffer(t *testing.T) {
	a, b := newTestSession(t), newTestSession(t)
	if a.ID == b.ID {
		t.Errorf("two sessions share id %v", a.ID)
	}
}

func TestSetActive(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetActive("AH03"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if s.ActiveName() != "AH03_000" {
		t.Errorf("ActiveName() = %q, want AH03_000", s.ActiveName())
	}

	err := s.SetActive("ZZ99")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("SetActive(ZZ99) error = %v, want ErrNotFound", err)
	}
	if s.ActiveName() != "AH03_000" {
		t.Errorf("failed SetActive changed active tile to %q", s.ActiveName())
	}
}

func TestPlaceActive(t *testing.T) {
	s := newTestSession(t)

	s.Highlight(world.NewHexCoord(1, 0))
	if err := s.PlaceActive(); !errors.Is(err, ErrNoActiveTile) {
		t.Errorf("PlaceActive() without active error = %v, want ErrNoActiveTile", err)
	}

	if err := s.SetActive("AW01"); err != nil {
		t.Fatal(err)
	}
	if err := s.PlaceActive(); err != nil {
		t.Fatalf("PlaceActive() error = %v", err)
	}
	if got := nameAt(s, 1, 0); got != "AW01_000" {
		t.Errorf("tile at (1,0) = %q, want AW01_000", got)
	}
	tile, _ := s.Map().Tile(1, 0)
	if tile.Z != -1 {
		t.Errorf("placed tile z = %d, want -1", tile.Z)
	}

	// Occupied cells keep their tile.
	s.Highlight(world.NewHexCoord(0, 0))
	if err := s.PlaceActive(); err != nil {
		t.Fatal(err)
	}
	if got := nameAt(s, 0, 0); got != StarterTile {
		t.Errorf("tile at origin = %q, want %s", got, StarterTile)
	}
}

func TestEditsRejectInvalidCell(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetActive("AW01"); err != nil {
		t.Fatal(err)
	}
	bad := world.HexCoord{X: 1, Y: 1, Z: -1}
	s.Highlight(bad)

	edits := map[string]func() error{
		"place":      s.PlaceActive,
		"rotate":     s.Rotate,
		"substitute": s.SubstituteActive,
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			if err := edit(); !errors.Is(err, ErrInvalidCell) {
				t.Errorf("error = %v, want ErrInvalidCell", err)
			}
		})
	}
	if s.Map().Len() != 1 {
		t.Errorf("map has %d tiles after rejected edits, want 1", s.Map().Len())
	}
}

func TestRemoveIgnoresCubeInvariant(t *testing.T) {
	s := newTestSession(t)
	s.Highlight(world.HexCoord{X: 0, Y: 0, Z: 5})
	s.Remove()
	if s.Map().Len() != 0 {
		t.Errorf("Remove() left %d tiles", s.Map().Len())
	}
}

func TestRotateCyclesThroughSixAngles(t *testing.T) {
	s := newTestSession(t)
	s.Highlight(world.NewHexCoord(0, 0))

	want := []string{"AF02_060", "AF02_120", "AF02_180", "AF02_240", "AF02_300", "AF02_000"}
	for i, w := range want {
		if err := s.Rotate(); err != nil {
			t.Fatalf("Rotate() #%d error = %v", i+1, err)
		}
		if got := nameAt(s, 0, 0); got != w {
			t.Errorf("after %d rotations tile = %q, want %q", i+1, got, w)
		}
	}
}

func TestRotateMissingAngle(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetActive("ST00"); err != nil {
		t.Fatal(err)
	}
	s.Highlight(world.NewHexCoord(2, -1))
	if err := s.PlaceActive(); err != nil {
		t.Fatal(err)
	}

	err := s.Rotate()
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Rotate() error = %v, want ErrNotFound", err)
	}
	if got := nameAt(s, 2, -1); got != "ST00_000" {
		t.Errorf("tile after failed rotate = %q, want ST00_000", got)
	}
}

func TestRotateEmptyCell(t *testing.T) {
	s := newTestSession(t)
	s.Highlight(world.NewHexCoord(3, -3))
	if err := s.Rotate(); err != nil {
		t.Errorf("Rotate() on empty cell error = %v", err)
	}
	if s.Map().Len() != 1 {
		t.Errorf("Rotate() on empty cell changed the map")
	}
}

func TestSubstituteActive(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetActive("AM02"); err != nil {
		t.Fatal(err)
	}

	s.Highlight(world.NewHexCoord(0, 0))
	if err := s.SubstituteActive(); err != nil {
		t.Fatalf("SubstituteActive() error = %v", err)
	}
	if got := nameAt(s, 0, 0); got != "AM02_000" {
		t.Errorf("tile at origin = %q, want AM02_000", got)
	}

	s.Highlight(world.NewHexCoord(-1, 1))
	if err := s.SubstituteActive(); err != nil {
		t.Fatalf("SubstituteActive() on empty cell error = %v", err)
	}
	if s.Map().TileID(-1, 1) != -1 {
		t.Error("SubstituteActive() filled an empty cell")
	}
}

func TestLoadReplacesMap(t *testing.T) {
	s := newTestSession(t)
	before := s.Map()

	if err := s.Load(strings.NewReader("AH01  120  +002  -001  -001\n")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Map() == before {
		t.Error("Load() reused the previous map")
	}
	if s.Map().Len() != 1 || nameAt(s, 2, -1) != "AH01_120" {
		t.Errorf("loaded map = %v", s.Map())
	}

	bad := "AH01  120  +002  -001  -001\nAH01 120 x 0 0\n"
	if err := s.Load(strings.NewReader(bad)); !errors.Is(err, mapio.ErrMalformedRecord) {
		t.Fatalf("Load(bad) error = %v, want ErrMalformedRecord", err)
	}
	if nameAt(s, 2, -1) != "AH01_120" {
		t.Error("failed Load() replaced the map")
	}
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetActive("AP03"); err != nil {
		t.Fatal(err)
	}
	s.Highlight(world.NewHexCoord(-1, 0))
	if err := s.PlaceActive(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "board.map")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "AF02  000  +000  +000  +000\nAP03  000  -001  +000  +001\n"
	if string(data) != want {
		t.Errorf("saved file = %q, want %q", data, want)
	}

	other := newTestSession(t)
	if err := other.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if other.Map().Len() != 2 || nameAt(other, -1, 0) != "AP03_000" {
		t.Errorf("opened map = %v", other.Map())
	}

	bom := other.BOM()
	if len(bom) != 2 || bom[0].Code != "AF02" || bom[1].Code != "AP03" {
		t.Errorf("BOM() = %v", bom)
	}
}

func TestResetDropsPath(t *testing.T) {
	s := newTestSession(t)
	path := filepath.Join(t.TempDir(), "a.map")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if s.Path() != "" || s.Map().Len() != 1 {
		t.Errorf("Reset() left path %q and %d tiles", s.Path(), s.Map().Len())
	}
}
