// Package editor applies user edits to a map: placing the active tile on the
// highlighted cell, rotating, substituting and removing tiles, and swapping
// whole maps in from files or the library.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/mapio"
	"github.com/talgya/hexton/internal/world"
)

var (
	// ErrNoActiveTile is returned when an edit needs an active tile and
	// none is selected.
	ErrNoActiveTile = errors.New("no active tile")
	// ErrInvalidCell is returned for a highlighted cell off the cube
	// plane x+y+z = 0.
	ErrInvalidCell = errors.New("highlighted cell is not a valid hex")
)

// StarterTile is placed at the origin of every new map.
const StarterTile = "AF02_000"

// Session is one editing session over a single map. A Session is not safe
// for concurrent use.
type Session struct {
	ID uuid.UUID

	cat       *catalog.Catalog
	m         *world.Map
	highlight world.HexCoord
	active    int
	path      string
}

// NewSession starts a session on a new map holding only the starter tile.
func NewSession(cat *catalog.Catalog) *Session {
	s := &Session{
		ID:     uuid.New(),
		cat:    cat,
		active: -1,
	}
	s.Reset()
	return s
}

// Reset discards the current map and starts a new one.
func (s *Session) Reset() {
	m := world.NewMap()
	if id, err := s.cat.ID(StarterTile); err == nil {
		m.AddTile(id, 0, 0, 0)
	}
	s.m = m
	s.path = ""
}

// Map returns the current map. Open and Load replace it, so callers should
// not hold on to the pointer across those calls.
func (s *Session) Map() *world.Map { return s.m }

// Catalog returns the tile catalog the session resolves names with.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Path returns the file the map was last opened from or saved to.
func (s *Session) Path() string { return s.path }

// SetActive selects the unrotated tile of the given tilecode for placing.
// On error the active tile is left unchanged.
func (s *Session) SetActive(code string) error {
	id, err := s.cat.ID(code + "_000")
	if err != nil {
		return fmt.Errorf("select tile: %w", err)
	}
	s.active = int(id)
	return nil
}

// Active returns the active tile id, or -1 when none is selected.
func (s *Session) Active() int { return s.active }

// ActiveName returns the active tile name, or "" when none is selected.
func (s *Session) ActiveName() string {
	if s.active < 0 {
		return ""
	}
	return s.cat.Name(uint(s.active))
}

// Highlight sets the cell subsequent edits act on.
func (s *Session) Highlight(c world.HexCoord) { s.highlight = c }

// Highlighted returns the cell edits act on.
func (s *Session) Highlighted() world.HexCoord { return s.highlight }

// PlaceActive puts the active tile on the highlighted cell. An occupied
// cell keeps its tile.
func (s *Session) PlaceActive() error {
	c := s.highlight
	if !c.Valid() {
		return fmt.Errorf("place at %v: %w", c, ErrInvalidCell)
	}
	if s.active < 0 {
		return fmt.Errorf("place at %v: %w", c, ErrNoActiveTile)
	}
	s.m.AddTile(uint(s.active), c.X, c.Y, c.Z)
	slog.Debug("tile placed", "cell", c.String(), "tile", s.ActiveName())
	return nil
}

// Remove clears the highlighted cell. Any (x, y) is accepted.
func (s *Session) Remove() {
	c := s.highlight
	s.m.RemoveTile(c.X, c.Y)
	slog.Debug("tile removed", "cell", c.String())
}

// Rotate turns the tile on the highlighted cell by 60 degrees. An empty cell
// is left alone. If the catalog has no tile for the new angle the map is
// unchanged and the catalog's not-found error is returned.
func (s *Session) Rotate() error {
	c := s.highlight
	if !c.Valid() {
		return fmt.Errorf("rotate at %v: %w", c, ErrInvalidCell)
	}
	cur := s.m.TileID(c.X, c.Y)
	if cur < 0 {
		return nil
	}
	name, err := catalog.Rotate(s.cat.Name(uint(cur)), 1)
	if err != nil {
		return fmt.Errorf("rotate at %v: %w", c, err)
	}
	id, err := s.cat.ID(name)
	if err != nil {
		return fmt.Errorf("rotate at %v: %w", c, err)
	}
	s.m.SubstituteTile(id, c.X, c.Y)
	slog.Debug("tile rotated", "cell", c.String(), "tile", name)
	return nil
}

// SubstituteActive replaces the tile on the highlighted cell with the
// active tile. An empty cell stays empty.
func (s *Session) SubstituteActive() error {
	c := s.highlight
	if !c.Valid() {
		return fmt.Errorf("substitute at %v: %w", c, ErrInvalidCell)
	}
	if s.m.TileID(c.X, c.Y) < 0 {
		return nil
	}
	if s.active < 0 {
		return fmt.Errorf("substitute at %v: %w", c, ErrNoActiveTile)
	}
	s.m.SubstituteTile(uint(s.active), c.X, c.Y)
	slog.Debug("tile substituted", "cell", c.String(), "tile", s.ActiveName())
	return nil
}

// Open replaces the map with the one stored at path. On error the current
// map is kept.
func (s *Session) Open(path string) error {
	m, err := mapio.LoadFile(path, s.cat)
	if err != nil {
		return err
	}
	s.Replace(m)
	s.path = path
	slog.Info("map opened", "path", path, "tiles", m.Len())
	return nil
}

// Load replaces the map with one read from r. On error the current map is
// kept.
func (s *Session) Load(r io.Reader) error {
	m, err := mapio.Load(r, s.cat)
	if err != nil {
		return err
	}
	s.Replace(m)
	return nil
}

// Replace swaps in m as the session's map.
func (s *Session) Replace(m *world.Map) {
	s.m = m
}

// Save writes the map to path and remembers it.
func (s *Session) Save(path string) error {
	if err := mapio.SaveFile(path, s.m, s.cat); err != nil {
		return err
	}
	s.path = path
	slog.Info("map saved", "path", path, "tiles", s.m.Len())
	return nil
}

// Export writes the map in file format to w.
func (s *Session) Export(w io.Writer) error {
	return mapio.Save(w, s.m, s.cat)
}

// BOM returns the bill of materials of the current map.
func (s *Session) BOM() []mapio.BOMEntry {
	return mapio.BuildBOM(s.m, s.cat)
}
