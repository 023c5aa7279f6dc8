// Package mapio reads and writes the plain-text map format and builds the
// bill of materials.
//
// One tile per line, fields separated by runs of spaces or tabs:
//
//	AF02  060  +001  -001  +000
//
// tilecode, three digit angle, then x, y and z. There is no header.
package mapio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/talgya/hexton/internal/world"
)

// ErrMalformedRecord is returned for a line that does not hold exactly
// five fields or whose coordinates are not integers.
var ErrMalformedRecord = errors.New("malformed map record")

// Catalog resolves tile names to ids and back.
type Catalog interface {
	ID(name string) (uint, error)
	Name(id uint) string
}

// LoadFile reads a map file.
func LoadFile(path string, cat Catalog) (*world.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	m, err := Load(f, cat)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	slog.Debug("map loaded", "path", path, "tiles", m.Len())
	return m, nil
}

// Load parses a map. Any bad line aborts the load and no map is returned.
func Load(r io.Reader, cat Catalog) (*world.Map, error) {
	m := world.NewMap()
	sc := bufio.NewScanner(r)
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t'
		})
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: %w: want 5 fields, got %d", lineNo, ErrMalformedRecord, len(fields))
		}

		var xyz [3]int
		for i, s := range fields[2:] {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: coordinate %q", lineNo, ErrMalformedRecord, s)
			}
			xyz[i] = v
		}

		id, err := cat.ID(fields[0] + "_" + fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m.AddTile(id, xyz[0], xyz[1], xyz[2])
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d: %w: %v", lineNo+1, ErrMalformedRecord, err)
		}
		return nil, fmt.Errorf("read map: %w", err)
	}

	return m, nil
}

// SaveFile writes m to path. The file is written next to its destination
// and renamed into place, so a failed save leaves the old file intact. An
// existing file keeps its permissions; a new one gets 0644.
func SaveFile(path string, m *world.Map, cat Catalog) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hexton-*")
	if err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, m, cat); err != nil {
		tmp.Close()
		return fmt.Errorf("save map: %w", err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("save map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save map: %w", err)
	}

	slog.Debug("map saved", "path", path, "tiles", m.Len())
	return nil
}

// Save writes one fixed-width line per tile in m.Tiles() order.
func Save(w io.Writer, m *world.Map, cat Catalog) error {
	bw := bufio.NewWriter(w)
	for _, t := range m.Tiles() {
		code, angle, err := splitName(cat.Name(t.TileID))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%s  %03d  %+04d  %+04d  %+04d\n", code, angle, t.X, t.Y, t.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// splitName takes the tilecode from the first four characters of a tile
// name and the angle from the last three.
func splitName(name string) (string, int, error) {
	if len(name) < 7 {
		return "", 0, fmt.Errorf("tile name %q too short", name)
	}
	angle, err := strconv.Atoi(name[len(name)-3:])
	if err != nil {
		return "", 0, fmt.Errorf("tile name %q: bad angle", name)
	}
	return name[:4], angle, nil
}
