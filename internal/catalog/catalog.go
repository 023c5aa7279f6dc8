// Package catalog holds the fixed set of tile definitions: names, atlas UV
// rectangles, category colors and draw scale.
// A Catalog is immutable once built and is shared by every consumer.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

//go:embed tiledata.json
var tileData []byte

// ErrNotFound is returned when a tile name is not in the catalog.
var ErrNotFound = errors.New("tile not found")

// UV is a rectangle into the tile atlas: u1, v1, u2, v2.
type UV [4]float64

// Catalog maps tile names to ids and back. The id of a tile is its
// position in the dataset.
type Catalog struct {
	names  []string
	ids    map[string]uint
	uvs    []UV
	colors []Color
	scales []float64
	codes  []string
}

// tileDef is one dataset entry. Pointers catch missing keys.
type tileDef struct {
	UVX1  *float64 `json:"uvx1"`
	UVY1  *float64 `json:"uvy1"`
	UVX2  *float64 `json:"uvx2"`
	UVY2  *float64 `json:"uvy2"`
	Scale *float64 `json:"scale,omitempty"`
}

// Default builds the catalog from the bundled tile dataset.
func Default() (*Catalog, error) {
	return New(bytes.NewReader(tileData))
}

// New parses a tile dataset: a JSON object keyed by tile name. Key order
// in the document fixes the tile ids.
func New(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read tile data: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("read tile data: expected object, got %v", tok)
	}

	c := &Catalog{ids: make(map[string]uint)}
	seenCode := make(map[string]bool)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read tile name: %w", err)
		}
		name, _ := tok.(string)

		n, err := ParseName(name)
		if err != nil {
			return nil, fmt.Errorf("tile data: %w", err)
		}
		if _, dup := c.ids[name]; dup {
			return nil, fmt.Errorf("tile data: duplicate tile %q", name)
		}

		var def tileDef
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("tile %s: %w", name, err)
		}
		if def.UVX1 == nil || def.UVY1 == nil || def.UVX2 == nil || def.UVY2 == nil {
			return nil, fmt.Errorf("tile %s: incomplete uv rectangle", name)
		}
		scale := 1.0
		if def.Scale != nil {
			scale = *def.Scale
		}

		c.ids[name] = uint(len(c.names))
		c.names = append(c.names, name)
		c.uvs = append(c.uvs, UV{*def.UVX1, *def.UVY1, *def.UVX2, *def.UVY2})
		c.colors = append(c.colors, CategoryColor(name[:2]))
		c.scales = append(c.scales, scale)
		if !seenCode[n.Code] {
			seenCode[n.Code] = true
			c.codes = append(c.codes, n.Code)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read tile data: %w", err)
	}
	if len(c.names) == 0 {
		return nil, errors.New("tile data: no tiles defined")
	}

	slog.Debug("tile catalog loaded", "tiles", len(c.names), "codes", len(c.codes))
	return c, nil
}

// ID returns the id of the named tile, or an error wrapping ErrNotFound.
func (c *Catalog) ID(name string) (uint, error) {
	id, ok := c.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return id, nil
}

// Name returns the full name of tile id. It panics on an id the catalog
// never issued.
func (c *Catalog) Name(id uint) string {
	c.mustHave(id)
	return c.names[id]
}

// UV returns the atlas rectangle of tile id.
func (c *Catalog) UV(id uint) UV {
	c.mustHave(id)
	return c.uvs[id]
}

// Color returns the category color of tile id.
func (c *Catalog) Color(id uint) Color {
	c.mustHave(id)
	return c.colors[id]
}

// Scale returns the draw scale of tile id (1 unless the dataset says otherwise).
func (c *Catalog) Scale(id uint) float64 {
	c.mustHave(id)
	return c.scales[id]
}

// Len returns the number of tiles.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns all tile names in id order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Codes returns the distinct tilecodes in dataset order.
func (c *Catalog) Codes() []string {
	return append([]string(nil), c.codes...)
}

func (c *Catalog) mustHave(id uint) {
	if id >= uint(len(c.names)) {
		panic(fmt.Sprintf("catalog: tile id %d out of range [0, %d)", id, len(c.names)))
	}
}
