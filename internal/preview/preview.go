// Package preview rasterizes a map to a top-down PNG: one flat hexagon per
// tile in its category color, with optional tilecode labels.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/world"
)

// ErrEmptyMap is returned when there is nothing to draw.
var ErrEmptyMap = errors.New("map has no tiles")

// Options controls the rendering.
type Options struct {
	CellSize float64 // pixels per board unit
	Margin   int     // pixels around the outermost tiles
	Labels   bool    // draw tilecodes
}

// DefaultOptions returns the options the CLI and API use.
func DefaultOptions() Options {
	return Options{CellSize: 64, Margin: 16, Labels: true}
}

// Cells are drawn top down, so the 45 degree foreshortening of the board's
// y axis is undone.
var unproject = 1 / math.Cos(world.ProjectionAngle*math.Pi/180)

var (
	background = gg.RGB(0.12, 0.12, 0.14)
	labelColor = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
)

// Render writes the PNG preview of m to w.
func Render(w io.Writer, m *world.Map, cat *catalog.Catalog, opts Options) error {
	img, err := Image(m, cat, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// Image rasterizes m.
func Image(m *world.Map, cat *catalog.Catalog, opts Options) (*image.RGBA, error) {
	tiles := m.Tiles()
	if len(tiles) == 0 {
		return nil, ErrEmptyMap
	}
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultOptions().CellSize
	}

	cs := world.NewCoordinateSystem()
	radius := 0.5 * opts.CellSize

	type cell struct {
		x, y float64
		tile world.Tile
	}
	cells := make([]cell, len(tiles))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, t := range tiles {
		p := cs.CellCenter(t.Coord()).Add(cs.TileOffset(cat.Scale(t.TileID)))
		x := p[0] * opts.CellSize
		y := -p[1] * opts.CellSize * unproject
		cells[i] = cell{x: x, y: y, tile: t}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	pad := radius + float64(opts.Margin)
	width := int(math.Ceil(maxX-minX+2*pad)) + 1
	height := int(math.Ceil(maxY-minY+2*pad)) + 1
	offX, offY := pad-minX, pad-minY

	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(background)
	dc.SetLineWidth(1)

	for _, c := range cells {
		col := cat.Color(c.tile.TileID)
		cx, cy := c.x+offX, c.y+offY

		dc.DrawRegularPolygon(6, cx, cy, radius*0.96, 0)
		dc.SetRGB(col.R, col.G, col.B)
		if err := dc.FillPreserve(); err != nil {
			return nil, fmt.Errorf("fill tile: %w", err)
		}
		dc.SetRGB(0.05, 0.05, 0.05)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke tile: %w", err)
		}

		// Marker points along the tile's rotation.
		if n, err := catalog.ParseName(cat.Name(c.tile.TileID)); err == nil {
			a := float64(n.Angle) * math.Pi / 180
			dc.DrawCircle(cx+0.7*radius*math.Cos(a), cy-0.7*radius*math.Sin(a), radius*0.08)
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("fill marker: %w", err)
			}
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)

	if opts.Labels {
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(labelColor),
			Face: basicfont.Face7x13,
		}
		for _, c := range cells {
			code := cat.Name(c.tile.TileID)[:4]
			tw := d.MeasureString(code)
			d.Dot = fixed.Point26_6{
				X: fixed.Int26_6((c.x+offX)*64) - tw/2,
				Y: fixed.I(int(c.y+offY) + basicfont.Face7x13.Ascent/2),
			}
			d.DrawString(code)
		}
	}

	return out, nil
}
