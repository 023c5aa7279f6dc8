package preview

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/world"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	return cat
}

func place(t *testing.T, m *world.Map, cat *catalog.Catalog, name string, c world.HexCoord) {
	t.Helper()
	id, err := cat.ID(name)
	if err != nil {
		t.Fatal(err)
	}
	m.AddTile(id, c.X, c.Y, c.Z)
}

func TestRenderEmptyMap(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, world.NewMap(), testCatalog(t), DefaultOptions())
	if !errors.Is(err, ErrEmptyMap) {
		t.Errorf("Render(empty) error = %v, want ErrEmptyMap", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Render(empty) wrote %d bytes", buf.Len())
	}
}

func TestRenderSingleTile(t *testing.T) {
	cat := testCatalog(t)
	m := world.NewMap()
	place(t, m, cat, "AF02_000", world.NewHexCoord(0, 0))

	var buf bytes.Buffer
	if err := Render(&buf, m, cat, DefaultOptions()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	// One cell: diameter 64 plus two 16px margins, plus one.
	if b := img.Bounds(); b.Dx() != 97 || b.Dy() != 97 {
		t.Errorf("image size = %dx%d, want 97x97", b.Dx(), b.Dy())
	}
}

func TestImageColors(t *testing.T) {
	cat := testCatalog(t)
	m := world.NewMap()
	place(t, m, cat, "AW01_000", world.NewHexCoord(0, 0))

	opts := DefaultOptions()
	opts.Labels = false
	img, err := Image(m, cat, opts)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}

	want := catalog.CategoryColor("AW")
	c := img.RGBAAt(48-16, 48)
	got := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	for i, w := range [3]float64{want.R, want.G, want.B} {
		if math.Abs(got[i]-w) > 0.06 {
			t.Errorf("tile pixel = %v, want %v", got, want)
			break
		}
	}

	corner := img.RGBAAt(0, 0)
	if corner.R > 0x30 || corner.G > 0x30 || corner.B > 0x30 {
		t.Errorf("corner pixel = %v, want background", corner)
	}
}

func TestImageGrowsWithMap(t *testing.T) {
	cat := testCatalog(t)
	m := world.NewMap()
	for _, c := range world.Ring(world.NewHexCoord(0, 0), 2) {
		place(t, m, cat, "AP01_000", c)
	}

	img, err := Image(m, cat, DefaultOptions())
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() <= 97 || b.Dy() <= 97 {
		t.Errorf("image size = %dx%d, want larger than one cell", b.Dx(), b.Dy())
	}
}
