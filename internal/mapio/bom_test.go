package mapio

import (
	"testing"

	"github.com/talgya/hexton/internal/world"
)

func TestBuildBOM(t *testing.T) {
	cat := testCatalog(t)
	m := world.NewMap()
	m.AddTile(mustID(t, cat, "AF02_000"), 0, 0, 0)
	m.AddTile(mustID(t, cat, "AF02_060"), 1, 0, -1)
	m.AddTile(mustID(t, cat, "AH03_000"), 0, 1, -1)

	got := BuildBOM(m, cat)
	want := []BOMEntry{{"AF02", 2}, {"AH03", 1}}
	if len(got) != len(want) {
		t.Fatalf("BuildBOM() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BuildBOM()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if TotalTiles(got) != 3 {
		t.Errorf("TotalTiles() = %d, want 3", TotalTiles(got))
	}
	if s := FormatBOM(got); s != "AF02\t2\nAH03\t1\n" {
		t.Errorf("FormatBOM() = %q", s)
	}
}

func TestBuildBOMSortsCodes(t *testing.T) {
	cat := testCatalog(t)
	m := world.NewMap()
	names := []string{"AW01_000", "AF01_000", "AS02_120", "AF01_300", "AP05_060"}
	for i, name := range names {
		c := world.NewHexCoord(i, -i)
		m.AddTile(mustID(t, cat, name), c.X, c.Y, c.Z)
	}

	got := BuildBOM(m, cat)
	codes := make([]string, len(got))
	for i, e := range got {
		codes[i] = e.Code
	}
	want := []string{"AF01", "AP05", "AS02", "AW01"}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("BuildBOM() codes = %v, want %v", codes, want)
		}
	}
}

func TestBuildBOMEmpty(t *testing.T) {
	if got := BuildBOM(world.NewMap(), testCatalog(t)); len(got) != 0 {
		t.Errorf("BuildBOM(empty) = %v, want none", got)
	}
}
