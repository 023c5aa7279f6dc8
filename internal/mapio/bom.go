package mapio

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/talgya/hexton/internal/world"
)

// BOMEntry is one line of the bill of materials.
type BOMEntry struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// BuildBOM counts placed tiles per tilecode, ignoring rotation. Entries
// are sorted by tilecode.
func BuildBOM(m *world.Map, cat Catalog) []BOMEntry {
	counts := make(map[string]int)
	for _, t := range m.Tiles() {
		name := cat.Name(t.TileID)
		counts[name[:min(4, len(name))]]++
	}

	entries := make([]BOMEntry, 0, len(counts))
	for code, n := range counts {
		entries = append(entries, BOMEntry{Code: code, Count: n})
	}
	slices.SortFunc(entries, func(a, b BOMEntry) int {
		return strings.Compare(a.Code, b.Code)
	})
	return entries
}

// TotalTiles sums the counts of a bill of materials.
func TotalTiles(entries []BOMEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	return total
}

// WriteBOM writes tab-separated "code<TAB>count" lines.
func WriteBOM(w io.Writer, entries []BOMEntry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", e.Code, e.Count); err != nil {
			return err
		}
	}
	return nil
}

// FormatBOM renders entries as WriteBOM does.
func FormatBOM(entries []BOMEntry) string {
	var sb strings.Builder
	WriteBOM(&sb, entries)
	return sb.String()
}
