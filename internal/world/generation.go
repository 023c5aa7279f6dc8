// Procedural board fill using layered simplex noise.
// Elevation and moisture pick a tile category per cell; a seeded RNG picks
// the variant and the rotation.
package world

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/exp/slices"
)

// TileResolver is the slice of the tile catalog generation needs.
type TileResolver interface {
	ID(name string) (uint, error)
	Codes() []string
}

// GenConfig holds board generation parameters.
type GenConfig struct {
	Radius        int     // Hex radius of the filled area around the origin
	Seed          int64   // Random seed (0 = random)
	HillLvl       float64 // Elevation threshold for hills (0.0–1.0)
	MountainLvl   float64 // Elevation threshold for mountains (0.0–1.0)
	SettlementPct float64 // Chance of a settlement or fort on open ground
	SettlementGap int     // Minimum hex distance between settlements and forts
	RiverRain     float64 // Rain level at which a cell continues an adjacent river
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:        6,
		Seed:          0,
		HillLvl:       0.60,
		MountainLvl:   0.75,
		SettlementPct: 0.05,
		SettlementGap: 3,
		RiverRain:     0.60,
	}
}

// Category prefixes used by generation.
const (
	catPlains     = "AP"
	catWoodlands  = "AW"
	catHills      = "AH"
	catMountains  = "AM"
	catRivers     = "AV"
	catSettlement = "AS"
	catFort       = "AF"
)

// Generate fills every cell within cfg.Radius of the origin with a tile
// chosen from res. Cells whose category has no tiles fall back to plains;
// a resolver with no plains tiles is an error.
func Generate(cfg GenConfig, res TileResolver) (*Map, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	byCategory := make(map[string][]string)
	for _, code := range res.Codes() {
		if len(code) < 2 {
			continue
		}
		byCategory[code[:2]] = append(byCategory[code[:2]], code)
	}
	for _, codes := range byCategory {
		slices.Sort(codes)
	}
	if len(byCategory[catPlains]) == 0 {
		return nil, errors.New("generate: no plains tiles available")
	}

	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	rng := rand.New(rand.NewSource(seed + 100))

	cs := NewCoordinateSystem()
	m := NewMap()
	placed := make(map[Key]string)
	var settlements []HexCoord

	for _, cell := range Ring(NewHexCoord(0, 0), cfg.Radius) {
		p := cs.CellCenter(cell)
		elev := octaveNoise(elevNoise, p[0], p[1], 4, 0.15, 0.5)
		rain := octaveNoise(rainNoise, p[0], p[1], 3, 0.12, 0.5)

		category := deriveCategory(elev, rain, cfg)
		if (category == catPlains || category == catWoodlands) &&
			rain > cfg.RiverRain && nearRiver(cell, placed) {
			category = catRivers
		}
		if category == catPlains && rng.Float64() < cfg.SettlementPct &&
			spaced(cell, settlements, cfg.SettlementGap) {
			category = catSettlement
			if rng.Float64() < 0.3 {
				category = catFort
			}
			settlements = append(settlements, cell)
		}
		placed[cell.Key()] = category

		codes := byCategory[category]
		if len(codes) == 0 {
			codes = byCategory[catPlains]
		}
		code := codes[rng.Intn(len(codes))]
		angle := rng.Intn(6) * 60

		id, err := res.ID(fmt.Sprintf("%s_%03d", code, angle))
		if err != nil {
			// Not every tile ships in every rotation.
			if id, err = res.ID(code + "_000"); err != nil {
				return nil, fmt.Errorf("generate %s: %w", cell, err)
			}
		}
		m.AddTile(id, cell.X, cell.Y, cell.Z)
	}

	return m, nil
}

// nearRiver reports whether any neighbor of cell already holds a river.
func nearRiver(cell HexCoord, placed map[Key]string) bool {
	for _, n := range cell.Neighbors() {
		if placed[n.Key()] == catRivers {
			return true
		}
	}
	return false
}

// spaced reports whether cell is at least gap cells from every settlement.
func spaced(cell HexCoord, settlements []HexCoord, gap int) bool {
	for _, s := range settlements {
		if Distance(cell, s) < gap {
			return false
		}
	}
	return true
}

// deriveCategory picks a tile category from environmental parameters.
func deriveCategory(elev, rain float64, cfg GenConfig) string {
	if elev > cfg.MountainLvl {
		return catMountains
	}
	if elev > cfg.HillLvl {
		return catHills
	}
	if rain > 0.70 && elev < 0.35 {
		return catRivers
	}
	if rain > 0.55 {
		return catWoodlands
	}
	return catPlains
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// CategoryCounts returns how many tiles of each two-letter category a map
// holds, given a function resolving tile ids to names.
func CategoryCounts(m *Map, name func(uint) string) map[string]int {
	counts := make(map[string]int)
	for _, t := range m.tiles {
		n := name(t.TileID)
		counts[strings.ToUpper(n[:min(2, len(n))])]++
	}
	return counts
}
