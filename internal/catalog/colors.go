package catalog

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// White is used for tiles outside the known categories.
var White = Color{1, 1, 1}

type category struct {
	name  string
	color Color
}

// categories is keyed by the first two characters of a tile name.
var categories = map[string]category{
	"AS": {"settlements", Color{0.477, 0.352, 0.262}},
	"AF": {"forts", Color{0.694, 0.294, 0.400}},
	"AH": {"hills", Color{0.494, 0.537, 0.271}},
	"AL": {"legendary", Color{0.773, 0.624, 0.000}},
	"AR": {"roads", Color{0.471, 0.369, 0.231}},
	"AM": {"mountains", Color{0.471, 0.369, 0.545}},
	"AP": {"plains", Color{0.251, 0.475, 0.259}},
	"AV": {"rivers", Color{0.000, 0.447, 0.733}},
	"AW": {"woodlands", Color{0.114, 0.306, 0.090}},
}

// CategoryColor returns the color of a two letter category prefix, or
// White for an unknown prefix.
func CategoryColor(prefix string) Color {
	if c, ok := categories[prefix]; ok {
		return c.color
	}
	return White
}

// CategoryName returns a human-readable name for a category prefix.
func CategoryName(prefix string) string {
	if c, ok := categories[prefix]; ok {
		return c.name
	}
	return "other"
}
