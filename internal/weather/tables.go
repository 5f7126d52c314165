package weather

import "westmarch-almanac/internal/calendar"

// Option is one weighted weather outcome in a seasonal table.
type Option struct {
	Description string
	Weight      int
}

// seasonTables holds the six outcomes per season. Entry order matters: the
// weighted pick walks cumulative ranges in listed order.
var seasonTables = map[calendar.Season][]Option{
	calendar.Winter: {
		{"Clear, bitter cold", 20},
		{"Overcast and freezing", 25},
		{"Snow flurries", 25},
		{"Heavy snowfall", 15},
		{"Sleeting rain", 10},
		{"Howling windstorm", 5},
	},
	calendar.Spring: {
		{"Crisp and clear", 20},
		{"Mild, scattered clouds", 25},
		{"Light rain", 25},
		{"Steady rain", 15},
		{"Thunderstorm", 10},
		{"Foggy morning", 5},
	},
	calendar.Summer: {
		{"Bright and hot", 30},
		{"Warm with scattered clouds", 25},
		{"Humid haze", 15},
		{"Brief afternoon rain", 15},
		{"Thunderstorm", 10},
		{"Oppressive heatwave", 5},
	},
	calendar.Autumn: {
		{"Cool and clear", 25},
		{"Breezy, drifting clouds", 25},
		{"Light rain", 20},
		{"Chill drizzle", 15},
		{"Foggy", 10},
		{"Gusty windstorm", 5},
	},
}

// biasDelta adjusts the weight of every table entry whose description
// contains Needle (case-insensitive).
type biasDelta struct {
	Needle string
	Delta  int
}

// biomeBias is a location-keyword-triggered set of seasonal weight
// adjustments. Biases and their deltas are slices, not maps: the weight
// floor makes application order significant, so iteration order must be
// fixed.
type biomeBias struct {
	Key     string
	Seasons map[calendar.Season][]biasDelta
}

var biomeBiases = []biomeBias{
	{
		Key: "coast",
		Seasons: map[calendar.Season][]biasDelta{
			calendar.Winter: {
				{"Sleeting rain", +8},
				{"Snow flurries", -6},
				{"Heavy snowfall", -6},
				{"Howling windstorm", +4},
				{"Overcast and freezing", +2},
			},
			calendar.Spring: {
				{"Light rain", +6},
				{"Steady rain", +3},
				{"Foggy morning", +3},
				{"Crisp and clear", -2},
			},
			calendar.Summer: {
				{"Humid haze", +6},
				{"Brief afternoon rain", +3},
				{"Thunderstorm", +2},
				{"Bright and hot", -4},
			},
			calendar.Autumn: {
				{"Foggy", +6},
				{"Light rain", +3},
				{"Chill drizzle", +3},
				{"Cool and clear", -3},
				{"Gusty windstorm", +2},
			},
		},
	},
}

// Flavor pools. Sizes are deliberately unpinned from the determinism
// contract: the hit-check and wrong-pick seeds are independent, so editing
// either pool never flips a hit into a miss.
var truthFlavors = []string{
	"The air feels oddly still.",
	"Distant gulls cry over the water.",
	"The horizon looks sharp and clean.",
	"Salt hangs faintly in the air.",
	"Wind tugs at cloaks and canvas.",
}

var forecastFlavors = []string{
	"If the wind holds, expect it.",
	"Signs point that way, for now.",
	"The sky suggests it, but not decisively.",
	"Conditions could shift overnight.",
	"Local sailors swear by this read.",
	"Watch the horizon; it may change.",
}
