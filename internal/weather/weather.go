// Package weather generates deterministic daily weather and forecasts for
// the Westmarch calendar. Every output is a pure function of
// (guild, date, location): no state, no clock, no true randomness.
package weather

import (
	"strings"

	"westmarch-almanac/internal/calendar"
)

// normalizeLocation canonicalizes the configured location string before it
// enters a seed tuple or a bias match.
func normalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// applyBiomeBiases returns the season table with every matching biome's
// weight deltas applied. Biomes match as substrings of the lowercased
// location; deltas match as case-insensitive substrings of the outcome
// description. Adjusted weights never drop below 1, so every outcome stays
// reachable. Multiple matching biomes stack, each pass reading the
// previous pass's weights.
func applyBiomeBiases(options []Option, season calendar.Season, location string) []Option {
	loc := normalizeLocation(location)

	adjusted := make([]Option, len(options))
	copy(adjusted, options)

	for _, biome := range biomeBiases {
		if !strings.Contains(loc, biome.Key) {
			continue
		}
		adjusted = applyBias(adjusted, biome.Seasons[season])
	}

	return adjusted
}

// applyBias applies one biome's deltas in listed order, clamping after each
// step. The per-step clamp means delta order is part of the contract.
func applyBias(options []Option, deltas []biasDelta) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		w := o.Weight
		for _, b := range deltas {
			if strings.Contains(strings.ToLower(o.Description), strings.ToLower(b.Needle)) {
				w += b.Delta
				if w < 1 {
					w = 1
				}
			}
		}
		out[i] = Option{Description: o.Description, Weight: w}
	}
	return out
}

// TrueWeather returns the weather that will actually be reported for the
// given guild, date and location: a weighted pick from the season table
// (after biome bias) plus a flavor sentence. Identical inputs yield the
// identical string across calls and process restarts.
func TrueWeather(guildID string, d calendar.Date, location string) string {
	season := calendar.SeasonForMonth(d.Month)
	options := applyBiomeBiases(seasonTables[season], season, location)

	rng := NewRand("TRUTH", guildID, d.Key(), normalizeLocation(location))

	pick := weightedPick(rng, options)
	flavor := truthFlavors[rng.Intn(len(truthFlavors))]
	return pick.Description + ". " + flavor
}

// baseDescription strips the flavor sentence, returning the lowercased
// portion before the first period.
func baseDescription(s string) string {
	base, _, _ := strings.Cut(s, ".")
	return strings.ToLower(strings.TrimSpace(base))
}
