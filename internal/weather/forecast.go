package weather

import (
	"strings"

	"westmarch-almanac/internal/calendar"
)

// Accuracy returns the probability that a forecast made leadDays ahead
// matches the truth: 0.92 today, dropping 0.06 per day of lead, floored at
// 0.55.
func Accuracy(leadDays int) float64 {
	acc := 0.92 - 0.06*float64(leadDays)
	if acc < 0.55 {
		return 0.55
	}
	if acc > 0.92 {
		return 0.92
	}
	return acc
}

// Confidence labels how much to trust a forecast at a given lead time.
type Confidence int

const (
	Likely Confidence = iota + 1
	Possible
	Uncertain
)

func (c Confidence) String() string {
	switch c {
	case Likely:
		return "Likely"
	case Possible:
		return "Possible"
	case Uncertain:
		return "Uncertain"
	default:
		return "Unknown"
	}
}

// ConfidenceFor maps lead time to a confidence label via Accuracy.
func ConfidenceFor(leadDays int) Confidence {
	acc := Accuracy(leadDays)
	switch {
	case acc >= 0.80:
		return Likely
	case acc >= 0.65:
		return Possible
	default:
		return Uncertain
	}
}

// Forecast predicts the weather for target as seen from today. The
// prediction agrees with TrueWeather(guildID, target, location) with
// probability Accuracy(leadDays); otherwise it deterministically reports
// one of the other outcomes for that season.
//
// The hit decision and the wrong pick use independent seeds so that edits
// to the alternate-outcome pool can never flip whether a given
// (guild, today, target) combination is a hit.
func Forecast(guildID string, today, target calendar.Date, leadDays int, location string) string {
	actual := TrueWeather(guildID, target, location)

	rng := NewRand("FORECAST_HITCHECK", guildID, today.Key(), target.Key(), normalizeLocation(location))
	if rng.Float64() <= Accuracy(leadDays) {
		return actual
	}

	return pickAlternate(guildID, today, target, location, actual)
}

// pickAlternate selects a deliberately wrong outcome: the season table with
// bias applied, minus the entry matching the true base description. If
// nothing else remains the truth is returned unchanged; a one-outcome table
// cannot be wrong about itself.
func pickAlternate(guildID string, today, target calendar.Date, location, actual string) string {
	season := calendar.SeasonForMonth(target.Month)
	options := applyBiomeBiases(seasonTables[season], season, location)

	actualBase := baseDescription(actual)
	filtered := options[:0:0]
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o.Description)) != actualBase {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return actual
	}

	rng := NewRand("FORECAST_WRONG", guildID, today.Key(), target.Key(), normalizeLocation(location))

	pick := weightedPick(rng, filtered)
	flavor := forecastFlavors[rng.Intn(len(forecastFlavors))]
	return pick.Description + ". " + flavor
}
