package models

import (
	"time"

	"github.com/lib/pq"
)

// Default calendar display names. Hosts can override per guild; lists of
// the wrong length fall back to positional labels at render time.
var DefaultMonthNames = []string{
	"Icehold", "Frostwane", "Rainrich", "Lightwake", "Sunswell", "Greenflux",
	"Sunfade", "Stormreign", "Amberfell", "Auburncrown", "Icefleet", "Frostcrest",
}

var DefaultWeekdayNames = []string{
	"Solies", "Halos", "Incedis", "Talis", "Inanos",
	"Penumus", "Oris", "Neptis", "Anaemis", "Extos",
}

// GuildSettings is the per-guild almanac configuration. Everything the
// core computes derives from EpochRealDate/EpochDayNumber plus Location;
// the rest is display data.
type GuildSettings struct {
	GuildID           string         `json:"guild_id" db:"guild_id"`
	EpochRealDate     time.Time      `json:"epoch_real_date" db:"epoch_real_date"`
	EpochDayNumber    int            `json:"epoch_day_number" db:"epoch_day_number"`
	Location          string         `json:"location" db:"location"`
	ShowWeekday       bool           `json:"show_weekday" db:"show_weekday"`
	MonthNames        pq.StringArray `json:"month_names" db:"month_names"`
	WeekdayNames      pq.StringArray `json:"weekday_names" db:"weekday_names"`
	AutopostChannelID *string        `json:"autopost_channel_id,omitempty" db:"autopost_channel_id"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// NewGuildSettings returns settings matching the stock campaign defaults:
// real 2026-01-26 maps to in-game day 1 on the coast.
func NewGuildSettings(guildID string) *GuildSettings {
	now := time.Now().UTC()
	return &GuildSettings{
		GuildID:        guildID,
		EpochRealDate:  time.Date(2026, time.January, 26, 0, 0, 0, 0, time.UTC),
		EpochDayNumber: 1,
		Location:       "Coast",
		ShowWeekday:    true,
		MonthNames:     pq.StringArray(DefaultMonthNames),
		WeekdayNames:   pq.StringArray(DefaultWeekdayNames),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks the fields the calendar core would otherwise reject.
func (s *GuildSettings) Validate() error {
	if s.GuildID == "" {
		return &ValidationError{Field: "guild_id", Message: "guild_id is required"}
	}
	if s.EpochDayNumber < 1 {
		return &ValidationError{Field: "epoch_day_number", Message: "epoch_day_number must be >= 1"}
	}
	if len(s.MonthNames) != 0 && len(s.MonthNames) != 12 {
		return &ValidationError{Field: "month_names", Message: "month_names must have exactly 12 entries"}
	}
	if len(s.WeekdayNames) != 0 && len(s.WeekdayNames) != 10 {
		return &ValidationError{Field: "weekday_names", Message: "weekday_names must have exactly 10 entries"}
	}
	return nil
}

// DateCard is a rendered calendar date with display names resolved.
type DateCard struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	DayOfYear   int    `json:"day_of_year"`
	Week        int    `json:"week"`
	Weekday     int    `json:"weekday"`
	MonthName   string `json:"month_name"`
	WeekdayName string `json:"weekday_name,omitempty"`
	Season      string `json:"season"`
	Holiday     string `json:"holiday,omitempty"`
}

// WeatherCard is a weather reading for one in-game day.
type WeatherCard struct {
	Date     DateCard `json:"date"`
	Location string   `json:"location,omitempty"`
	Weather  string   `json:"weather"`
}

// ForecastLine is one entry of a multi-day forecast.
type ForecastLine struct {
	Date       DateCard `json:"date"`
	LeadDays   int      `json:"lead_days"`
	Confidence string   `json:"confidence"`
	Predicted  string   `json:"predicted"`
}

// DailyReport is the once-a-day almanac post for a guild.
type DailyReport struct {
	GuildID  string         `json:"guild_id"`
	RealDate string         `json:"real_date"`
	Date     DateCard       `json:"date"`
	Weather  string         `json:"weather"`
	Location string         `json:"location,omitempty"`
	Forecast []ForecastLine `json:"forecast"`
}

// ReportLog is a persisted record of a published daily report.
type ReportLog struct {
	ID        int64     `json:"id" db:"id"`
	GuildID   string    `json:"guild_id" db:"guild_id"`
	RealDate  string    `json:"real_date" db:"real_date"`
	Payload   []byte    `json:"payload" db:"payload"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidationError classifies bad input as a permanent, caller-side error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent.
func (e *ValidationError) IsTransient() bool {
	return false
}
