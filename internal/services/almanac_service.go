package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"westmarch-almanac/internal/calendar"
	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/internal/weather"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

// MaxForecastDays caps how far ahead a forecast range runs.
const MaxForecastDays = 10

// AlmanacService answers calendar and weather queries for a guild. All
// computation is a pure function of (settings, wall-clock date); settings
// are always passed in explicitly, never read from ambient state.
type AlmanacService struct {
	repo     repository.SettingsRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	location *time.Location
}

// NewAlmanacService creates a new almanac service. The location is the
// timezone the in-game day rolls over in.
func NewAlmanacService(repo repository.SettingsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, location *time.Location) *AlmanacService {
	return &AlmanacService{
		repo:     repo,
		logger:   logger,
		metrics:  metricsCollector,
		location: location,
	}
}

// Settings returns the guild's stored settings, or the stock defaults for
// guilds that never configured anything.
func (s *AlmanacService) Settings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	settings, err := s.repo.GetSettings(ctx, guildID)

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		return models.NewGuildSettings(guildID), nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings validates and persists guild settings.
func (s *AlmanacService) SaveSettings(ctx context.Context, settings *models.GuildSettings) error {
	return s.repo.UpsertSettings(ctx, settings)
}

// TodayDayNumber maps the real-world clock onto the in-game day counter:
// the configured epoch day plus whole local days elapsed since the epoch
// date, clamped to day 1.
func (s *AlmanacService) TodayDayNumber(settings *models.GuildSettings, now time.Time) int {
	n := settings.EpochDayNumber + daysBetween(settings.EpochRealDate, now.In(s.location))
	if n < 1 {
		return 1
	}
	return n
}

// DateFor resolves the in-game date at the given offset from today. A
// vantage pushed before day 1 clamps to day 1; the calendar itself never
// clamps.
func (s *AlmanacService) DateFor(settings *models.GuildSettings, now time.Time, offset int) (calendar.Date, error) {
	target := s.TodayDayNumber(settings, now) + offset
	if target < 1 {
		target = 1
	}
	return calendar.FromDayNumber(target)
}

// MonthName returns the display name of a month, falling back to a
// positional label when the configured list has the wrong shape. Cosmetic
// data degrades instead of failing.
func (s *AlmanacService) MonthName(settings *models.GuildSettings, month int) string {
	if len(settings.MonthNames) == calendar.MonthsPerYear {
		return settings.MonthNames[month-1]
	}
	return fmt.Sprintf("Month %d", month)
}

// WeekdayName returns the display name of a weekday, with the same
// positional fallback as MonthName.
func (s *AlmanacService) WeekdayName(settings *models.GuildSettings, weekday int) string {
	if len(settings.WeekdayNames) == calendar.DaysPerWeek {
		return settings.WeekdayNames[weekday-1]
	}
	return fmt.Sprintf("Day %d", weekday)
}

// DateCard renders a calendar date with display names, season and holiday
// resolved.
func (s *AlmanacService) DateCard(settings *models.GuildSettings, d calendar.Date) models.DateCard {
	card := models.DateCard{
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		DayOfYear: d.DayOfYear,
		Week:      d.Week(),
		Weekday:   d.Weekday(),
		MonthName: s.MonthName(settings, d.Month),
		Season:    calendar.SeasonForMonth(d.Month).String(),
	}
	if settings.ShowWeekday {
		card.WeekdayName = s.WeekdayName(settings, d.Weekday())
	}
	if holiday, ok := calendar.HolidayFor(d); ok {
		card.Holiday = holiday
	}
	return card
}

// WeatherFor returns the true weather at the given offset from today.
func (s *AlmanacService) WeatherFor(settings *models.GuildSettings, now time.Time, offset int) (*models.WeatherCard, error) {
	d, err := s.DateFor(settings, now, offset)
	if err != nil {
		return nil, err
	}

	return &models.WeatherCard{
		Date:     s.DateCard(settings, d),
		Location: settings.Location,
		Weather:  weather.TrueWeather(settings.GuildID, d, settings.Location),
	}, nil
}

// ForecastRange predicts the next `days` days (1..MaxForecastDays),
// starting with today at lead 0.
func (s *AlmanacService) ForecastRange(settings *models.GuildSettings, now time.Time, days int) ([]models.ForecastLine, error) {
	if days < 1 {
		return nil, &models.ValidationError{Field: "days", Message: "days must be >= 1"}
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}

	today, err := s.DateFor(settings, now, 0)
	if err != nil {
		return nil, err
	}

	lines := make([]models.ForecastLine, 0, days)
	for lead := 0; lead < days; lead++ {
		target, err := s.DateFor(settings, now, lead)
		if err != nil {
			return nil, err
		}

		lines = append(lines, models.ForecastLine{
			Date:       s.DateCard(settings, target),
			LeadDays:   lead,
			Confidence: weather.ConfidenceFor(lead).String(),
			Predicted:  weather.Forecast(settings.GuildID, today, target, lead, settings.Location),
		})
	}
	return lines, nil
}

// BuildDailyReport assembles the once-a-day almanac post: today's date,
// weather and holiday plus the full forecast range. Rebuilding the report
// for the same (guild, real date) always yields identical content.
func (s *AlmanacService) BuildDailyReport(ctx context.Context, settings *models.GuildSettings, now time.Time) (*models.DailyReport, error) {
	timer := s.metrics.NewTimer(s.metrics.ReportBuildDuration)
	defer timer.ObserveDuration()

	today, err := s.DateFor(settings, now, 0)
	if err != nil {
		return nil, err
	}

	forecast, err := s.ForecastRange(settings, now, MaxForecastDays)
	if err != nil {
		return nil, err
	}

	report := &models.DailyReport{
		GuildID:  settings.GuildID,
		RealDate: now.In(s.location).Format("2006-01-02"),
		Date:     s.DateCard(settings, today),
		Weather:  weather.TrueWeather(settings.GuildID, today, settings.Location),
		Location: settings.Location,
		Forecast: forecast,
	}

	s.metrics.ReportsBuiltTotal.Inc()
	s.logger.Debug(ctx, "[REPORT_BUILD] Daily report assembled", logging.Fields{
		"guild_id":  settings.GuildID,
		"real_date": report.RealDate,
		"game_date": today.Key(),
	})

	return report, nil
}

// daysBetween counts whole calendar days from a to b, ignoring
// time-of-day and DST-length days.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
