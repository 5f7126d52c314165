// Package scheduler drives the once-a-day almanac autopost. The core
// stays pure; everything time- and side-effect-shaped lives here: the
// wall-clock trigger, the per-guild dedup marker, and the publish.
package scheduler

import (
	"context"
	"time"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/internal/services"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

// MarkerStore is the dedup marker surface the runner needs.
type MarkerStore interface {
	AlreadyPosted(ctx context.Context, guildID, dateKey string) (bool, error)
	MarkPosted(ctx context.Context, guildID, dateKey string) error
}

// Publisher delivers a built report downstream.
type Publisher interface {
	Publish(ctx context.Context, report *models.DailyReport) error
}

// Runner fires once per real day at a fixed local time and publishes the
// daily report for every autopost-enabled guild.
type Runner struct {
	almanac  *services.AlmanacService
	reports  *services.ReportService
	repo     repository.SettingsRepository
	marker   MarkerStore
	pub      Publisher
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	location *time.Location
	postTime time.Duration // offset from local midnight

	now func() time.Time // stubbed in tests
}

// NewRunner creates a daily autopost runner.
func NewRunner(
	almanac *services.AlmanacService,
	reports *services.ReportService,
	repo repository.SettingsRepository,
	marker MarkerStore,
	pub Publisher,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	location *time.Location,
	postTime time.Duration,
) *Runner {
	return &Runner{
		almanac:  almanac,
		reports:  reports,
		repo:     repo,
		marker:   marker,
		pub:      pub,
		logger:   logger,
		metrics:  metricsCollector,
		location: location,
		postTime: postTime,
		now:      time.Now,
	}
}

// Run blocks, firing RunOnce at the configured local time every day until
// the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		next := nextFireTime(r.now().In(r.location), r.postTime)

		r.logger.Info(ctx, "[SCHEDULER_WAIT] Waiting for next fire time", logging.Fields{
			"next_fire": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error(ctx, "[SCHEDULER_TICK_ERROR] Daily run failed", logging.Fields{}, err)
		}
	}
}

// RunOnce publishes today's report for every autopost-enabled guild that
// has not already been posted for today's real date. Failures on one guild
// do not block the others.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.metrics.SchedulerTicksTotal.Inc()

	now := r.now()
	dateKey := now.In(r.location).Format("2006-01-02")

	guilds, err := r.repo.ListAutopostEnabled(ctx)
	if err != nil {
		return err
	}
	r.metrics.SchedulerGuilds.Set(float64(len(guilds)))

	r.logger.Info(ctx, "[SCHEDULER_TICK] Daily autopost run", logging.Fields{
		"real_date": dateKey,
		"guilds":    len(guilds),
	})

	for _, settings := range guilds {
		gctx := logging.WithGuildID(ctx, settings.GuildID)

		posted, err := r.marker.AlreadyPosted(gctx, settings.GuildID, dateKey)
		if err != nil {
			r.metrics.RecordPublishError("marker_read")
			r.logger.Error(gctx, "[SCHEDULER_MARKER_ERROR] Failed to read post marker", logging.Fields{}, err)
			continue
		}
		if posted {
			r.metrics.RecordSkippedReport("already_posted")
			continue
		}

		report, err := r.almanac.BuildDailyReport(gctx, settings, now)
		if err != nil {
			r.metrics.RecordPublishError("build")
			r.logger.Error(gctx, "[SCHEDULER_BUILD_ERROR] Failed to build report", logging.Fields{}, err)
			continue
		}

		if err := r.pub.Publish(gctx, report); err != nil {
			r.metrics.RecordPublishError("publish")
			r.logger.Error(gctx, "[SCHEDULER_PUBLISH_ERROR] Failed to publish report", logging.Fields{}, err)
			continue
		}
		r.metrics.ReportsPublishedTotal.Inc()

		if err := r.reports.LogReport(gctx, report); err != nil {
			// The post went out; a missing log row is recoverable.
			r.logger.Warn(gctx, "[SCHEDULER_LOG_WARN] Report published but not logged", logging.Fields{
				"error": err.Error(),
			})
		}

		if err := r.marker.MarkPosted(gctx, settings.GuildID, dateKey); err != nil {
			r.metrics.RecordPublishError("marker_write")
			r.logger.Error(gctx, "[SCHEDULER_MARKER_ERROR] Failed to write post marker", logging.Fields{}, err)
		}
	}

	return nil
}

// nextFireTime returns the next occurrence of the configured wall-clock
// time strictly after now, in now's location.
func nextFireTime(now time.Time, postTime time.Duration) time.Time {
	year, month, day := now.Date()
	fire := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).Add(postTime)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}
