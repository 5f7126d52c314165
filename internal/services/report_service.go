package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

// ReportService persists and serves the log of published daily reports.
type ReportService struct {
	repo    repository.SettingsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReportService creates a new report service
func NewReportService(repo repository.SettingsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ReportService {
	return &ReportService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// LogReport records a published daily report. Logging the same
// (guild, real date) twice is a no-op, matching the publish dedup.
func (s *ReportService) LogReport(ctx context.Context, report *models.DailyReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	entry := &models.ReportLog{
		GuildID:   report.GuildID,
		RealDate:  report.RealDate,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.InsertReportLog(ctx, entry); err != nil {
		return err
	}

	s.logger.Debug(ctx, "[REPORT_LOG] Report logged", logging.Fields{
		"guild_id":  report.GuildID,
		"real_date": report.RealDate,
	})

	return nil
}

// ListReports returns published reports for a guild, newest first.
func (s *ReportService) ListReports(ctx context.Context, guildID string, limit, offset int) ([]*models.ReportLog, int, error) {
	return s.repo.ListReportLogs(ctx, guildID, limit, offset)
}
