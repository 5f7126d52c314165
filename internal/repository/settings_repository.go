package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/pkg/database"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

// SettingsRepository provides data access for guild almanac configuration
// and the published-report log.
type SettingsRepository interface {
	// Guild settings operations
	GetSettings(ctx context.Context, guildID string) (*models.GuildSettings, error)
	UpsertSettings(ctx context.Context, settings *models.GuildSettings) error
	ListAutopostEnabled(ctx context.Context) ([]*models.GuildSettings, error)
	DeleteSettings(ctx context.Context, guildID string) error

	// Report log operations
	InsertReportLog(ctx context.Context, log *models.ReportLog) error
	ListReportLogs(ctx context.Context, guildID string, limit, offset int) ([]*models.ReportLog, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// settingsRepository implements SettingsRepository
type settingsRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SettingsRepository {
	return &settingsRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetSettings retrieves guild settings by guild ID
func (r *settingsRepository) GetSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	query := `
		SELECT guild_id, epoch_real_date, epoch_day_number, location, show_weekday,
		       month_names, weekday_names, autopost_channel_id, created_at, updated_at
		FROM guild_settings
		WHERE guild_id = $1
	`

	var settings models.GuildSettings
	err := r.db.GetContext(ctx, "get_settings", &settings, query, guildID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "guild_settings",
			ID:       guildID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// UpsertSettings creates or updates guild settings
func (r *settingsRepository) UpsertSettings(ctx context.Context, settings *models.GuildSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	settings.UpdatedAt = time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	query := `
		INSERT INTO guild_settings (
			guild_id, epoch_real_date, epoch_day_number, location, show_weekday,
			month_names, weekday_names, autopost_channel_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (guild_id) DO UPDATE SET
			epoch_real_date = EXCLUDED.epoch_real_date,
			epoch_day_number = EXCLUDED.epoch_day_number,
			location = EXCLUDED.location,
			show_weekday = EXCLUDED.show_weekday,
			month_names = EXCLUDED.month_names,
			weekday_names = EXCLUDED.weekday_names,
			autopost_channel_id = EXCLUDED.autopost_channel_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_settings", query,
		settings.GuildID,
		settings.EpochRealDate,
		settings.EpochDayNumber,
		settings.Location,
		settings.ShowWeekday,
		settings.MonthNames,
		settings.WeekdayNames,
		settings.AutopostChannelID,
		settings.CreatedAt,
		settings.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_SETTINGS] Settings saved", logging.Fields{
		"guild_id": settings.GuildID,
		"location": settings.Location,
	})

	return nil
}

// ListAutopostEnabled retrieves all guilds with an autopost channel set
func (r *settingsRepository) ListAutopostEnabled(ctx context.Context) ([]*models.GuildSettings, error) {
	query := `
		SELECT guild_id, epoch_real_date, epoch_day_number, location, show_weekday,
		       month_names, weekday_names, autopost_channel_id, created_at, updated_at
		FROM guild_settings
		WHERE autopost_channel_id IS NOT NULL
		ORDER BY guild_id
	`

	var settings []*models.GuildSettings
	err := r.db.SelectContext(ctx, "list_autopost_enabled", &settings, query)

	if err != nil {
		return nil, fmt.Errorf("failed to list autopost guilds: %w", err)
	}

	return settings, nil
}

// DeleteSettings removes a guild's settings row
func (r *settingsRepository) DeleteSettings(ctx context.Context, guildID string) error {
	query := `DELETE FROM guild_settings WHERE guild_id = $1`

	result, err := r.db.ExecContext(ctx, "delete_settings", query, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return &NotFoundError{
			Resource: "guild_settings",
			ID:       guildID,
		}
	}

	return nil
}

// InsertReportLog appends a published daily report record
func (r *settingsRepository) InsertReportLog(ctx context.Context, log *models.ReportLog) error {
	query := `
		INSERT INTO report_log (guild_id, real_date, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, real_date) DO NOTHING
		RETURNING id
	`

	err := r.db.GetContext(ctx, "insert_report_log", &log.ID, query,
		log.GuildID,
		log.RealDate,
		log.Payload,
		log.CreatedAt,
	)

	// ON CONFLICT DO NOTHING returns no row when the report was already
	// logged for that real date; that is not an error for the caller.
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert report log: %w", err)
	}

	return nil
}

// ListReportLogs retrieves published reports for a guild, newest first
func (r *settingsRepository) ListReportLogs(ctx context.Context, guildID string, limit, offset int) ([]*models.ReportLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM report_log WHERE guild_id = $1`

	var totalCount int
	if err := r.db.GetContext(ctx, "count_report_logs", &totalCount, countQuery, guildID); err != nil {
		return nil, 0, fmt.Errorf("failed to count report logs: %w", err)
	}

	query := `
		SELECT id, guild_id, real_date, payload, created_at
		FROM report_log
		WHERE guild_id = $1
		ORDER BY real_date DESC
		LIMIT $2 OFFSET $3
	`

	var logs []*models.ReportLog
	if err := r.db.SelectContext(ctx, "list_report_logs", &logs, query, guildID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list report logs: %w", err)
	}

	return logs, totalCount, nil
}

// HealthCheck performs a repository health check
func (r *settingsRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
