package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"westmarch-almanac/internal/config"
	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/queue"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/internal/scheduler"
	"westmarch-almanac/internal/services"
	"westmarch-almanac/pkg/database"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

func main() {
	// Parse command-line flags
	once := flag.Bool("once", false, "Run a single autopost pass and exit")
	consume := flag.Bool("consume", false, "Tail the report topic and log published reports instead of scheduling")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("almanac-reporter", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[REPORTER_START] Starting daily report publisher", logging.Fields{
		"version":   "1.0.0",
		"post_time": cfg.Scheduler.PostTime,
		"timezone":  cfg.Scheduler.Timezone,
		"topic":     cfg.Kafka.TopicReport,
		"once":      *once,
		"consume":   *consume,
	})

	// Consume mode tails the report topic instead of publishing to it.
	if *consume {
		consumer := queue.NewReportConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReport, cfg.Kafka.GroupID)
		defer consumer.Close()

		err := queue.TailReports(ctx, consumer, func(ctx context.Context, report *models.DailyReport) error {
			logger.Info(ctx, "[REPORT_CONSUMED] Daily report received", logging.Fields{
				"guild_id":  report.GuildID,
				"real_date": report.RealDate,
				"game_date": fmt.Sprintf("%04d-%02d-%02d", report.Date.Year, report.Date.Month, report.Date.Day),
				"forecast":  len(report.Forecast),
			})
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal(ctx, "[REPORTER_ERROR] Report tail failed", logging.Fields{}, err)
		}

		logger.Info(ctx, "[SHUTDOWN_COMPLETE] Reporter stopped", logging.Fields{})
		return
	}

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("almanac_reporter")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize dedup marker store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to redis", logging.Fields{
			"addr": cfg.Redis.Addr,
		}, err)
	}
	marker := scheduler.NewPostMarker(redisClient)

	// Initialize report publisher
	publisher := queue.NewReportPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicReport)
	defer publisher.Close()

	// Initialize repository and services
	settingsRepo := repository.NewSettingsRepository(db, logger, metricsCollector)
	almanacService := services.NewAlmanacService(settingsRepo, logger, metricsCollector, cfg.Location())
	reportService := services.NewReportService(settingsRepo, logger, metricsCollector)

	postTime, err := config.ParsePostTime(cfg.Scheduler.PostTime)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Invalid post time", logging.Fields{}, err)
	}

	runner := scheduler.NewRunner(
		almanacService,
		reportService,
		settingsRepo,
		marker,
		publisher,
		logger,
		metricsCollector,
		cfg.Location(),
		postTime,
	)

	if *once {
		if err := runner.RunOnce(ctx); err != nil {
			logger.Fatal(ctx, "[REPORTER_ERROR] Autopost pass failed", logging.Fields{}, err)
		}
		logger.Info(ctx, "[REPORTER_DONE] Single autopost pass completed", logging.Fields{})
		return
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(ctx, "[REPORTER_ERROR] Scheduler stopped", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Reporter stopped", logging.Fields{})
}
