package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"

	"coursehub/internal/config"
	"coursehub/internal/logger"
	"coursehub/internal/pgmq"
	"coursehub/internal/repository"
	"coursehub/internal/storage"
	"coursehub/internal/worker/cleanup"
	"coursehub/internal/worker/scheduler"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Worker mode: cleanup|scheduler")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	db, err := sql.Open("postgres", repository.PrepareDSN(cfg.DBConnectionString, cfg.IsDevelopment()))
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var runErr error
	switch *mode {
	case "cleanup":
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create S3 client: %v", err)
		}
		store := storage.NewS3Store(s3Client, cfg.S3Bucket, cfg.PresignExpiry(), logger)
		runErr = cleanup.Run(ctx, logger, pgmq.New(db), store, cleanup.OptionsFromConfig(cfg))
	case "scheduler":
		runErr = scheduler.Run(ctx, logger, scheduler.NewJobs(db, cfg, logger), cfg)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s worker failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s worker stopped gracefully", *mode)
}
