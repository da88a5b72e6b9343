package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ticketsync/internal/config"
	"ticketsync/internal/kafka"
	"ticketsync/internal/logger"
	"ticketsync/internal/store"
	"ticketsync/internal/syncer"
	"ticketsync/internal/ticketing"
)

// sync-attendance reconciles per-ticket check-in state for the given events.
func main() {
	eventList := flag.String("events", "", "comma-separated event IDs to reconcile")
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

	if *eventList == "" {
		logger.Fatal("CONFIG", "no events given, use -events 123,456")
	}
	var eventIDs []int64
	for _, part := range strings.Split(*eventList, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			logger.Fatal("CONFIG", fmt.Sprintf("bad event ID %q: %v", part, err))
		}
		eventIDs = append(eventIDs, id)
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	var publisher syncer.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
	}

	apiClient := ticketing.NewClient(cfg.Ticketing, logger)
	service := syncer.NewService(&store.DB{Bun: bunDB}, apiClient, publisher, nil, syncer.NewClassifier(syncer.DefaultRules()), logger)
	service.Concurrency = cfg.Sync.Concurrency

	ctx := context.Background()
	total := syncer.SyncStats{}
	failedRuns := 0
	for _, eventID := range eventIDs {
		stats, err := service.SyncAttendance(ctx, eventID)
		if err != nil {
			logger.Error("SYNC", fmt.Sprintf("Attendance sync for event %d failed: %v", eventID, err))
			failedRuns++
			continue
		}
		total.Processed += stats.Processed
		total.Updated += stats.Updated
		total.Skipped += stats.Skipped
		total.Failed += stats.Failed
	}

	logger.Info("SYNC", "Attendance sync finished: "+total.String())
	if failedRuns > 0 {
		logger.Fatal("SYNC", fmt.Sprintf("%d of %d events failed", failedRuns, len(eventIDs)))
	}
}
