package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

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

// sync-events reconciles the event list from the ticketing API into the
// datastore, then optionally re-syncs orders and sales for every live event.
func main() {
	withOrders := flag.Bool("orders", false, "also sync orders and sales for every live event")
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

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

	ctx := context.Background()
	db := &store.DB{Bun: bunDB}
	if err := db.CreateTables(ctx); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to create tables: %v", err))
	}

	var publisher syncer.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		publisher = producer
	}

	apiClient := ticketing.NewClient(cfg.Ticketing, logger)
	service := syncer.NewService(db, apiClient, publisher, nil, syncer.NewClassifier(syncer.DefaultRules()), logger)
	service.Concurrency = cfg.Sync.Concurrency
	service.CustomEventIDMax = cfg.Sync.CustomEventIDMax

	stats, err := service.SyncEvents(ctx)
	if err != nil {
		logger.Fatal("SYNC", fmt.Sprintf("Event sync failed: %v", err))
	}
	logger.Info("SYNC", "Event sync finished: "+stats.String())

	if *withOrders {
		rows, err := db.SelectEvents(ctx)
		if err != nil {
			logger.Fatal("SYNC", fmt.Sprintf("Failed to list events for order sync: %v", err))
		}
		var eventIDs []int64
		for _, row := range rows {
			if row.Status != syncer.EventStatusRemoved {
				eventIDs = append(eventIDs, row.ID)
			}
		}
		orderStats := service.SyncEventOrders(ctx, eventIDs)
		logger.Info("SYNC", "Order sync finished: "+orderStats.String())
		if orderStats.Failed > 0 {
			logger.Fatal("SYNC", fmt.Sprintf("%d events failed to sync", orderStats.Failed))
		}
	}
}
