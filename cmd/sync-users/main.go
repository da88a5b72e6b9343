package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ticketsync/internal/cache"
	"ticketsync/internal/config"
	"ticketsync/internal/logger"
	"ticketsync/internal/store"
	"ticketsync/internal/syncer"
	"ticketsync/internal/ticketing"
)

// sync-users refreshes buyer profiles and their order history.
func main() {
	userList := flag.String("users", "", "comma-separated user IDs to sync")
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

	if *userList == "" {
		logger.Fatal("CONFIG", "no users given, use -users 123,456")
	}
	var userIDs []int64
	for _, part := range strings.Split(*userList, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			logger.Fatal("CONFIG", fmt.Sprintf("bad user ID %q: %v", part, err))
		}
		userIDs = append(userIDs, id)
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

	ctx := context.Background()
	var userCache syncer.UserCache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("CACHE", fmt.Sprintf("Redis unreachable, profiles will be re-fetched: %v", err))
	} else {
		userCache = cache.New(redisClient)
		defer redisClient.Close()
	}

	apiClient := ticketing.NewClient(cfg.Ticketing, logger)
	service := syncer.NewService(&store.DB{Bun: bunDB}, apiClient, nil, userCache, syncer.NewClassifier(syncer.DefaultRules()), logger)
	service.Concurrency = cfg.Sync.Concurrency

	stats := service.SyncUsers(ctx, userIDs)
	logger.Info("SYNC", "User sync finished: "+stats.String())
	if stats.Failed > 0 {
		logger.Fatal("SYNC", fmt.Sprintf("%d of %d users failed", stats.Failed, len(userIDs)))
	}
}
