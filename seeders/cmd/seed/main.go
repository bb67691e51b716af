package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sales-crm/pkg/config"
	"sales-crm/pkg/database/migrations"
	"sales-crm/pkg/database/postgresql"
	applogger "sales-crm/pkg/logger"
	"sales-crm/seeders"
)

func main() {
	runLookups := flag.Bool("lookups", false, "seed lookup table values")
	runAdmin := flag.Bool("admin", false, "create the initial admin from ADMIN_EMAIL/ADMIN_PASSWORD/ADMIN_NAME")
	runAll := flag.Bool("all", false, "run every seeder (same as -lookups -admin)")
	flag.Parse()

	if !*runLookups && !*runAdmin && !*runAll {
		fmt.Fprintln(os.Stderr, "no seeder selected. Available flags:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nexample: go run ./seeders/cmd/seed -all")
		os.Exit(2)
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	ctx := context.Background()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := migrations.Up(ctx, dbPool, logger); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	if *runAll || *runLookups {
		if err := seeders.SeedLookups(ctx, dbPool, logger); err != nil {
			logger.Fatal("lookup seeding failed", zap.Error(err))
		}
	}
	if *runAll || *runAdmin {
		if err := seeders.SeedAdmin(ctx, dbPool, cfg.Admin, logger); err != nil {
			logger.Fatal("admin seeding failed", zap.Error(err))
		}
	}

	logger.Info("seeding finished")
}
