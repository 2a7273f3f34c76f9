package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"gig-escrow/internal/config"
	dbpostgres "gig-escrow/internal/database/postgres"
	"gig-escrow/internal/database/migration"
	"gig-escrow/internal/pkg/logger"
	"gig-escrow/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to DB_MIGRATIONS_DIR, then the embedded set)")
	list := flag.Bool("list", false, "print the migration files found and exit")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	migDir := *dir
	if migDir == "" {
		migDir = cfg.Database.MigrationsDir
	}
	runner := migration.Runner{Dir: migDir, Source: migrations.FS, Logger: zl}

	if *list {
		migs, err := runner.Files()
		if err != nil {
			zl.Fatal("load migrations", zap.Error(err))
		}
		for _, m := range migs {
			zl.Info("migration", zap.Int64("version", m.Version), zap.String("file", m.Filename), zap.String("checksum", m.Checksum))
		}
		return
	}

	if cfg.Database.Driver == config.DriverMemory {
		zl.Fatal("migrations need a PostgreSQL driver", zap.String("driver", cfg.Database.Driver))
	}

	driverName := "pgx"
	if cfg.Database.Driver == config.DriverPq {
		driverName = "postgres"
	}
	db, err := sql.Open(driverName, dbpostgres.DSN(cfg.Database))
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := runner.Run(ctx, db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	zl.Info("migrations complete")
}
