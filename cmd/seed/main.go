package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gig-escrow/internal/app"
	"gig-escrow/internal/config"
	"gig-escrow/internal/database/seeder"
	"gig-escrow/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	client := flag.String("client", "", "client user id (random when empty)")
	freelancer := flag.String("freelancer", "", "freelancer user id (random when empty)")
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

	demo := &seeder.Demo{}
	if demo.ClientID, err = optionalUUID(*client); err != nil {
		zl.Fatal("invalid -client", zap.Error(err))
	}
	if demo.FreelancerID, err = optionalUUID(*freelancer); err != nil {
		zl.Fatal("invalid -freelancer", zap.Error(err))
	}

	c, err := app.NewContainer(cfg, zl)
	if err != nil {
		zl.Fatal("failed to build container", zap.Error(err))
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	runner := seeder.Runner{Seeders: []seeder.Seeder{demo}, Logger: zl}
	if err := runner.Run(ctx, seeder.Deps{Jobs: c.Jobs, Proposals: c.Proposals, Reviews: c.Reviews}); err != nil {
		zl.Fatal("seed failed", zap.Error(err))
	}
	zl.Info("demo data seeded",
		zap.Stringer("client_id", demo.ClientID),
		zap.Stringer("freelancer_id", demo.FreelancerID),
		zap.Stringers("job_ids", demo.Created),
	)
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
