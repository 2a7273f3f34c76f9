package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gig-escrow/internal/config"
	"gig-escrow/internal/database"
	dbpostgres "gig-escrow/internal/database/postgres"
	"gig-escrow/internal/database/migration"
	"gig-escrow/internal/database/sqldb"
	"gig-escrow/internal/event"
	"gig-escrow/internal/infrastructure/cache"
	"gig-escrow/internal/infrastructure/notify"
	"gig-escrow/internal/repository"
	"gig-escrow/internal/repository/memory"
	"gig-escrow/internal/usecase"
	"gig-escrow/internal/ws"
	"gig-escrow/migrations"

	"go.uber.org/zap"
)

type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.DB
	Store repository.Store
	Cache *cache.Redis
	Hub   *ws.Hub

	Events event.Publisher

	Jobs      *usecase.JobLifecycle
	Proposals *usecase.Proposals
	Reviews   *usecase.Reviews

	stopHub context.CancelFunc
}

func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(); err != nil {
		return nil, err
	}

	c.Cache = cache.NewRedis(cfg.Redis, logger.Named("cache"))

	hubCtx, stop := context.WithCancel(context.Background())
	c.Hub = ws.NewHub(logger.Named("ws"))
	c.stopHub = stop
	go c.Hub.Run(hubCtx)

	pubs := event.Multi{ws.NewPublisher(c.Hub)}
	if cfg.Events.SNSTopicARN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sns, err := notify.NewSNSPublisher(ctx, cfg.Events.AWSRegion, cfg.Events.SNSTopicARN)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		pubs = append(pubs, sns)
		logger.Info("sns event publishing enabled", zap.String("topic_arn", cfg.Events.SNSTopicARN))
	}
	c.Events = pubs

	ucLog := logger.Named("usecase")
	c.Jobs = usecase.NewJobLifecycleUsecase(c.Store, c.Events, ucLog)
	c.Proposals = usecase.NewProposalUsecase(c.Store, c.Events, ucLog)
	c.Reviews = usecase.NewReviewUsecase(c.Store, c.Events, ucLog)
	if d := cfg.Events.PublishTimeout; d > 0 {
		c.Jobs.SetPublishTimeout(d)
		c.Proposals.SetPublishTimeout(d)
		c.Reviews.SetPublishTimeout(d)
	}

	return c, nil
}

func (c *Container) openStore() error {
	cfg := c.Config.Database
	if cfg.Driver == config.DriverMemory {
		c.Logger.Warn("using in-memory store; data is lost on restart")
		c.Store = memory.NewStore()
		return nil
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		db  database.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverPq:
		db, err = sqldb.Open(ctx, cfg)
	default:
		db, err = dbpostgres.Connect(ctx, cfg)
	}
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if cfg.AutoMigrate {
		mctx, mcancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer mcancel()
		runner := migration.Runner{Dir: cfg.MigrationsDir, Source: migrations.FS, Logger: c.Logger.Named("migration")}
		if err := runner.Run(mctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	c.DB = db
	c.Store = repository.NewPostgresStore(db)
	c.Logger.Info("database connected", zap.String("driver", cfg.Driver), zap.String("host", cfg.DBHost))
	return nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.stopHub != nil {
		c.stopHub()
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
