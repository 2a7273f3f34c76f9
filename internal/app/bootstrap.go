package app

import (
	"fmt"
	"strings"

	"gig-escrow/internal/config"
	"gig-escrow/internal/delivery/http/handler"
	"gig-escrow/internal/delivery/http/middleware"
	"gig-escrow/internal/delivery/http/routes"
	"gig-escrow/internal/pkg/jwt"
	"gig-escrow/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New wires the HTTP surface onto an already built container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	accessMw := middleware.NewAccessLogMiddleware(logger.Named("http"))
	errMw := middleware.NewErrorMiddleware(logger.Named("http"))
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	cfg := c.Config
	jwtSvc := jwt.NewHMACService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiresIn)

	registry := routes.NewRegistry(
		routes.Handlers{
			Health:    handler.NewHealthHandler(c.Store, c.Cache),
			Jobs:      handler.NewJobsHandler(c.Jobs),
			Proposals: handler.NewProposalsHandler(c.Proposals),
			Reviews:   handler.NewReviewsHandler(c.Reviews),
			Internal:  handler.NewInternalHandler(c.Jobs),
			WS:        ws.NewHandler(c.Hub, c.Jobs, c.Logger.Named("ws")),
		},
		routes.Middlewares{
			Auth:          middleware.NewAuthMiddleware(jwtSvc),
			Idempotency:   middleware.NewIdempotencyMiddleware(c.Cache, cfg.Redis.IdempotencyTTL, c.Logger.Named("idempotency")),
			InternalToken: middleware.NewInternalTokenMiddleware(cfg.Internal.Token),
		},
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
