package routes

import (
	"gig-escrow/internal/delivery/http/handler"
	"gig-escrow/internal/delivery/http/middleware"
	"gig-escrow/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health    *handler.HealthHandler
	Jobs      *handler.JobsHandler
	Proposals *handler.ProposalsHandler
	Reviews   *handler.ReviewsHandler
	Internal  *handler.InternalHandler
	WS        *ws.Handler
}

type Middlewares struct {
	Auth          *middleware.AuthMiddleware
	Idempotency   *middleware.IdempotencyMiddleware
	InternalToken *middleware.InternalTokenMiddleware
}

type Registry struct {
	h  Handlers
	mw Middlewares
}

func NewRegistry(h Handlers, mw Middlewares) *Registry {
	return &Registry{h: h, mw: mw}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerStreams(app)
	r.registerAPI(app)
	r.registerInternal(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.h.Health != nil {
		r.h.Health.RegisterRoutes(app)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (r *Registry) registerStreams(app *fiber.App) {
	if r.h.WS == nil {
		return
	}
	streams := app.Group("/ws", r.mw.Auth.StreamMiddleware())
	r.h.WS.RegisterRoutes(streams)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api", r.mw.Auth.Middleware(), r.mw.Idempotency.Middleware())
	RegisterV1(api.Group("/v1"), r.h)
}

func (r *Registry) registerInternal(app *fiber.App) {
	if r.h.Internal == nil {
		return
	}
	internal := app.Group("/internal", r.mw.InternalToken.Middleware(), r.mw.Idempotency.Middleware())
	r.h.Internal.RegisterRoutes(internal.Group("/v1"))
}
