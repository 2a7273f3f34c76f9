package ws

import (
	"context"
	"errors"
	"net/http"

	"gig-escrow/internal/delivery/http/middleware"
	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// JobFinder resolves the job a stream subscribes to.
type JobFinder interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (job.Job, error)
}

type Handler struct {
	hub    *Hub
	jobs   JobFinder
	logger *zap.Logger
}

func NewHandler(hub *Hub, jobs JobFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, jobs: jobs, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs", h.HandleJobsWS)
}

// HandleJobsWS streams the events of one job (?job_id=) to an authenticated
// caller.
func (h *Handler) HandleJobsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil || h.jobs == nil {
		return fiber.ErrServiceUnavailable
	}

	callerID, ok := middleware.CallerID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	jobID, err := uuid.Parse(c.Query("job_id"))
	if err != nil || jobID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "job_id is required")
	}
	if _, err := h.jobs.GetJob(c.Context(), jobID); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		return err
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(h.hub, conn, jobID)
		h.hub.Register(client)
		h.logger.Debug("ws subscribed", zap.Stringer("job_id", jobID), zap.Stringer("caller_id", callerID))
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
