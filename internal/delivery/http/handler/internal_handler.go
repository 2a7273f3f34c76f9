package handler

import (
	"gig-escrow/internal/delivery/http/dto"
	"gig-escrow/internal/pkg/response"
	"gig-escrow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// InternalHandler receives the events other systems own: work completion and
// escrow funding.
type InternalHandler struct {
	uc usecase.JobLifecycleUsecase
}

func NewInternalHandler(uc usecase.JobLifecycleUsecase) *InternalHandler {
	return &InternalHandler{uc: uc}
}

func (h *InternalHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Put("/jobs/:id/complete", h.Complete)
	r.Put("/jobs/:id/fund", h.Fund)
}

func (h *InternalHandler) Complete(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.CompleteJob(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Job completed", dto.NewJobResponse(j))
}

func (h *InternalHandler) Fund(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.FundEscrow(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Escrow funded", dto.NewJobResponse(j))
}
