package handler

import (
	"time"

	"gig-escrow/internal/delivery/http/dto"
	"gig-escrow/internal/delivery/http/validation"
	"gig-escrow/internal/pkg/response"
	"gig-escrow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc usecase.JobLifecycleUsecase
}

type createJobRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	SkillsRequired []string   `json:"skillsRequired"`
	BudgetType     string     `json:"budgetType"`
	BudgetAmount   float64    `json:"budgetAmount"`
	Deadline       *time.Time `json:"deadline"`
}

func NewJobsHandler(uc usecase.JobLifecycleUsecase) *JobsHandler {
	return &JobsHandler{uc: uc}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/jobs")
	grp.Post("/", h.Create)
	grp.Get("/:id", h.Get)
	grp.Put("/:id/cancel", h.Cancel)
	grp.Put("/:id/release", h.Release)
}

func (h *JobsHandler) Create(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req createJobRequest
	if err := bindBody(c, validation.CreateJob, &req); err != nil {
		return err
	}

	created, err := h.uc.CreateJob(c.Context(), userID, usecase.CreateJobInput{
		Title:          req.Title,
		Description:    req.Description,
		SkillsRequired: req.SkillsRequired,
		BudgetType:     req.BudgetType,
		BudgetAmount:   req.BudgetAmount,
		Deadline:       req.Deadline,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Created(c, "Job created", dto.NewJobResponse(created))
}

func (h *JobsHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.GetJob(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(j))
}

func (h *JobsHandler) Cancel(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.CancelJob(c.Context(), id, userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Job cancelled", dto.NewJobResponse(j))
}

func (h *JobsHandler) Release(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.ReleaseEscrow(c.Context(), id, userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Escrow released", dto.NewJobResponse(j))
}
