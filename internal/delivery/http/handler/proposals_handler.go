package handler

import (
	"gig-escrow/internal/delivery/http/dto"
	"gig-escrow/internal/delivery/http/validation"
	"gig-escrow/internal/pkg/response"
	"gig-escrow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ProposalsHandler struct {
	uc usecase.ProposalUsecase
}

type submitProposalRequest struct {
	CoverLetter  string  `json:"coverLetter"`
	ProposedRate float64 `json:"proposedRate"`
}

func NewProposalsHandler(uc usecase.ProposalUsecase) *ProposalsHandler {
	return &ProposalsHandler{uc: uc}
}

func (h *ProposalsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/jobs/:id/proposals", h.List)
	r.Post("/jobs/:id/proposals", h.Submit)
	r.Get("/proposals/:id", h.Get)
	r.Put("/proposals/:id/accept", h.Accept)
	r.Put("/proposals/:id/shortlist", h.Shortlist)
}

func (h *ProposalsHandler) List(c fiber.Ctx) error {
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.uc.ListByJob(c.Context(), jobID, c.Query("status"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProposalListResponse(items))
}

func (h *ProposalsHandler) Submit(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req submitProposalRequest
	if err := bindBody(c, validation.SubmitProposal, &req); err != nil {
		return err
	}

	p, err := h.uc.Submit(c.Context(), jobID, userID, usecase.SubmitProposalInput{
		CoverLetter:  req.CoverLetter,
		ProposedRate: req.ProposedRate,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Created(c, "Proposal submitted", dto.NewProposalResponse(p))
}

func (h *ProposalsHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProposalResponse(p))
}

func (h *ProposalsHandler) Accept(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	j, err := h.uc.Accept(c.Context(), id, userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Proposal accepted", dto.NewJobResponse(j))
}

func (h *ProposalsHandler) Shortlist(c fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.uc.Shortlist(c.Context(), id, userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Proposal shortlisted", dto.NewProposalResponse(p))
}
