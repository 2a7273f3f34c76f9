package handler

import (
	"context"

	"gig-escrow/internal/delivery/http/dto"
	"gig-escrow/internal/delivery/http/validation"
	"gig-escrow/internal/domain/review"
	"gig-escrow/internal/pkg/response"
	"gig-escrow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ReviewsHandler struct {
	uc usecase.ReviewUsecase
}

type submitReviewRequest struct {
	JobID      uuid.UUID `json:"jobId"`
	RevieweeID uuid.UUID `json:"revieweeId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
}

func NewReviewsHandler(uc usecase.ReviewUsecase) *ReviewsHandler {
	return &ReviewsHandler{uc: uc}
}

func (h *ReviewsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/reviews", h.SubmitClient)
	r.Post("/reviews/freelancer", h.SubmitFreelancer)
	r.Get("/jobs/:id/reviews", h.List)
}

func (h *ReviewsHandler) SubmitClient(c fiber.Ctx) error {
	return h.submit(c, h.uc.SubmitClientReview)
}

func (h *ReviewsHandler) SubmitFreelancer(c fiber.Ctx) error {
	return h.submit(c, h.uc.SubmitFreelancerReview)
}

type submitReviewFunc = func(ctx context.Context, reviewerID uuid.UUID, in usecase.SubmitReviewInput) (review.Review, error)

func (h *ReviewsHandler) submit(c fiber.Ctx, fn submitReviewFunc) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req submitReviewRequest
	if err := bindBody(c, validation.SubmitReview, &req); err != nil {
		return err
	}

	rv, err := fn(c.Context(), userID, usecase.SubmitReviewInput{
		JobID:      req.JobID,
		RevieweeID: req.RevieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Created(c, "Review submitted", dto.NewReviewResponse(rv))
}

func (h *ReviewsHandler) List(c fiber.Ctx) error {
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.uc.ListByJob(c.Context(), jobID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewReviewListResponse(items))
}
