package v1

import (
	"gig-escrow/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func Register(r fiber.Router, jobs *handler.JobsHandler, proposals *handler.ProposalsHandler, reviews *handler.ReviewsHandler) {
	if r == nil {
		return
	}

	RegisterJobs(r, jobs, proposals)
	RegisterReviews(r, reviews)
}
