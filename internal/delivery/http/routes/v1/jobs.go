package v1

import (
	"gig-escrow/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func RegisterJobs(r fiber.Router, jobsHandler *handler.JobsHandler, proposalsHandler *handler.ProposalsHandler) {
	if r == nil {
		return
	}

	if jobsHandler != nil {
		jobsHandler.RegisterRoutes(r)
	}
	if proposalsHandler != nil {
		proposalsHandler.RegisterRoutes(r)
	}
}
