package v1

import (
	"gig-escrow/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func RegisterReviews(r fiber.Router, reviewsHandler *handler.ReviewsHandler) {
	if r == nil || reviewsHandler == nil {
		return
	}

	reviewsHandler.RegisterRoutes(r)
}
