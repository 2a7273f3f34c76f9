package dto

import (
	"time"

	"gig-escrow/internal/domain/review"

	"github.com/google/uuid"
)

type ReviewResponse struct {
	ID           uuid.UUID `json:"id"`
	JobID        uuid.UUID `json:"jobId"`
	ReviewerID   uuid.UUID `json:"reviewerId"`
	RevieweeID   uuid.UUID `json:"revieweeId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerRole string    `json:"reviewerRole"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewReviewResponse(r review.Review) ReviewResponse {
	return ReviewResponse{
		ID:           r.ID,
		JobID:        r.JobID,
		ReviewerID:   r.ReviewerID,
		RevieweeID:   r.RevieweeID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		ReviewerRole: string(r.ReviewerRole),
		CreatedAt:    r.CreatedAt,
	}
}

func NewReviewListResponse(items []review.Review) []ReviewResponse {
	res := make([]ReviewResponse, 0, len(items))
	for _, r := range items {
		res = append(res, NewReviewResponse(r))
	}
	return res
}
