package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 3
)

type Review struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	ReviewerID   uuid.UUID
	RevieweeID   uuid.UUID
	Rating       int
	Comment      string
	ReviewerRole Role
	CreatedAt    time.Time
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleFreelancer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown reviewer role %q", s)
}

// ValidateContent checks the user-supplied part of a review.
func ValidateContent(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if len([]rune(strings.TrimSpace(comment))) < MinCommentLength {
		return fmt.Errorf("comment must be at least %d characters", MinCommentLength)
	}
	return nil
}

func New(jobID, reviewerID, revieweeID uuid.UUID, role Role, rating int, comment string, now time.Time) Review {
	return Review{
		ID:           uuid.New(),
		JobID:        jobID,
		ReviewerID:   reviewerID,
		RevieweeID:   revieweeID,
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
		ReviewerRole: role,
		CreatedAt:    now,
	}
}
