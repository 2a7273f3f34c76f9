package dto

import (
	"time"

	"gig-escrow/internal/domain/proposal"

	"github.com/google/uuid"
)

type ProposalResponse struct {
	ID           uuid.UUID `json:"id"`
	JobID        uuid.UUID `json:"jobId"`
	FreelancerID uuid.UUID `json:"freelancerId"`
	CoverLetter  string    `json:"coverLetter"`
	ProposedRate float64   `json:"proposedRate"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewProposalResponse(p proposal.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:           p.ID,
		JobID:        p.JobID,
		FreelancerID: p.FreelancerID,
		CoverLetter:  p.CoverLetter,
		ProposedRate: p.ProposedRate,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func NewProposalListResponse(items []proposal.Proposal) []ProposalResponse {
	res := make([]ProposalResponse, 0, len(items))
	for _, p := range items {
		res = append(res, NewProposalResponse(p))
	}
	return res
}
