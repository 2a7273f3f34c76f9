package dto

import (
	"time"

	"gig-escrow/internal/domain/job"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ClientID           uuid.UUID  `json:"clientId"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	SkillsRequired     []string   `json:"skillsRequired"`
	BudgetType         string     `json:"budgetType"`
	BudgetAmount       float64    `json:"budgetAmount"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	Status             string     `json:"status"`
	EscrowStatus       string     `json:"escrowStatus"`
	ClientReviewID     *uuid.UUID `json:"clientReviewId"`
	HiredFreelancerID  *uuid.UUID `json:"hiredFreelancerId"`
	AcceptedProposalID *uuid.UUID `json:"acceptedProposalId"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func NewJobResponse(j job.Job) JobResponse {
	skills := j.SkillsRequired
	if skills == nil {
		skills = []string{}
	}
	return JobResponse{
		ID:                 j.ID,
		ClientID:           j.ClientID,
		Title:              j.Title,
		Description:        j.Description,
		SkillsRequired:     skills,
		BudgetType:         string(j.BudgetType),
		BudgetAmount:       j.BudgetAmount,
		Deadline:           j.Deadline,
		Status:             string(j.Status),
		EscrowStatus:       string(j.EscrowStatus),
		ClientReviewID:     j.ClientReviewID,
		HiredFreelancerID:  j.HiredFreelancerID,
		AcceptedProposalID: j.AcceptedProposalID,
		Version:            j.Version,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}
