package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid job transition")
	ErrAlreadyReleased   = errors.New("escrow already released")
	ErrAlreadyReviewed   = errors.New("job already reviewed by client")
)

type Job struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	Title          string
	Description    string
	SkillsRequired []string
	BudgetType     BudgetType
	BudgetAmount   float64
	Deadline       *time.Time

	Status       Status
	EscrowStatus EscrowStatus

	ClientReviewID     *uuid.UUID
	HiredFreelancerID  *uuid.UUID
	AcceptedProposalID *uuid.UUID

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(clientID uuid.UUID, title, description string, skills []string, budgetType BudgetType, amount float64, deadline *time.Time, now time.Time) Job {
	return Job{
		ID:             uuid.New(),
		ClientID:       clientID,
		Title:          title,
		Description:    description,
		SkillsRequired: skills,
		BudgetType:     budgetType,
		BudgetAmount:   amount,
		Deadline:       deadline,
		Status:         StatusOpen,
		EscrowStatus:   EscrowUnfunded,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (j Job) IsOwner(userID uuid.UUID) bool {
	return j.ClientID == userID
}

func (j Job) IsHired(userID uuid.UUID) bool {
	return j.HiredFreelancerID != nil && *j.HiredFreelancerID == userID
}

func (j *Job) transition(to Status) error {
	if !j.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	return nil
}

// Hire moves an open job to in_progress and records who was hired.
func (j *Job) Hire(proposalID, freelancerID uuid.UUID) error {
	if j.Status != StatusOpen || j.AcceptedProposalID != nil {
		return fmt.Errorf("%w: job is %s", ErrInvalidTransition, j.Status)
	}
	if err := j.transition(StatusInProgress); err != nil {
		return err
	}
	j.AcceptedProposalID = &proposalID
	j.HiredFreelancerID = &freelancerID
	return nil
}

func (j *Job) Cancel() error {
	switch j.Status {
	case StatusOpen:
		if j.AcceptedProposalID != nil {
			return fmt.Errorf("%w: a proposal was already accepted", ErrInvalidTransition)
		}
	case StatusInProgress:
		if j.EscrowStatus == EscrowReleased {
			return fmt.Errorf("%w: escrow already released", ErrInvalidTransition)
		}
	}
	return j.transition(StatusCancelled)
}

func (j *Job) Complete() error {
	if j.Status != StatusInProgress {
		return fmt.Errorf("%w: job is %s", ErrInvalidTransition, j.Status)
	}
	return j.transition(StatusCompleted)
}

// FundEscrow records the external funding event. A cancelled job never
// receives funds.
func (j *Job) FundEscrow() error {
	if j.Status == StatusCancelled {
		return fmt.Errorf("%w: job is cancelled", ErrInvalidTransition)
	}
	if !j.EscrowStatus.CanTransitionTo(EscrowFunded) {
		return fmt.Errorf("%w: escrow is %s", ErrInvalidTransition, j.EscrowStatus)
	}
	j.EscrowStatus = EscrowFunded
	return nil
}

func (j *Job) ReleaseEscrow() error {
	if j.EscrowStatus == EscrowReleased {
		return ErrAlreadyReleased
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: job is %s", ErrInvalidTransition, j.Status)
	}
	if !j.EscrowStatus.CanTransitionTo(EscrowReleased) {
		return fmt.Errorf("%w: escrow is %s", ErrInvalidTransition, j.EscrowStatus)
	}
	j.EscrowStatus = EscrowReleased
	return nil
}

func (j *Job) AttachClientReview(reviewID uuid.UUID) error {
	if j.ClientReviewID != nil {
		return ErrAlreadyReviewed
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: job is %s", ErrInvalidTransition, j.Status)
	}
	j.ClientReviewID = &reviewID
	return nil
}

// CheckInvariants reports the first cross-field invariant the job violates.
func (j Job) CheckInvariants() error {
	if !j.Status.Valid() || !j.EscrowStatus.Valid() {
		return fmt.Errorf("job %s: unknown status %q/%q", j.ID, j.Status, j.EscrowStatus)
	}
	if j.EscrowStatus == EscrowReleased && j.Status != StatusCompleted {
		return fmt.Errorf("job %s: escrow released while %s", j.ID, j.Status)
	}
	if j.ClientReviewID != nil && j.Status != StatusCompleted {
		return fmt.Errorf("job %s: reviewed while %s", j.ID, j.Status)
	}
	if (j.Status == StatusInProgress || j.Status == StatusCompleted) && j.HiredFreelancerID == nil {
		return fmt.Errorf("job %s: %s without a hire", j.ID, j.Status)
	}
	return nil
}
