package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeJobCreated          Type = "job.created"
	TypeJobHired            Type = "job.hired"
	TypeJobCancelled        Type = "job.cancelled"
	TypeJobCompleted        Type = "job.completed"
	TypeEscrowFunded        Type = "escrow.funded"
	TypeEscrowReleased      Type = "escrow.released"
	TypeProposalSubmitted   Type = "proposal.submitted"
	TypeProposalShortlisted Type = "proposal.shortlisted"
	TypeReviewSubmitted     Type = "review.submitted"
)

// Event describes a committed state change. Publishers receive it only after
// the transaction that produced it has committed.
type Event struct {
	Type         Type       `json:"type"`
	JobID        uuid.UUID  `json:"job_id"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	ProposalID   *uuid.UUID `json:"proposal_id,omitempty"`
	ReviewID     *uuid.UUID `json:"review_id,omitempty"`
	JobStatus    string     `json:"job_status"`
	EscrowStatus string     `json:"escrow_status"`
	BudgetAmount float64    `json:"budget_amount,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
