package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/event"
	"gig-escrow/internal/metrics"
	"gig-escrow/internal/pkg/logger"
	"gig-escrow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmitProposalInput struct {
	CoverLetter  string
	ProposedRate float64
}

type ProposalUsecase interface {
	Submit(ctx context.Context, jobID, freelancerID uuid.UUID, in SubmitProposalInput) (proposal.Proposal, error)
	Accept(ctx context.Context, proposalID, callerID uuid.UUID) (job.Job, error)
	Shortlist(ctx context.Context, proposalID, callerID uuid.UUID) (proposal.Proposal, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, status string) ([]proposal.Proposal, error)
	Get(ctx context.Context, proposalID uuid.UUID) (proposal.Proposal, error)
}

type Proposals struct {
	store          repository.Store
	events         event.Publisher
	log            *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewProposalUsecase(store repository.Store, events event.Publisher, log *zap.Logger) *Proposals {
	if events == nil {
		events = event.Nop{}
	}
	return &Proposals{store: store, events: events, log: logger.OrNop(log), now: time.Now, publishTimeout: DefaultPublishTimeout}
}

func (u *Proposals) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		u.publishTimeout = d
	}
}

func (u *Proposals) Submit(ctx context.Context, jobID, freelancerID uuid.UUID, in SubmitProposalInput) (proposal.Proposal, error) {
	const op = "submit_proposal"

	cover := strings.TrimSpace(in.CoverLetter)
	if cover == "" {
		return proposal.Proposal{}, fail(u.log, op, validationf("cover letter is required"))
	}
	if err := validateMoney("proposed rate", in.ProposedRate); err != nil {
		return proposal.Proposal{}, fail(u.log, op, err)
	}

	now := u.now().UTC()
	p := proposal.New(jobID, freelancerID, cover, in.ProposedRate, now)

	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// The lock orders Submit against Accept and Cancel on the same job.
		j, err := tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if j.IsOwner(freelancerID) {
			return ErrForbidden
		}
		if j.Status != job.StatusOpen {
			return invalidStatef("job is %s", j.Status)
		}

		exists, err := tx.Proposals().ExistsForFreelancer(ctx, jobID, freelancerID)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		return tx.Proposals().Create(ctx, p)
	})
	if err != nil {
		return proposal.Proposal{}, fail(u.log, op, err)
	}

	u.log.Info("proposal submitted",
		zap.Stringer("proposal_id", p.ID),
		zap.Stringer("job_id", jobID),
		zap.Stringer("freelancer_id", freelancerID),
	)
	publish(ctx, u.log, u.events, u.publishTimeout, event.Event{
		Type:       event.TypeProposalSubmitted,
		JobID:      jobID,
		ActorID:    &freelancerID,
		ProposalID: &p.ID,
		JobStatus:  string(job.StatusOpen),
		Timestamp:  now,
	})
	return p, nil
}

// Accept hires the proposal's freelancer. The proposal status CAS and the job
// version CAS commit together or not at all.
func (u *Proposals) Accept(ctx context.Context, proposalID, callerID uuid.UUID) (job.Job, error) {
	const op = "accept_proposal"

	var before, after job.Job
	var prev proposal.Status
	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		p, err := tx.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		j, err := tx.Jobs().GetByIDForUpdate(ctx, p.JobID)
		if err != nil {
			return err
		}
		if !j.IsOwner(callerID) {
			return ErrForbidden
		}
		before = j

		// Re-read under the job lock so the status check sees the latest commit.
		p, err = tx.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		prev = p.Status
		if err := p.Accept(); err != nil {
			return err
		}
		if err := j.Hire(p.ID, p.FreelancerID); err != nil {
			return err
		}

		if err := tx.Proposals().UpdateStatus(ctx, p.ID, prev, proposal.StatusAccepted, u.now().UTC()); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidStatef("job already has an accepted proposal")
			}
			return err
		}
		after, err = tx.Jobs().Update(ctx, j)
		return err
	})
	if err != nil {
		return job.Job{}, fail(u.log, op, err)
	}

	metrics.ObserveTransition("proposal", string(prev), string(proposal.StatusAccepted))
	observeJobTransition(u.log, op, before, after)

	evt := jobEvent(event.TypeJobHired, after, &callerID, u.now().UTC())
	evt.ProposalID = &proposalID
	publish(ctx, u.log, u.events, u.publishTimeout, evt)
	return after, nil
}

func (u *Proposals) Shortlist(ctx context.Context, proposalID, callerID uuid.UUID) (proposal.Proposal, error) {
	const op = "shortlist_proposal"

	var out proposal.Proposal
	var jobStatus job.Status
	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		p, err := tx.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		j, err := tx.Jobs().GetByIDForUpdate(ctx, p.JobID)
		if err != nil {
			return err
		}
		if !j.IsOwner(callerID) {
			return ErrForbidden
		}
		if j.Status != job.StatusOpen {
			return invalidStatef("job is %s", j.Status)
		}
		jobStatus = j.Status

		p, err = tx.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		prev := p.Status
		if err := p.Shortlist(); err != nil {
			return err
		}
		now := u.now().UTC()
		if err := tx.Proposals().UpdateStatus(ctx, p.ID, prev, p.Status, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		out = p
		return nil
	})
	if err != nil {
		return proposal.Proposal{}, fail(u.log, op, err)
	}

	metrics.ObserveTransition("proposal", string(proposal.StatusSubmitted), string(proposal.StatusShortlisted))
	u.log.Info("proposal shortlisted", zap.Stringer("proposal_id", out.ID), zap.Stringer("job_id", out.JobID))
	publish(ctx, u.log, u.events, u.publishTimeout, event.Event{
		Type:       event.TypeProposalShortlisted,
		JobID:      out.JobID,
		ActorID:    &callerID,
		ProposalID: &out.ID,
		JobStatus:  string(jobStatus),
		Timestamp:  out.UpdatedAt,
	})
	return out, nil
}

func (u *Proposals) ListByJob(ctx context.Context, jobID uuid.UUID, status string) ([]proposal.Proposal, error) {
	const op = "list_proposals"

	var f repository.ProposalFilter
	if status = strings.TrimSpace(status); status != "" {
		st, err := proposal.ParseStatus(status)
		if err != nil {
			return nil, fail(u.log, op, validationf("%v", err))
		}
		f.Status = &st
	}

	if _, err := u.store.Jobs().GetByID(ctx, jobID); err != nil {
		return nil, fail(u.log, op, err)
	}
	items, err := u.store.Proposals().ListByJob(ctx, jobID, f)
	if err != nil {
		return nil, fail(u.log, op, err)
	}
	return items, nil
}

func (u *Proposals) Get(ctx context.Context, proposalID uuid.UUID) (proposal.Proposal, error) {
	p, err := u.store.Proposals().GetByID(ctx, proposalID)
	if err != nil {
		return proposal.Proposal{}, fail(u.log, "get_proposal", err)
	}
	return p, nil
}
