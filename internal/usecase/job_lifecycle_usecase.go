package usecase

import (
	"context"
	"strings"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/event"
	"gig-escrow/internal/metrics"
	"gig-escrow/internal/pkg/logger"
	"gig-escrow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTitleLength = 200

type CreateJobInput struct {
	Title          string
	Description    string
	SkillsRequired []string
	BudgetType     string
	BudgetAmount   float64
	Deadline       *time.Time
}

type JobLifecycleUsecase interface {
	CreateJob(ctx context.Context, clientID uuid.UUID, in CreateJobInput) (job.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	CancelJob(ctx context.Context, jobID, callerID uuid.UUID) (job.Job, error)
	// CompleteJob applies the external completion event.
	CompleteJob(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	// FundEscrow applies the external funding event.
	FundEscrow(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	ReleaseEscrow(ctx context.Context, jobID, callerID uuid.UUID) (job.Job, error)
}

type JobLifecycle struct {
	store          repository.Store
	events         event.Publisher
	log            *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewJobLifecycleUsecase(store repository.Store, events event.Publisher, log *zap.Logger) *JobLifecycle {
	if events == nil {
		events = event.Nop{}
	}
	return &JobLifecycle{store: store, events: events, log: logger.OrNop(log), now: time.Now, publishTimeout: DefaultPublishTimeout}
}

// SetPublishTimeout bounds how long an operation waits on event delivery after
// commit. Non-positive values keep the current bound.
func (u *JobLifecycle) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		u.publishTimeout = d
	}
}

func (u *JobLifecycle) CreateJob(ctx context.Context, clientID uuid.UUID, in CreateJobInput) (job.Job, error) {
	const op = "create_job"

	if clientID == uuid.Nil {
		return job.Job{}, fail(u.log, op, ErrForbidden)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return job.Job{}, fail(u.log, op, validationf("title is required"))
	}
	if len([]rune(title)) > maxTitleLength {
		return job.Job{}, fail(u.log, op, validationf("title exceeds %d characters", maxTitleLength))
	}
	budgetType, err := job.ParseBudgetType(strings.TrimSpace(in.BudgetType))
	if err != nil {
		return job.Job{}, fail(u.log, op, validationf("%v", err))
	}
	if err := validateMoney("budget amount", in.BudgetAmount); err != nil {
		return job.Job{}, fail(u.log, op, err)
	}

	now := u.now().UTC()
	if in.Deadline != nil && !in.Deadline.After(now) {
		return job.Job{}, fail(u.log, op, validationf("deadline must be in the future"))
	}

	j := job.New(clientID, title, strings.TrimSpace(in.Description), normalizeSkills(in.SkillsRequired), budgetType, in.BudgetAmount, in.Deadline, now)
	if err := u.store.Jobs().Create(ctx, j); err != nil {
		return job.Job{}, fail(u.log, op, err)
	}

	u.log.Info("job created", zap.Stringer("job_id", j.ID), zap.Stringer("client_id", clientID))
	publish(ctx, u.log, u.events, u.publishTimeout, jobEvent(event.TypeJobCreated, j, &clientID, now))
	return j, nil
}

func (u *JobLifecycle) GetJob(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	j, err := u.store.Jobs().GetByID(ctx, jobID)
	if err != nil {
		return job.Job{}, fail(u.log, "get_job", err)
	}
	return j, nil
}

func (u *JobLifecycle) CancelJob(ctx context.Context, jobID, callerID uuid.UUID) (job.Job, error) {
	return u.apply(ctx, "cancel_job", jobID, event.TypeJobCancelled, &callerID, func(j *job.Job) error {
		if !j.IsOwner(callerID) {
			return ErrForbidden
		}
		return j.Cancel()
	})
}

func (u *JobLifecycle) CompleteJob(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	return u.apply(ctx, "complete_job", jobID, event.TypeJobCompleted, nil, func(j *job.Job) error {
		return j.Complete()
	})
}

func (u *JobLifecycle) FundEscrow(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	return u.apply(ctx, "fund_escrow", jobID, event.TypeEscrowFunded, nil, func(j *job.Job) error {
		return j.FundEscrow()
	})
}

// ReleaseEscrow gates the payout on (owner) and (completed) and (funded). A
// second call fails with ErrAlreadyReleased and writes nothing.
func (u *JobLifecycle) ReleaseEscrow(ctx context.Context, jobID, callerID uuid.UUID) (job.Job, error) {
	return u.apply(ctx, "release_escrow", jobID, event.TypeEscrowReleased, &callerID, func(j *job.Job) error {
		if !j.IsOwner(callerID) {
			return ErrForbidden
		}
		return j.ReleaseEscrow()
	})
}

// apply locks the job row, runs mutate on a copy, and writes it back with a
// version check, all in one transaction.
func (u *JobLifecycle) apply(ctx context.Context, op string, jobID uuid.UUID, evtType event.Type, actor *uuid.UUID, mutate func(j *job.Job) error) (job.Job, error) {
	var before, after job.Job
	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		cur, err := tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		before = cur

		next := cur
		if err := mutate(&next); err != nil {
			return err
		}

		after, err = tx.Jobs().Update(ctx, next)
		return err
	})
	if err != nil {
		return job.Job{}, fail(u.log, op, err)
	}

	observeJobTransition(u.log, op, before, after)
	publish(ctx, u.log, u.events, u.publishTimeout, jobEvent(evtType, after, actor, u.now().UTC()))
	return after, nil
}

func observeJobTransition(log *zap.Logger, op string, before, after job.Job) {
	if before.Status != after.Status {
		metrics.ObserveTransition("job", string(before.Status), string(after.Status))
	}
	if before.EscrowStatus != after.EscrowStatus {
		metrics.ObserveTransition("escrow", string(before.EscrowStatus), string(after.EscrowStatus))
	}
	log.Info("job transition committed",
		zap.String("operation", op),
		zap.Stringer("job_id", after.ID),
		zap.String("status_from", string(before.Status)),
		zap.String("status_to", string(after.Status)),
		zap.String("escrow_from", string(before.EscrowStatus)),
		zap.String("escrow_to", string(after.EscrowStatus)),
		zap.Int64("version", after.Version),
	)
}

func jobEvent(t event.Type, j job.Job, actor *uuid.UUID, now time.Time) event.Event {
	return event.Event{
		Type:         t,
		JobID:        j.ID,
		ActorID:      actor,
		JobStatus:    string(j.Status),
		EscrowStatus: string(j.EscrowStatus),
		BudgetAmount: j.BudgetAmount,
		Timestamp:    now,
	}
}

func normalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
