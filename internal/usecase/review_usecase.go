package usecase

import (
	"context"
	"errors"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/review"
	"gig-escrow/internal/event"
	"gig-escrow/internal/pkg/logger"
	"gig-escrow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmitReviewInput struct {
	JobID      uuid.UUID
	RevieweeID uuid.UUID
	Rating     int
	Comment    string
}

type ReviewUsecase interface {
	SubmitClientReview(ctx context.Context, reviewerID uuid.UUID, in SubmitReviewInput) (review.Review, error)
	SubmitFreelancerReview(ctx context.Context, reviewerID uuid.UUID, in SubmitReviewInput) (review.Review, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]review.Review, error)
}

type Reviews struct {
	store          repository.Store
	events         event.Publisher
	log            *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewReviewUsecase(store repository.Store, events event.Publisher, log *zap.Logger) *Reviews {
	if events == nil {
		events = event.Nop{}
	}
	return &Reviews{store: store, events: events, log: logger.OrNop(log), now: time.Now, publishTimeout: DefaultPublishTimeout}
}

func (u *Reviews) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		u.publishTimeout = d
	}
}

// SubmitClientReview records the client's review and links it from the job in
// the same transaction. A job accepts exactly one client review.
func (u *Reviews) SubmitClientReview(ctx context.Context, reviewerID uuid.UUID, in SubmitReviewInput) (review.Review, error) {
	const op = "submit_client_review"

	if err := review.ValidateContent(in.Rating, in.Comment); err != nil {
		return review.Review{}, fail(u.log, op, validationf("%v", err))
	}

	var rv review.Review
	var after job.Job
	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		j, err := tx.Jobs().GetByIDForUpdate(ctx, in.JobID)
		if err != nil {
			return err
		}
		if !j.IsOwner(reviewerID) {
			return ErrForbidden
		}
		if j.Status != job.StatusCompleted {
			return invalidStatef("job is %s", j.Status)
		}
		if j.ClientReviewID != nil {
			return invalidStatef("job already reviewed")
		}
		if !j.IsHired(in.RevieweeID) {
			return validationf("reviewee is not the hired freelancer")
		}

		rv = review.New(j.ID, reviewerID, in.RevieweeID, review.RoleClient, in.Rating, in.Comment, u.now().UTC())
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidStatef("job already reviewed")
			}
			return err
		}
		if err := j.AttachClientReview(rv.ID); err != nil {
			return err
		}
		after, err = tx.Jobs().Update(ctx, j)
		return err
	})
	if err != nil {
		return review.Review{}, fail(u.log, op, err)
	}

	u.log.Info("client review submitted",
		zap.Stringer("review_id", rv.ID),
		zap.Stringer("job_id", rv.JobID),
		zap.Int("rating", rv.Rating),
	)
	evt := jobEvent(event.TypeReviewSubmitted, after, &reviewerID, rv.CreatedAt)
	evt.ReviewID = &rv.ID
	publish(ctx, u.log, u.events, u.publishTimeout, evt)
	return rv, nil
}

// SubmitFreelancerReview records the hired freelancer's review of the client.
// It does not touch the job row beyond locking it.
func (u *Reviews) SubmitFreelancerReview(ctx context.Context, reviewerID uuid.UUID, in SubmitReviewInput) (review.Review, error) {
	const op = "submit_freelancer_review"

	if err := review.ValidateContent(in.Rating, in.Comment); err != nil {
		return review.Review{}, fail(u.log, op, validationf("%v", err))
	}

	var rv review.Review
	var j job.Job
	err := u.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		j, err = tx.Jobs().GetByIDForUpdate(ctx, in.JobID)
		if err != nil {
			return err
		}
		if !j.IsHired(reviewerID) {
			return ErrForbidden
		}
		if j.Status != job.StatusCompleted {
			return invalidStatef("job is %s", j.Status)
		}
		if !j.IsOwner(in.RevieweeID) {
			return validationf("reviewee is not the job's client")
		}

		exists, err := tx.Reviews().ExistsForRole(ctx, j.ID, review.RoleFreelancer)
		if err != nil {
			return err
		}
		if exists {
			return invalidStatef("job already reviewed by freelancer")
		}

		rv = review.New(j.ID, reviewerID, in.RevieweeID, review.RoleFreelancer, in.Rating, in.Comment, u.now().UTC())
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidStatef("job already reviewed by freelancer")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return review.Review{}, fail(u.log, op, err)
	}

	u.log.Info("freelancer review submitted", zap.Stringer("review_id", rv.ID), zap.Stringer("job_id", rv.JobID))
	evt := jobEvent(event.TypeReviewSubmitted, j, &reviewerID, rv.CreatedAt)
	evt.ReviewID = &rv.ID
	publish(ctx, u.log, u.events, u.publishTimeout, evt)
	return rv, nil
}

func (u *Reviews) ListByJob(ctx context.Context, jobID uuid.UUID) ([]review.Review, error) {
	const op = "list_reviews"

	if _, err := u.store.Jobs().GetByID(ctx, jobID); err != nil {
		return nil, fail(u.log, op, err)
	}
	items, err := u.store.Reviews().ListByJob(ctx, jobID)
	if err != nil {
		return nil, fail(u.log, op, err)
	}
	return items, nil
}
