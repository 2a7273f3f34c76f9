package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/domain/review"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
)

type JobRepository interface {
	Create(ctx context.Context, j job.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (job.Job, error)
	// GetByIDForUpdate locks the job row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (job.Job, error)
	// Update writes j only if the stored version still equals j.Version and
	// returns the job with its new version.
	Update(ctx context.Context, j job.Job) (job.Job, error)
}

type ProposalFilter struct {
	Status *proposal.Status
}

type ProposalRepository interface {
	Create(ctx context.Context, p proposal.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (proposal.Proposal, error)
	ExistsForFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, f ProposalFilter) ([]proposal.Proposal, error)
	// UpdateStatus is a compare-and-set on the proposal's status column.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to proposal.Status, now time.Time) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r review.Review) error
	ExistsForRole(ctx context.Context, jobID uuid.UUID, role review.Role) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]review.Review, error)
}

// Store groups the repositories behind one unit of work. Repositories
// obtained from the Store passed to an InTx callback share its transaction.
type Store interface {
	Jobs() JobRepository
	Proposals() ProposalRepository
	Reviews() ReviewRepository
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
