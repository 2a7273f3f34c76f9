package repository

import (
	"context"

	"gig-escrow/internal/database"
	"gig-escrow/internal/domain/review"

	"github.com/google/uuid"
)

type PostgresReviewRepository struct {
	q database.Querier
}

func NewPostgresReviewRepository(q database.Querier) *PostgresReviewRepository {
	return &PostgresReviewRepository{q: q}
}

func (r *PostgresReviewRepository) Create(ctx context.Context, rv review.Review) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO reviews (id, job_id, reviewer_id, reviewee_id, rating, comment, reviewer_role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rv.ID, rv.JobID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment, string(rv.ReviewerRole), rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *PostgresReviewRepository) ExistsForRole(ctx context.Context, jobID uuid.UUID, role review.Role) (bool, error) {
	var exists bool
	row := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE job_id = $1 AND reviewer_role = $2)`,
		jobID, string(role),
	)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresReviewRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]review.Review, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, job_id, reviewer_id, reviewee_id, rating, comment, reviewer_role, created_at
		 FROM reviews
		 WHERE job_id = $1
		 ORDER BY created_at ASC`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]review.Review, 0)
	for rows.Next() {
		var (
			rv   review.Review
			role string
		)
		if err := rows.Scan(&rv.ID, &rv.JobID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &role, &rv.CreatedAt); err != nil {
			return nil, err
		}
		if rv.ReviewerRole, err = review.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
