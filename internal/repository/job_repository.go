package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gig-escrow/internal/database"
	"gig-escrow/internal/domain/job"

	"github.com/google/uuid"
)

const jobColumns = `id, client_id, title, description, skills_required::text, budget_type, budget_amount,
	deadline, status, escrow_status, client_review_id, hired_freelancer_id, accepted_proposal_id,
	version, created_at, updated_at`

type PostgresJobRepository struct {
	q database.Querier
}

func NewPostgresJobRepository(q database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{q: q}
}

func (r *PostgresJobRepository) Create(ctx context.Context, j job.Job) error {
	skills, err := encodeSkills(j.SkillsRequired)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx,
		`INSERT INTO jobs (id, client_id, title, description, skills_required, budget_type, budget_amount,
			deadline, status, escrow_status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13)`,
		j.ID, j.ClientID, j.Title, j.Description, skills, string(j.BudgetType), j.BudgetAmount,
		nullTime(j.Deadline), string(j.Status), string(j.EscrowStatus), j.Version, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	row := r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (r *PostgresJobRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (job.Job, error) {
	row := r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
	return scanJob(row)
}

func (r *PostgresJobRepository) Update(ctx context.Context, j job.Job) (job.Job, error) {
	now := time.Now().UTC()
	affected, err := r.q.Exec(ctx,
		`UPDATE jobs
		 SET status = $1, escrow_status = $2, client_review_id = $3, hired_freelancer_id = $4,
		     accepted_proposal_id = $5, version = version + 1, updated_at = $6
		 WHERE id = $7 AND version = $8`,
		string(j.Status), string(j.EscrowStatus), nullUUID(j.ClientReviewID), nullUUID(j.HiredFreelancerID),
		nullUUID(j.AcceptedProposalID), now, j.ID, j.Version,
	)
	if err != nil {
		return job.Job{}, err
	}
	if affected == 0 {
		return job.Job{}, ErrVersionConflict
	}

	j.Version++
	j.UpdatedAt = now
	return j, nil
}

func scanJob(row database.Row) (job.Job, error) {
	var (
		j                                 job.Job
		skills, budgetType, status, escrw string
		deadline                          sql.NullTime
		reviewID, freelancerID, propID    uuid.NullUUID
	)
	err := row.Scan(
		&j.ID, &j.ClientID, &j.Title, &j.Description, &skills, &budgetType, &j.BudgetAmount,
		&deadline, &status, &escrw, &reviewID, &freelancerID, &propID,
		&j.Version, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return job.Job{}, ErrNotFound
		}
		return job.Job{}, err
	}

	if j.SkillsRequired, err = decodeSkills(skills); err != nil {
		return job.Job{}, err
	}
	if j.BudgetType, err = job.ParseBudgetType(budgetType); err != nil {
		return job.Job{}, err
	}
	if j.Status, err = job.ParseStatus(status); err != nil {
		return job.Job{}, err
	}
	if j.EscrowStatus, err = job.ParseEscrowStatus(escrw); err != nil {
		return job.Job{}, err
	}
	if deadline.Valid {
		t := deadline.Time
		j.Deadline = &t
	}
	j.ClientReviewID = uuidPtr(reviewID)
	j.HiredFreelancerID = uuidPtr(freelancerID)
	j.AcceptedProposalID = uuidPtr(propID)
	return j, nil
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("encode skills: %w", err)
	}
	return string(b), nil
}

func decodeSkills(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	return out, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
