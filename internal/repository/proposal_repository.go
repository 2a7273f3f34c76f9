package repository

import (
	"context"
	"time"

	"gig-escrow/internal/database"
	"gig-escrow/internal/domain/proposal"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var proposalColumns = []string{
	"id", "job_id", "freelancer_id", "cover_letter", "proposed_rate", "status", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresProposalRepository struct {
	q database.Querier
}

func NewPostgresProposalRepository(q database.Querier) *PostgresProposalRepository {
	return &PostgresProposalRepository{q: q}
}

func (r *PostgresProposalRepository) Create(ctx context.Context, p proposal.Proposal) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO proposals (id, job_id, freelancer_id, cover_letter, proposed_rate, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.JobID, p.FreelancerID, p.CoverLetter, p.ProposedRate, string(p.Status), p.CreatedAt, p.UpdatedAt,
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

func (r *PostgresProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (proposal.Proposal, error) {
	query, args, err := psql.Select(proposalColumns...).From("proposals").Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return proposal.Proposal{}, err
	}
	return scanProposal(r.q.QueryRow(ctx, query, args...))
}

func (r *PostgresProposalRepository) ExistsForFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (bool, error) {
	var exists bool
	row := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM proposals WHERE job_id = $1 AND freelancer_id = $2)`,
		jobID, freelancerID,
	)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresProposalRepository) ListByJob(ctx context.Context, jobID uuid.UUID, f ProposalFilter) ([]proposal.Proposal, error) {
	b := psql.Select(proposalColumns...).From("proposals").Where(sq.Eq{"job_id": jobID.String()})
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	query, args, err := b.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]proposal.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to proposal.Status, now time.Time) error {
	affected, err := r.q.Exec(ctx,
		`UPDATE proposals SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), now, id, string(from),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func scanProposal(row database.Row) (proposal.Proposal, error) {
	var (
		p      proposal.Proposal
		status string
	)
	if err := row.Scan(&p.ID, &p.JobID, &p.FreelancerID, &p.CoverLetter, &p.ProposedRate, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isNoRows(err) {
			return proposal.Proposal{}, ErrNotFound
		}
		return proposal.Proposal{}, err
	}
	st, err := proposal.ParseStatus(status)
	if err != nil {
		return proposal.Proposal{}, err
	}
	p.Status = st
	return p, nil
}
