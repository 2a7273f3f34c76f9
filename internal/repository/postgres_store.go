package repository

import (
	"context"

	"gig-escrow/internal/database"
)

type PostgresStore struct {
	db database.DB
	q  database.Querier
	tx bool
}

func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Jobs() JobRepository {
	return &PostgresJobRepository{q: s.q}
}

func (s *PostgresStore) Proposals() ProposalRepository {
	return &PostgresProposalRepository{q: s.q}
}

func (s *PostgresStore) Reviews() ReviewRepository {
	return &PostgresReviewRepository{q: s.q}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx {
		return fn(ctx, s)
	}
	return database.WithTx(ctx, s.db, func(tx database.Tx) error {
		return fn(ctx, &PostgresStore{db: s.db, q: tx, tx: true})
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return database.ErrNilDB
	}
	return s.db.Ping(ctx)
}
