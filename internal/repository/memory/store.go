// Package memory is a process-local repository.Store. Every InTx callback
// runs under one mutex against a copy of the data, which replaces the
// committed copy only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/domain/review"
	"gig-escrow/internal/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	jobID uuid.UUID
	other uuid.UUID
}

type roleKey struct {
	jobID uuid.UUID
	role  review.Role
}

type state struct {
	jobs           map[uuid.UUID]job.Job
	proposals      map[uuid.UUID]proposal.Proposal
	proposalByPair map[pairKey]uuid.UUID
	reviews        map[uuid.UUID]review.Review
	reviewByRole   map[roleKey]uuid.UUID
}

func newState() *state {
	return &state{
		jobs:           map[uuid.UUID]job.Job{},
		proposals:      map[uuid.UUID]proposal.Proposal{},
		proposalByPair: map[pairKey]uuid.UUID{},
		reviews:        map[uuid.UUID]review.Review{},
		reviewByRole:   map[roleKey]uuid.UUID{},
	}
}

func (s *state) clone() *state {
	c := &state{
		jobs:           make(map[uuid.UUID]job.Job, len(s.jobs)),
		proposals:      make(map[uuid.UUID]proposal.Proposal, len(s.proposals)),
		proposalByPair: make(map[pairKey]uuid.UUID, len(s.proposalByPair)),
		reviews:        make(map[uuid.UUID]review.Review, len(s.reviews)),
		reviewByRole:   make(map[roleKey]uuid.UUID, len(s.reviewByRole)),
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.proposals {
		c.proposals[k] = v
	}
	for k, v := range s.proposalByPair {
		c.proposalByPair[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	for k, v := range s.reviewByRole {
		c.reviewByRole[k] = v
	}
	return c
}

type db struct {
	mu   sync.Mutex
	data *state
}

type Store struct {
	db *db
	tx *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{db: &db{data: newState()}}
}

func (s *Store) Jobs() repository.JobRepository {
	return jobRepo{s: s}
}

func (s *Store) Proposals() repository.ProposalRepository {
	return proposalRepo{s: s}
}

func (s *Store) Reviews() repository.ReviewRepository {
	return reviewRepo{s: s}
}

// InTx serializes fn against every other InTx call. fn must only use the
// Store it is handed; calling back into the outer Store deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.db.data.clone()
	if err := fn(ctx, &Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.data = work
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) do(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

type jobRepo struct {
	s *Store
}

func (r jobRepo) Create(_ context.Context, j job.Job) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.jobs[j.ID]; ok {
			return repository.ErrDuplicate
		}
		st.jobs[j.ID] = copyJob(j)
		return nil
	})
}

func (r jobRepo) GetByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	var out job.Job
	err := r.s.do(func(st *state) error {
		j, ok := st.jobs[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyJob(j)
		return nil
	})
	return out, err
}

func (r jobRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (job.Job, error) {
	return r.GetByID(ctx, id)
}

func (r jobRepo) Update(_ context.Context, j job.Job) (job.Job, error) {
	var out job.Job
	err := r.s.do(func(st *state) error {
		cur, ok := st.jobs[j.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != j.Version {
			return repository.ErrVersionConflict
		}
		next := copyJob(j)
		next.ClientID = cur.ClientID
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		next.UpdatedAt = time.Now().UTC()
		st.jobs[j.ID] = next
		out = copyJob(next)
		return nil
	})
	return out, err
}

type proposalRepo struct {
	s *Store
}

func (r proposalRepo) Create(_ context.Context, p proposal.Proposal) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.jobs[p.JobID]; !ok {
			return repository.ErrNotFound
		}
		key := pairKey{jobID: p.JobID, other: p.FreelancerID}
		if _, ok := st.proposalByPair[key]; ok {
			return repository.ErrDuplicate
		}
		if _, ok := st.proposals[p.ID]; ok {
			return repository.ErrDuplicate
		}
		st.proposals[p.ID] = p
		st.proposalByPair[key] = p.ID
		return nil
	})
}

func (r proposalRepo) GetByID(_ context.Context, id uuid.UUID) (proposal.Proposal, error) {
	var out proposal.Proposal
	err := r.s.do(func(st *state) error {
		p, ok := st.proposals[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r proposalRepo) ExistsForFreelancer(_ context.Context, jobID, freelancerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.s.do(func(st *state) error {
		_, exists = st.proposalByPair[pairKey{jobID: jobID, other: freelancerID}]
		return nil
	})
	return exists, err
}

func (r proposalRepo) ListByJob(_ context.Context, jobID uuid.UUID, f repository.ProposalFilter) ([]proposal.Proposal, error) {
	out := make([]proposal.Proposal, 0)
	err := r.s.do(func(st *state) error {
		for _, p := range st.proposals {
			if p.JobID != jobID {
				continue
			}
			if f.Status != nil && p.Status != *f.Status {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r proposalRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to proposal.Status, now time.Time) error {
	return r.s.do(func(st *state) error {
		p, ok := st.proposals[id]
		if !ok || p.Status != from {
			return repository.ErrVersionConflict
		}
		if to == proposal.StatusAccepted {
			for _, other := range st.proposals {
				if other.JobID == p.JobID && other.ID != p.ID && other.Status == proposal.StatusAccepted {
					return repository.ErrDuplicate
				}
			}
		}
		p.Status = to
		p.UpdatedAt = now
		st.proposals[id] = p
		return nil
	})
}

type reviewRepo struct {
	s *Store
}

func (r reviewRepo) Create(_ context.Context, rv review.Review) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.jobs[rv.JobID]; !ok {
			return repository.ErrNotFound
		}
		key := roleKey{jobID: rv.JobID, role: rv.ReviewerRole}
		if _, ok := st.reviewByRole[key]; ok {
			return repository.ErrDuplicate
		}
		st.reviews[rv.ID] = rv
		st.reviewByRole[key] = rv.ID
		return nil
	})
}

func (r reviewRepo) ExistsForRole(_ context.Context, jobID uuid.UUID, role review.Role) (bool, error) {
	var exists bool
	err := r.s.do(func(st *state) error {
		_, exists = st.reviewByRole[roleKey{jobID: jobID, role: role}]
		return nil
	})
	return exists, err
}

func (r reviewRepo) ListByJob(_ context.Context, jobID uuid.UUID) ([]review.Review, error) {
	out := make([]review.Review, 0)
	err := r.s.do(func(st *state) error {
		for _, rv := range st.reviews {
			if rv.JobID == jobID {
				out = append(out, rv)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copyJob(j job.Job) job.Job {
	if j.SkillsRequired != nil {
		j.SkillsRequired = append([]string(nil), j.SkillsRequired...)
	}
	if j.Deadline != nil {
		t := *j.Deadline
		j.Deadline = &t
	}
	if j.ClientReviewID != nil {
		id := *j.ClientReviewID
		j.ClientReviewID = &id
	}
	if j.HiredFreelancerID != nil {
		id := *j.HiredFreelancerID
		j.HiredFreelancerID = &id
	}
	if j.AcceptedProposalID != nil {
		id := *j.AcceptedProposalID
		j.AcceptedProposalID = &id
	}
	return j
}
