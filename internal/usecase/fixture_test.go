package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/event"
	"gig-escrow/internal/repository"
	"gig-escrow/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) count(t event.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	store     *memory.Store
	pub       *recordingPublisher
	jobs      *JobLifecycle
	proposals *Proposals
	reviews   *Reviews

	client uuid.UUID
	f1     uuid.UUID
	f2     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	log := zaptest.NewLogger(t)
	return &fixture{
		store:     store,
		pub:       pub,
		jobs:      NewJobLifecycleUsecase(store, pub, log),
		proposals: NewProposalUsecase(store, pub, log),
		reviews:   NewReviewUsecase(store, pub, log),
		client:    uuid.New(),
		f1:        uuid.New(),
		f2:        uuid.New(),
	}
}

func (f *fixture) openJob(t *testing.T) job.Job {
	t.Helper()
	j, err := f.jobs.CreateJob(context.Background(), f.client, CreateJobInput{
		Title:          "Build an API",
		SkillsRequired: []string{"Go", "go", " PostgreSQL "},
		BudgetType:     "fixed",
		BudgetAmount:   500,
	})
	require.NoError(t, err)
	return j
}

func (f *fixture) submit(t *testing.T, jobID, freelancer uuid.UUID) proposal.Proposal {
	t.Helper()
	p, err := f.proposals.Submit(context.Background(), jobID, freelancer, SubmitProposalInput{
		CoverLetter:  "I can do this",
		ProposedRate: 450,
	})
	require.NoError(t, err)
	return p
}

// hiredJob returns a job with f1 hired through proposal p.
func (f *fixture) hiredJob(t *testing.T) (job.Job, proposal.Proposal) {
	t.Helper()
	j := f.openJob(t)
	p := f.submit(t, j.ID, f.f1)
	j, err := f.proposals.Accept(context.Background(), p.ID, f.client)
	require.NoError(t, err)
	return j, p
}

// completedFundedJob returns a completed job with f1 hired and escrow funded.
func (f *fixture) completedFundedJob(t *testing.T) job.Job {
	t.Helper()
	ctx := context.Background()
	j, _ := f.hiredJob(t)
	_, err := f.jobs.FundEscrow(ctx, j.ID)
	require.NoError(t, err)
	j, err = f.jobs.CompleteJob(ctx, j.ID)
	require.NoError(t, err)
	return j
}

func (f *fixture) job(t *testing.T, id uuid.UUID) job.Job {
	t.Helper()
	j, err := f.store.Jobs().GetByID(context.Background(), id)
	require.NoError(t, err)
	return j
}

func (f *fixture) assertInvariants(t *testing.T, jobIDs ...uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, id := range jobIDs {
		j := f.job(t, id)
		require.NoError(t, j.CheckInvariants())

		props, err := f.store.Proposals().ListByJob(ctx, id, repository.ProposalFilter{})
		require.NoError(t, err)
		accepted := 0
		for _, p := range props {
			if p.Status == proposal.StatusAccepted {
				accepted++
				require.NotNil(t, j.AcceptedProposalID)
				require.Equal(t, p.ID, *j.AcceptedProposalID)
			}
		}
		require.LessOrEqual(t, accepted, 1)
		if j.Status == job.StatusInProgress || j.Status == job.StatusCompleted {
			require.Equal(t, 1, accepted)
		}
	}
}

// stubStore fails every job lookup with err.
type stubStore struct {
	err error
}

func (s stubStore) Jobs() repository.JobRepository           { return stubJobs(s) }
func (s stubStore) Proposals() repository.ProposalRepository { return nil }
func (s stubStore) Reviews() repository.ReviewRepository     { return nil }
func (s stubStore) Ping(context.Context) error               { return s.err }
func (s stubStore) InTx(ctx context.Context, fn func(context.Context, repository.Store) error) error {
	return fn(ctx, s)
}

type stubJobs stubStore

func (s stubJobs) Create(context.Context, job.Job) error { return s.err }
func (s stubJobs) GetByID(context.Context, uuid.UUID) (job.Job, error) {
	return job.Job{}, s.err
}
func (s stubJobs) GetByIDForUpdate(context.Context, uuid.UUID) (job.Job, error) {
	return job.Job{}, s.err
}
func (s stubJobs) Update(context.Context, job.Job) (job.Job, error) { return job.Job{}, s.err }

var errBoom = errors.New("boom")
