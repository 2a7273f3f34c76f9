package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/domain/review"
	"gig-escrow/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, s *Store) job.Job {
	t.Helper()
	j := job.New(uuid.New(), "t", "", []string{"Go"}, job.BudgetFixed, 10, nil, time.Now())
	require.NoError(t, s.Jobs().Create(context.Background(), j))
	return j
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	j := seedJob(t, s)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		cur, err := tx.Jobs().GetByIDForUpdate(ctx, j.ID)
		require.NoError(t, err)
		cur.Status = job.StatusCancelled
		_, err = tx.Jobs().Update(ctx, cur)
		require.NoError(t, err)
		require.NoError(t, tx.Proposals().Create(ctx, proposal.New(j.ID, uuid.New(), "hi", 1, time.Now())))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Jobs().GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, got.Status)
	assert.Equal(t, j.Version, got.Version)

	props, err := s.Proposals().ListByJob(ctx, j.ID, repository.ProposalFilter{})
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestInTx_CanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, func(context.Context, repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestJobUpdate_VersionCheck(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	j := seedJob(t, s)

	next, err := s.Jobs().Update(ctx, j)
	require.NoError(t, err)
	assert.Equal(t, j.Version+1, next.Version)

	_, err = s.Jobs().Update(ctx, j)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestReturnedJobsAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	j := seedJob(t, s)

	got, err := s.Jobs().GetByID(ctx, j.ID)
	require.NoError(t, err)
	got.SkillsRequired[0] = "Rust"

	again, err := s.Jobs().GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, again.SkillsRequired)
}

func TestProposalConstraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	j := seedJob(t, s)
	freelancer := uuid.New()

	first := proposal.New(j.ID, freelancer, "a", 1, time.Now())
	require.NoError(t, s.Proposals().Create(ctx, first))
	assert.ErrorIs(t, s.Proposals().Create(ctx, proposal.New(j.ID, freelancer, "b", 1, time.Now())), repository.ErrDuplicate)
	assert.ErrorIs(t, s.Proposals().Create(ctx, proposal.New(uuid.New(), freelancer, "c", 1, time.Now())), repository.ErrNotFound)

	second := proposal.New(j.ID, uuid.New(), "d", 1, time.Now())
	require.NoError(t, s.Proposals().Create(ctx, second))

	require.NoError(t, s.Proposals().UpdateStatus(ctx, first.ID, proposal.StatusSubmitted, proposal.StatusAccepted, time.Now()))
	assert.ErrorIs(t, s.Proposals().UpdateStatus(ctx, first.ID, proposal.StatusSubmitted, proposal.StatusAccepted, time.Now()), repository.ErrVersionConflict)
	assert.ErrorIs(t, s.Proposals().UpdateStatus(ctx, second.ID, proposal.StatusSubmitted, proposal.StatusAccepted, time.Now()), repository.ErrDuplicate)

	st := proposal.StatusAccepted
	accepted, err := s.Proposals().ListByJob(ctx, j.ID, repository.ProposalFilter{Status: &st})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)
}

func TestReviewPerRole(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	j := seedJob(t, s)

	rv := review.New(j.ID, j.ClientID, uuid.New(), review.RoleClient, 5, "great", time.Now())
	require.NoError(t, s.Reviews().Create(ctx, rv))

	dup := review.New(j.ID, j.ClientID, uuid.New(), review.RoleClient, 4, "again", time.Now())
	assert.ErrorIs(t, s.Reviews().Create(ctx, dup), repository.ErrDuplicate)

	ok, err := s.Reviews().ExistsForRole(ctx, j.ID, review.RoleClient)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Reviews().ExistsForRole(ctx, j.ID, review.RoleFreelancer)
	require.NoError(t, err)
	assert.False(t, ok)
}
