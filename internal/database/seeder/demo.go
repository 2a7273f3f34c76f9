package seeder

import (
	"context"
	"fmt"

	"gig-escrow/internal/usecase"

	"github.com/google/uuid"
)

// Demo creates one job in each interesting state: open with two proposals,
// fully paid out and reviewed, and cancelled.
type Demo struct {
	ClientID     uuid.UUID
	FreelancerID uuid.UUID
	OtherID      uuid.UUID

	// Created receives the id of every job the seeder made, in order.
	Created []uuid.UUID
}

func (d *Demo) Name() string { return "demo_marketplace" }

func (d *Demo) Run(ctx context.Context, deps Deps) error {
	if d.ClientID == uuid.Nil {
		d.ClientID = uuid.New()
	}
	if d.FreelancerID == uuid.Nil {
		d.FreelancerID = uuid.New()
	}
	if d.OtherID == uuid.Nil {
		d.OtherID = uuid.New()
	}

	open, err := deps.Jobs.CreateJob(ctx, d.ClientID, usecase.CreateJobInput{
		Title:          "Build a REST API for an inventory service",
		Description:    "Go, PostgreSQL, Docker",
		SkillsRequired: []string{"Go", "PostgreSQL"},
		BudgetType:     "fixed",
		BudgetAmount:   1500,
	})
	if err != nil {
		return fmt.Errorf("create open job: %w", err)
	}
	d.Created = append(d.Created, open.ID)
	for _, f := range []uuid.UUID{d.FreelancerID, d.OtherID} {
		if _, err := deps.Proposals.Submit(ctx, open.ID, f, usecase.SubmitProposalInput{
			CoverLetter:  "I have shipped several services like this one.",
			ProposedRate: 1400,
		}); err != nil {
			return fmt.Errorf("submit proposal: %w", err)
		}
	}

	done, err := deps.Jobs.CreateJob(ctx, d.ClientID, usecase.CreateJobInput{
		Title:          "Fix flaky CI pipeline",
		SkillsRequired: []string{"GitHub Actions"},
		BudgetType:     "hourly",
		BudgetAmount:   60,
	})
	if err != nil {
		return fmt.Errorf("create paid job: %w", err)
	}
	d.Created = append(d.Created, done.ID)
	p, err := deps.Proposals.Submit(ctx, done.ID, d.FreelancerID, usecase.SubmitProposalInput{
		CoverLetter:  "Happy to take this on this week.",
		ProposedRate: 55,
	})
	if err != nil {
		return fmt.Errorf("submit proposal: %w", err)
	}
	steps := []func() error{
		func() error { _, err := deps.Proposals.Accept(ctx, p.ID, d.ClientID); return err },
		func() error { _, err := deps.Jobs.FundEscrow(ctx, done.ID); return err },
		func() error { _, err := deps.Jobs.CompleteJob(ctx, done.ID); return err },
		func() error { _, err := deps.Jobs.ReleaseEscrow(ctx, done.ID, d.ClientID); return err },
		func() error {
			_, err := deps.Reviews.SubmitClientReview(ctx, d.ClientID, usecase.SubmitReviewInput{
				JobID: done.ID, RevieweeID: d.FreelancerID, Rating: 5, Comment: "Great work",
			})
			return err
		},
		func() error {
			_, err := deps.Reviews.SubmitFreelancerReview(ctx, d.FreelancerID, usecase.SubmitReviewInput{
				JobID: done.ID, RevieweeID: d.ClientID, Rating: 5, Comment: "Clear requirements, fast payment",
			})
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("paid job step %d: %w", i+1, err)
		}
	}

	cancelled, err := deps.Jobs.CreateJob(ctx, d.ClientID, usecase.CreateJobInput{
		Title:        "Logo refresh",
		BudgetType:   "fixed",
		BudgetAmount: 200,
	})
	if err != nil {
		return fmt.Errorf("create cancelled job: %w", err)
	}
	d.Created = append(d.Created, cancelled.ID)
	if _, err := deps.Jobs.CancelJob(ctx, cancelled.ID, d.ClientID); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}

	return nil
}
