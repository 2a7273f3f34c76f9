// Package seeder loads demo marketplace data through the usecase layer, so
// every seeded row has passed the same guards as live traffic.
package seeder

import (
	"context"

	"gig-escrow/internal/usecase"
)

type Deps struct {
	Jobs      usecase.JobLifecycleUsecase
	Proposals usecase.ProposalUsecase
	Reviews   usecase.ReviewUsecase
}

type Seeder interface {
	Name() string
	Run(ctx context.Context, deps Deps) error
}
