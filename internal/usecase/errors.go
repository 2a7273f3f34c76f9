package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gig-escrow/internal/domain/job"
	"gig-escrow/internal/domain/proposal"
	"gig-escrow/internal/event"
	"gig-escrow/internal/metrics"
	"gig-escrow/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrInternal     = errors.New("internal error")

	// ErrAlreadyReleased matches ErrInvalidState under errors.Is.
	ErrAlreadyReleased = fmt.Errorf("%w: escrow already released", ErrInvalidState)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// classify folds domain and repository errors into the usecase taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrConflict), errors.Is(err, ErrValidation), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, job.ErrAlreadyReleased):
		return ErrAlreadyReleased
	case errors.Is(err, job.ErrInvalidTransition), errors.Is(err, job.ErrAlreadyReviewed),
		errors.Is(err, proposal.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return invalidStatef("concurrent update")
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAlreadyReleased):
		return "already_released"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

// fail classifies err, counts it and logs internal failures with their cause.
func fail(log *zap.Logger, op string, err error) error {
	out := classify(err)
	kind := kindOf(out)
	metrics.ObserveError(op, kind)
	if kind == "internal" {
		log.Error("operation failed", zap.String("operation", op), zap.Error(err))
	}
	return out
}

// DefaultPublishTimeout bounds event delivery when nothing else is configured.
const DefaultPublishTimeout = 5 * time.Second

// publish runs after commit; a delivery failure or timeout never undoes the
// transition. The caller's cancellation is detached so a disconnecting client
// does not drop the event, but delivery is still bounded by timeout.
func publish(ctx context.Context, log *zap.Logger, pub event.Publisher, timeout time.Duration, evt event.Event) {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := pub.Publish(pctx, evt); err != nil {
		log.Warn("event publish failed", zap.String("type", string(evt.Type)), zap.Stringer("job_id", evt.JobID), zap.Error(err))
	}
}
