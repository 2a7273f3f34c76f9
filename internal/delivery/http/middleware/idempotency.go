package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replay"
	maxIdempotencyKeyLength = 128
	idempotencyLockTTL      = 30 * time.Second
)

type IdempotencyStore interface {
	Enabled() bool
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the first non-5xx response recorded for an
// Idempotency-Key, so a retried mutation observes the original outcome. It
// must run after AuthMiddleware; keys are scoped to the caller.
type IdempotencyMiddleware struct {
	store  IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewIdempotencyMiddleware(store IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotencyMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

func (m *IdempotencyMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.store == nil || !m.store.Enabled() {
			return c.Next()
		}
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut {
			return c.Next()
		}
		raw := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if raw == "" {
			return c.Next()
		}
		if len(raw) > maxIdempotencyKeyLength {
			return NewAppError(fiber.StatusBadRequest, "Idempotency-Key too long", nil, nil)
		}

		caller := "anonymous"
		if id, ok := CallerID(c); ok {
			caller = id.String()
		}
		key := "idem:" + caller + ":" + method + ":" + c.Path() + ":" + raw
		ctx := c.Context()

		var prev storedResponse
		found, err := m.store.GetJSON(ctx, key, &prev)
		if err != nil {
			m.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		if found {
			return replay(c, prev)
		}

		acquired, err := m.store.SetIfNotExists(ctx, key+":lock", "1", idempotencyLockTTL)
		if err != nil {
			m.logger.Warn("idempotency lock failed", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		if !acquired {
			return NewAppError(fiber.StatusConflict, "Request with this Idempotency-Key is in progress", nil, nil)
		}
		defer func() {
			if err := m.store.Delete(context.WithoutCancel(ctx), key+":lock"); err != nil {
				m.logger.Warn("idempotency unlock failed", zap.String("key", key), zap.Error(err))
			}
		}()

		if err := c.Next(); err != nil {
			if rerr := renderError(c, err); rerr != nil {
				return rerr
			}
		}

		status := c.Response().StatusCode()
		if status >= 500 {
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		rec := storedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        body,
		}
		if err := m.store.SetJSON(context.WithoutCancel(ctx), key, rec, m.ttl); err != nil {
			m.logger.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
}

func replay(c fiber.Ctx, rec storedResponse) error {
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	c.Set(HeaderIdempotentReplay, "true")
	return c.Status(rec.Status).Send(rec.Body)
}
