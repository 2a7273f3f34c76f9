package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

const HeaderInternalToken = "X-Internal-Token"

// InternalTokenMiddleware guards the endpoints through which external
// systems report completion and funding.
type InternalTokenMiddleware struct {
	token []byte
}

func NewInternalTokenMiddleware(token string) *InternalTokenMiddleware {
	return &InternalTokenMiddleware{token: []byte(strings.TrimSpace(token))}
}

func (m *InternalTokenMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		got := []byte(strings.TrimSpace(c.Get(HeaderInternalToken)))
		if len(m.token) == 0 || len(got) == 0 || subtle.ConstantTimeCompare(got, m.token) != 1 {
			return NewAppError(fiber.StatusUnauthorized, "Invalid internal token", nil, nil)
		}
		return c.Next()
	}
}
