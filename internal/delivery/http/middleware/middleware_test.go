package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gig-escrow/internal/infrastructure/cache"
	"gig-escrow/internal/pkg/jwt"
	"gig-escrow/internal/pkg/response"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T, mws ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(NewErrorMiddleware(zaptest.NewLogger(t)).Middleware())
	for _, mw := range mws {
		app.Use(mw)
	}
	return app
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, response.SemanticResponse) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env response.SemanticResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func TestErrorMiddleware(t *testing.T) {
	app := newTestApp(t)
	app.Get("/app", func(fiber.Ctx) error {
		return NewAppError(fiber.StatusForbidden, "", nil, errors.New("nope"))
	})
	app.Get("/fiber", func(fiber.Ctx) error { return fiber.NewError(fiber.StatusConflict, "taken") })
	app.Get("/internal", func(fiber.Ctx) error {
		return NewAppError(fiber.StatusInternalServerError, "db password is hunter2", nil, nil)
	})
	app.Get("/plain", func(fiber.Ctx) error { return errors.New("boom") })
	app.Get("/panic", func(fiber.Ctx) error { panic("kaboom") })

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/app", fiber.StatusForbidden, response.MessageForbidden},
		{"/fiber", fiber.StatusConflict, "taken"},
		{"/internal", fiber.StatusInternalServerError, response.MessageInternalServerError},
		{"/plain", fiber.StatusInternalServerError, response.MessageInternalServerError},
		{"/panic", fiber.StatusInternalServerError, response.MessageInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, env := send(t, app, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.status, env.Status)
			assert.Equal(t, tc.message, env.Message)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	svc := jwt.NewHMACService("secret", "gig-escrow", time.Hour)
	app := newTestApp(t, NewAuthMiddleware(svc).Middleware())
	app.Get("/me", func(c fiber.Ctx) error {
		id, ok := CallerID(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(id.String())
	})

	user := uuid.New()
	tok, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, user.String(), string(body))
	})

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic " + tok,
		"garbage":      "Bearer not-a-token",
		"other secret": "Bearer " + mustToken(t, jwt.NewHMACService("other", "gig-escrow", time.Hour), user),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, _ := send(t, app, req)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthStreamMiddleware(t *testing.T) {
	svc := jwt.NewHMACService("secret", "gig-escrow", time.Hour)
	whoami := func(c fiber.Ctx) error {
		id, ok := CallerID(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(id.String())
	}
	stream := newTestApp(t, NewAuthMiddleware(svc).StreamMiddleware())
	stream.Get("/ws", whoami)
	plain := newTestApp(t, NewAuthMiddleware(svc).Middleware())
	plain.Get("/ws", whoami)

	user := uuid.New()
	tok := mustToken(t, svc, user)

	t.Run("query token", func(t *testing.T) {
		resp, err := stream.Test(httptest.NewRequest(http.MethodGet, "/ws?access_token="+tok, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, user.String(), string(body))
	})

	t.Run("header token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := stream.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("no token", func(t *testing.T) {
		resp, _ := send(t, stream, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad query token", func(t *testing.T) {
		resp, _ := send(t, stream, httptest.NewRequest(http.MethodGet, "/ws?access_token=nope", nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("api routes ignore query token", func(t *testing.T) {
		resp, _ := send(t, plain, httptest.NewRequest(http.MethodGet, "/ws?access_token="+tok, nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func mustToken(t *testing.T, svc jwt.Service, user uuid.UUID) string {
	t.Helper()
	tok, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	return tok
}

func TestInternalTokenMiddleware(t *testing.T) {
	app := newTestApp(t, NewInternalTokenMiddleware("s3cret").Middleware())
	app.Put("/complete", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for token, want := range map[string]int{
		"":        fiber.StatusUnauthorized,
		"wrong":   fiber.StatusUnauthorized,
		"s3cret":  fiber.StatusNoContent,
		" s3cret": fiber.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPut, "/complete", nil)
		if token != "" {
			req.Header.Set(HeaderInternalToken, token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, "token %q", token)
	}

	closed := newTestApp(t, NewInternalTokenMiddleware("").Middleware())
	closed.Put("/complete", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	req := httptest.NewRequest(http.MethodPut, "/complete", nil)
	resp, err := closed.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func newIdempotencyApp(t *testing.T, calls *atomic.Int32, status int) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := cache.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = store.Close() })

	app := newTestApp(t, NewIdempotencyMiddleware(store, time.Hour, zaptest.NewLogger(t)).Middleware())
	app.Post("/jobs", func(c fiber.Ctx) error {
		n := calls.Add(1)
		if status >= 400 {
			return NewAppError(status, "", nil, nil)
		}
		return response.Success(c, status, "", map[string]int32{"call": n})
	})
	return app, mr
}

func idemRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	return req
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	var calls atomic.Int32
	app, _ := newIdempotencyApp(t, &calls, fiber.StatusCreated)

	first, env1 := send(t, app, idemRequest("k1"))
	second, env2 := send(t, app, idemRequest("k1"))

	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(HeaderIdempotentReplay))
	assert.Equal(t, env1, env2)
	assert.EqualValues(t, 1, calls.Load())

	send(t, app, idemRequest("k2"))
	send(t, app, idemRequest(""))
	assert.EqualValues(t, 3, calls.Load())
}

func TestIdempotency_CachesClientErrors(t *testing.T) {
	var calls atomic.Int32
	app, _ := newIdempotencyApp(t, &calls, fiber.StatusConflict)

	first, _ := send(t, app, idemRequest("k"))
	second, _ := send(t, app, idemRequest("k"))
	assert.Equal(t, fiber.StatusConflict, first.StatusCode)
	assert.Equal(t, fiber.StatusConflict, second.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestIdempotency_DoesNotCacheServerErrors(t *testing.T) {
	var calls atomic.Int32
	app, _ := newIdempotencyApp(t, &calls, fiber.StatusInternalServerError)

	send(t, app, idemRequest("k"))
	send(t, app, idemRequest("k"))
	assert.EqualValues(t, 2, calls.Load())
}

func TestIdempotency_InFlightKey(t *testing.T) {
	var calls atomic.Int32
	app, mr := newIdempotencyApp(t, &calls, fiber.StatusCreated)
	require.NoError(t, mr.Set("idem:anonymous:POST:/jobs:k:lock", "1"))

	resp, _ := send(t, app, idemRequest("k"))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.EqualValues(t, 0, calls.Load())
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	var calls atomic.Int32
	app, _ := newIdempotencyApp(t, &calls, fiber.StatusCreated)

	resp, _ := send(t, app, idemRequest(strings.Repeat("x", maxIdempotencyKeyLength+1)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestIdempotency_DisabledStorePassesThrough(t *testing.T) {
	app := newTestApp(t, NewIdempotencyMiddleware(&cache.Redis{}, time.Hour, nil).Middleware())
	var calls atomic.Int32
	app.Post("/jobs", func(c fiber.Ctx) error {
		calls.Add(1)
		return c.SendStatus(fiber.StatusCreated)
	})

	send(t, app, idemRequest("k"))
	send(t, app, idemRequest("k"))
	assert.EqualValues(t, 2, calls.Load())
}

func TestAccessLog_SetsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(zaptest.NewLogger(t)).Middleware())
	app.Get("/x", func(c fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get("X-Request-ID"))
}
