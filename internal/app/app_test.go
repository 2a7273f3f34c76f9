package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gig-escrow/internal/config"
	"gig-escrow/internal/delivery/http/middleware"
	"gig-escrow/internal/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const internalToken = "internal-secret"

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	app    *App
	tokens *jwt.HMACService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.Config{
		App:      config.AppConfig{AppName: "gig-escrow-test", HTTPPort: "0"},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Redis:    config.RedisConfig{Host: mr.Host(), Port: mr.Port(), IdempotencyTTL: time.Hour},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "gig-escrow", AccessExpiresIn: time.Hour},
		Internal: config.InternalConfig{Token: internalToken},
	}
	a, closeFn, err := Bootstrap(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	return &testServer{
		t:      t,
		app:    a,
		tokens: jwt.NewHMACService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiresIn),
	}
}

func (s *testServer) token(userID uuid.UUID) string {
	s.t.Helper()
	tok, err := s.tokens.GenerateAccessToken(userID)
	require.NoError(s.t, err)
	return tok
}

// do sends a request as user (uuid.Nil for none) and decodes the envelope.
func (s *testServer) do(method, path string, user uuid.UUID, body any, headers map[string]string) (*http.Response, envelope) {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+s.token(user))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Fiber.Test(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

type jobBody struct {
	ID                 uuid.UUID  `json:"id"`
	Status             string     `json:"status"`
	EscrowStatus       string     `json:"escrowStatus"`
	HiredFreelancerID  *uuid.UUID `json:"hiredFreelancerId"`
	AcceptedProposalID *uuid.UUID `json:"acceptedProposalId"`
	ClientReviewID     *uuid.UUID `json:"clientReviewId"`
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func internalRequest(method, path string) (string, string, map[string]string) {
	return method, path, map[string]string{middleware.HeaderInternalToken: internalToken}
}

func TestHTTP_FullLifecycle(t *testing.T) {
	s := newTestServer(t)
	client, freelancer, other := uuid.New(), uuid.New(), uuid.New()

	resp, env := s.do(http.MethodPost, "/api/v1/jobs", client, map[string]any{
		"title":          "Build an API",
		"skillsRequired": []string{"Go"},
		"budgetType":     "fixed",
		"budgetAmount":   500,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[jobBody](t, env)
	assert.Equal(t, "open", created.Status)
	jobPath := "/api/v1/jobs/" + created.ID.String()

	resp, env = s.do(http.MethodPost, jobPath+"/proposals", freelancer, map[string]any{
		"coverLetter": "I can do this", "proposedRate": 450,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	prop := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, env)

	resp, _ = s.do(http.MethodPost, jobPath+"/proposals", freelancer, map[string]any{
		"coverLetter": "again", "proposedRate": 400,
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, jobPath+"/proposals", client, map[string]any{
		"coverLetter": "my own job", "proposedRate": 1,
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodGet, jobPath+"/proposals?status=submitted", client, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)

	acceptPath := "/api/v1/proposals/" + prop.ID.String() + "/accept"
	resp, _ = s.do(http.MethodPut, acceptPath, other, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodPut, acceptPath, client, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hired := decode[jobBody](t, env)
	assert.Equal(t, "in_progress", hired.Status)
	require.NotNil(t, hired.HiredFreelancerID)
	assert.Equal(t, freelancer, *hired.HiredFreelancerID)

	resp, _ = s.do(http.MethodPut, "/internal/v1/jobs/"+created.ID.String()+"/fund", uuid.Nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	m, p, h := internalRequest(http.MethodPut, "/internal/v1/jobs/"+created.ID.String()+"/fund")
	resp, env = s.do(m, p, uuid.Nil, nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "funded", decode[jobBody](t, env).EscrowStatus)

	resp, _ = s.do(http.MethodPut, jobPath+"/release", client, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	m, p, h = internalRequest(http.MethodPut, "/internal/v1/jobs/"+created.ID.String()+"/complete")
	resp, env = s.do(m, p, uuid.Nil, nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", decode[jobBody](t, env).Status)

	resp, env = s.do(http.MethodPut, jobPath+"/release", client, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "released", decode[jobBody](t, env).EscrowStatus)

	resp, env = s.do(http.MethodPut, jobPath+"/release", client, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Escrow already released", env.Message)

	review := map[string]any{
		"jobId": created.ID, "revieweeId": other, "rating": 5, "comment": "Great work",
	}
	resp, _ = s.do(http.MethodPost, "/api/v1/reviews", client, review, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	review["revieweeId"] = freelancer
	resp, _ = s.do(http.MethodPost, "/api/v1/reviews", client, review, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/v1/reviews", client, review, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(http.MethodGet, jobPath, client, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode[jobBody](t, env).ClientReviewID)

	resp, env = s.do(http.MethodGet, jobPath+"/reviews", freelancer, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)
}

func TestHTTP_Errors(t *testing.T) {
	s := newTestServer(t)
	user := uuid.New()

	resp, _ := s.do(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), uuid.Nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := s.do(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), user, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, env.Status)

	resp, _ = s.do(http.MethodGet, "/api/v1/jobs/not-a-uuid", user, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(http.MethodPost, "/api/v1/jobs", user, map[string]any{"title": "x", "budgetType": "weekly"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decode[[]string](t, env))

	for _, amount := range []float64{1e13, 10.005} {
		resp, _ = s.do(http.MethodPost, "/api/v1/jobs", user, map[string]any{"title": "x", "budgetType": "fixed", "budgetAmount": amount}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%v", amount)
	}
}

func TestHTTP_IdempotentReplay(t *testing.T) {
	s := newTestServer(t)
	client := uuid.New()
	body := map[string]any{"title": "Logo", "budgetType": "fixed", "budgetAmount": 50}
	headers := map[string]string{middleware.HeaderIdempotencyKey: "create-logo-1"}

	first, env1 := s.do(http.MethodPost, "/api/v1/jobs", client, body, headers)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Empty(t, first.Header.Get(middleware.HeaderIdempotentReplay))

	second, env2 := s.do(http.MethodPost, "/api/v1/jobs", client, body, headers)
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(middleware.HeaderIdempotentReplay))
	assert.Equal(t, decode[jobBody](t, env1).ID, decode[jobBody](t, env2).ID)

	third, env3 := s.do(http.MethodPost, "/api/v1/jobs", uuid.New(), body, headers)
	require.Equal(t, http.StatusCreated, third.StatusCode)
	assert.NotEqual(t, decode[jobBody](t, env1).ID, decode[jobBody](t, env3).ID)
}

func TestHTTP_Health(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodGet, "/health", uuid.Nil, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[map[string]string](t, env)
	assert.Equal(t, "up", status["database"])
	assert.Equal(t, "up", status["cache"])
}

func TestHTTP_JobStreamRequiresCaller(t *testing.T) {
	s := newTestServer(t)
	user := uuid.New()
	missing := "/ws/jobs?job_id=" + uuid.NewString()

	resp, _ := s.do(http.MethodGet, missing, uuid.Nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/ws/jobs", user, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/ws/jobs?job_id=nope", user, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, missing, user, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, missing+"&access_token="+s.token(user), uuid.Nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9000")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)

	_, err = ListenAddr(" ")
	assert.Error(t, err)
}
