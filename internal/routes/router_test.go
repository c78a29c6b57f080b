package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylark/opscommand/internal/api"
	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/common"
	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/intent"
	"skylark/opscommand/internal/metrics"
	"skylark/opscommand/internal/providers"
	"skylark/opscommand/internal/services"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	handler http.Handler
	store   *providers.MemoryStore
	tokens  *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "router-test-secret"
	cfg.Limits.RequestsPerSecond = 1000
	cfg.Limits.Burst = 1000

	store := providers.NewMemoryStore(providers.DefaultLayouts(constants.TablePilots, constants.TableMissions))
	store.Seed(constants.TablePilots,
		map[string]string{"pilot_id": "P1", "name": "Arjun", "skills": "Mapping", "location": "Bangalore", "status": "Available"},
		map[string]string{"pilot_id": "P2", "name": "Neha", "skills": "Thermal", "location": "Mumbai", "status": "Assigned", "current_assignment": "PRJ001"},
		map[string]string{"pilot_id": "P3", "name": "Rohit", "skills": "Thermal", "location": "Mumbai", "status": "Available"},
	)
	store.Seed(constants.TableMissions,
		map[string]string{"mission_id": "PRJ002", "assigned_pilot_id": "P3", "start_date": "2025-03-01", "end_date": "2025-03-05"},
	)

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsRegistry(reg)
	roster := services.NewRosterService(store, services.RosterServiceConfig{})

	deps := &api.Dependencies{
		Config:     cfg,
		Metrics:    m,
		Tokens:     tokens,
		Sessions:   common.NewSessionService(common.NewCacheService(time.Hour, time.Minute), time.Hour, intent.SystemPrompt),
		Roster:     roster,
		Dispatcher: dispatch.NewDispatcher(intent.NewHeuristicResolver(), nil, roster, dispatch.WithMetrics(m)),
		Health:     map[string]api.HealthCheck{},
		UpSince:    time.Now(),
	}

	return &testServer{handler: RegisterRoutes(deps, reg), store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, role constants.StaffRole) string {
	t.Helper()
	tok, _, err := s.tokens.Issue("tester", role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/pilots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/healthCheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ChatSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, constants.RoleOperator)

	rec, env := s.do(t, http.MethodPost, "/api/v1/sessions", tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.SessionID)

	base := "/api/v1/sessions/" + session.SessionID

	rec, env = s.do(t, http.MethodPost, base+"/messages", tok, map[string]string{"message": "mark P1 on leave"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reply struct {
		Reply   string `json:"reply"`
		Kind    string `json:"kind"`
		Tool    string `json:"tool"`
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, "tool_call", reply.Kind)
	assert.Equal(t, "update_pilot_status", reply.Tool)
	assert.Equal(t, "updated", reply.Outcome)
	assert.Contains(t, reply.Reply, "Updated P1 (Arjun) to On Leave.")
	assert.Equal(t, 1, s.store.Writes())

	rec, env = s.do(t, http.MethodGet, base+"/messages", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Messages, 2, "system prompt and tool traffic are hidden")
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "assistant", history.Messages[1].Role)

	rec, _ = s.do(t, http.MethodDelete, base, tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, base+"/messages", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ViewerChatCannotUpdate(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, constants.RoleViewer)

	_, env := s.do(t, http.MethodPost, "/api/v1/sessions", tok, nil)
	var session struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	rec, env := s.do(t, http.MethodPost, "/api/v1/sessions/"+session.SessionID+"/messages", tok, map[string]string{"message": "mark P1 on leave"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"outcome":"forbidden"`)
	assert.Equal(t, 0, s.store.Writes())
}

func TestRouter_MessageValidation(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, constants.RoleOperator)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/sessions/missing/messages", tok, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env := s.do(t, http.MethodPost, "/api/v1/sessions", tok, nil)
	var session struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/sessions/"+session.SessionID+"/messages", tok, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Roster(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, constants.RoleViewer)

	rec, env := s.do(t, http.MethodGet, "/api/v1/pilots?skill=thermal&available=yes", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roster struct {
		Outcome string `json:"outcome"`
		Pilots  []struct {
			PilotID string `json:"pilot_id"`
		} `json:"pilots"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	assert.Equal(t, "found", roster.Outcome)
	require.Len(t, roster.Pilots, 1)
	assert.Equal(t, "P3", roster.Pilots[0].PilotID)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/pilots?available=maybe", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.store.SetUnavailable(constants.TablePilots, true)
	rec, env = s.do(t, http.MethodGet, "/api/v1/pilots", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, env.Message, "unavailable")
}

func TestRouter_Conflicts(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, constants.RoleViewer)

	tests := []struct {
		path    string
		code    int
		outcome string
	}{
		{"/api/v1/pilots/P1/conflicts?date=2025-03-02", http.StatusOK, "clear"},
		{"/api/v1/pilots/P2/conflicts", http.StatusOK, "assigned"},
		{"/api/v1/pilots/P3/conflicts?date=2025-03-02", http.StatusOK, "mission_overlap"},
		{"/api/v1/pilots/p3/conflicts?date=2025-03-02", http.StatusOK, "mission_overlap"},
		{"/api/v1/pilots/P9/conflicts", http.StatusNotFound, ""},
		{"/api/v1/pilots/P1/conflicts?date=03/02/2025", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, tok, nil)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.outcome != "" {
				assert.Contains(t, string(env.Data), `"outcome":"`+tt.outcome+`"`)
			}
		})
	}
}

func TestRouter_StatusUpdateRequiresOperator(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPatch, "/api/v1/pilots/P1/status", s.token(t, constants.RoleViewer), map[string]string{"status": "On Leave"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, s.store.Writes())

	op := s.token(t, constants.RoleOperator)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/pilots/p1/status", op, map[string]string{"status": "on leave"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.store.Writes())

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/pilots/P1/status", op, map[string]string{"status": "Sleeping"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/pilots/P999/status", op, map[string]string{"status": "Available"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.store.Writes())
}

func TestRouter_AuditRequiresAdminAndStore(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/audit", s.token(t, constants.RoleOperator), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit", s.token(t, constants.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/healthCheck", "", nil)

	rec, _ := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skylark_http_requests_total")
}
