package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/constants"
	reqctx "skylark/opscommand/internal/context"
	"skylark/opscommand/internal/metrics"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return svc
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	viewer, _, _ := tokens.Issue("sam", constants.RoleViewer)

	var seen auth.UserClaims
	h := AuthMiddleware(tokens, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetUserClaims(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Basic abc", http.StatusUnauthorized},
		{"valid", "Bearer " + viewer, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if seen == nil || seen.UserID() != "sam" || seen.CanWrite() {
		t.Errorf("Expected read-only claims for sam, got %+v", seen)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	var seen auth.UserClaims
	h := AuthMiddleware(nil, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetUserClaims(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.Role() != constants.RoleAdmin.String() {
		t.Errorf("Expected local admin claims, got %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(constants.RoleOperator, constants.RoleAdmin)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without claims, got %d", rec.Code)
	}

	tokens := newTokens(t)
	for role, want := range map[constants.StaffRole]int{
		constants.RoleViewer:   http.StatusForbidden,
		constants.RoleOperator: http.StatusOK,
		constants.RoleAdmin:    http.StatusOK,
	} {
		tok, _, _ := tokens.Issue("u", role)
		claims, _ := tokens.Validate(tok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.SetUserClaims(req.Context(), claims))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, rec.Code)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected loopback to be unlimited, got %d", rec.Code)
		}
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	reg := metrics.NewMetricsRegistry(prometheus.NewRegistry())

	var requestID string
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware(reg))
	r.Get("/pilots/{id}", func(w http.ResponseWriter, r *http.Request) {
		requestID = reqctx.GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pilots/P1", nil))

	if requestID == "" || rec.Header().Get("X-Request-ID") != requestID {
		t.Errorf("Expected generated request id echoed in header, got %q / %q", requestID, rec.Header().Get("X-Request-ID"))
	}

	got := testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/pilots/{id}", "GET", "418"))
	if got != 1 {
		t.Errorf("Expected 1 request recorded under route pattern, got %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/pilots/P2", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if requestID != "abc" {
		t.Errorf("Expected incoming request id to be kept, got %q", requestID)
	}
}
