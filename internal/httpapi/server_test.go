package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/recommend"
)

const testSecret = "test-secret"

type stubRecommender struct {
	result recommend.Result
	err    error
	panic  bool

	userID string
	limit  int
}

func (s *stubRecommender) GetRecommendations(_ context.Context, userID string, limit int) (recommend.Result, error) {
	s.userID = userID
	s.limit = limit
	if s.panic {
		panic("nil job")
	}
	return s.result, s.err
}

func newTestServer(t *testing.T, svc Recommender, log *zap.Logger) (*Server, *Authenticator) {
	t.Helper()

	auth, err := NewAuthenticator(testSecret, nil)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	srv, err := New(Config{MaxLimit: 20}, svc, auth, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, auth
}

func doRequest(t *testing.T, srv *Server, target, token string) (*http.Response, response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var out response
	_ = json.Unmarshal(body, &out)
	return resp, out
}

func seekerToken(t *testing.T, auth *Authenticator) string {
	t.Helper()

	token, err := auth.Issue("u1", RoleSeeker, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubRecommender{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Fatal("expected request id header")
	}
}

func TestRecommendationsSuccess(t *testing.T) {
	svc := &stubRecommender{result: recommend.Result{
		Recommendations: []recommend.Recommendation{{Job: &board.JobPosting{ID: "j1"}, Score: 0.8, Source: recommend.SourceHeuristic}},
		Message:         recommend.MessageSuccess,
	}}
	srv, auth := newTestServer(t, svc, nil)

	resp, out := doRequest(t, srv, "/api/v1/recommendations?limit=5", seekerToken(t, auth))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if out.Count != 1 || out.MessageCode != recommend.MessageSuccess || out.Message != Messages[recommend.MessageSuccess] {
		t.Fatalf("unexpected body: %+v", out)
	}
	if out.Recommendations[0].Job.ID != "j1" || out.Recommendations[0].Score != 0.8 {
		t.Fatalf("unexpected recommendation: %+v", out.Recommendations[0])
	}
	if svc.userID != "u1" || svc.limit != 5 {
		t.Fatalf("unexpected call: user %q limit %d", svc.userID, svc.limit)
	}
}

func TestRecommendationsLimitClamping(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{query: "", want: recommend.DefaultLimit},
		{query: "?limit=abc", want: recommend.DefaultLimit},
		{query: "?limit=0", want: recommend.DefaultLimit},
		{query: "?limit=-3", want: recommend.DefaultLimit},
		{query: "?limit=1", want: 1},
		{query: "?limit=500", want: 20},
	}

	for _, tc := range cases {
		svc := &stubRecommender{result: recommend.Result{Message: recommend.MessageNoSuitableJobs}}
		srv, auth := newTestServer(t, svc, nil)

		doRequest(t, srv, "/api/v1/recommendations"+tc.query, seekerToken(t, auth))

		if svc.limit != tc.want {
			t.Fatalf("%q: got limit %d, want %d", tc.query, svc.limit, tc.want)
		}
	}
}

func TestRecommendationsPreconditionsAreSoft(t *testing.T) {
	for _, sentinel := range []error{recommend.ErrProfileNotFound, recommend.ErrProfileIncomplete} {
		srv, auth := newTestServer(t, &stubRecommender{err: sentinel}, nil)

		resp, out := doRequest(t, srv, "/api/v1/recommendations", seekerToken(t, auth))

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%v: unexpected status %d", sentinel, resp.StatusCode)
		}
		if out.MessageCode != recommend.CodeFor(sentinel) || out.Count != 0 || out.Recommendations == nil {
			t.Fatalf("%v: unexpected body %+v", sentinel, out)
		}
	}
}

func TestRecommendationsUnexpectedError(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	srv, auth := newTestServer(t, &stubRecommender{err: errors.New("db down")}, zap.New(core))

	resp, out := doRequest(t, srv, "/api/v1/recommendations", seekerToken(t, auth))

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if out.MessageCode != recommend.MessageError || out.Message != Messages[recommend.MessageError] {
		t.Fatalf("unexpected body %+v", out)
	}

	if observed.FilterMessage("recommendations failed").Len() != 1 {
		t.Fatal("expected error log")
	}

	access := observed.FilterMessage("http access").All()
	if len(access) != 1 {
		t.Fatalf("expected one access log line, got %d", len(access))
	}
	fields := access[0].ContextMap()
	if fields["status"] != int64(http.StatusInternalServerError) || fields["user_id"] != "u1" || fields["request_id"] == "" {
		t.Fatalf("unexpected access log fields: %v", fields)
	}
}

func TestRecommendationsPanicIsRecovered(t *testing.T) {
	srv, auth := newTestServer(t, &stubRecommender{panic: true}, nil)

	resp, out := doRequest(t, srv, "/api/v1/recommendations", seekerToken(t, auth))

	if resp.StatusCode != http.StatusInternalServerError || out.MessageCode != recommend.MessageError {
		t.Fatalf("unexpected response %d %+v", resp.StatusCode, out)
	}
}

func TestRecommendationsAuth(t *testing.T) {
	srv, auth := newTestServer(t, &stubRecommender{}, nil)

	employer, err := auth.Issue("u2", "employer", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired, err := auth.Issue("u1", RoleSeeker, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, _ := NewAuthenticator("other-secret", nil)
	forged, err := other.Issue("u1", RoleSeeker, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "garbage", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired", token: expired, want: http.StatusUnauthorized},
		{name: "wrong secret", token: forged, want: http.StatusUnauthorized},
		{name: "wrong role", token: employer, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doRequest(t, srv, "/api/v1/recommendations", tc.token)
			if resp.StatusCode != tc.want {
				t.Fatalf("got status %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestAuthenticatorValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	auth, err := NewAuthenticator(testSecret, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	token, err := auth.Issue("u1", RoleSeeker, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := auth.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != RoleSeeker {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	now = now.Add(2 * time.Hour)
	if _, err := auth.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := NewAuthenticator(" ", nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "bearer  abc ", token: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "", ok: false},
	}

	for _, tc := range cases {
		token, ok := bearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("bearerToken(%q) = %q, %v", tc.header, token, ok)
		}
	}
}
