package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

type mockPlanner struct {
	result    *planner.Result
	planErr   error
	statuses  map[string]planner.Status
	cancelled []string

	lastUserID  string
	lastRequest trip.Request
}

func (m *mockPlanner) Plan(_ context.Context, userID string, req trip.Request) (*planner.Result, error) {
	m.lastUserID = userID
	m.lastRequest = req
	return m.result, m.planErr
}

func (m *mockPlanner) SessionStatus(_ context.Context, sessionID string) (planner.Status, bool) {
	status, ok := m.statuses[sessionID]
	return status, ok
}

func (m *mockPlanner) CancelSession(_ context.Context, sessionID string) bool {
	_, ok := m.statuses[sessionID]
	if ok {
		m.cancelled = append(m.cancelled, sessionID)
		delete(m.statuses, sessionID)
	}
	return ok
}

type mockTripReader struct {
	trips map[string]*trip.StoredTrip
}

func (m *mockTripReader) Get(_ context.Context, id string) (*trip.StoredTrip, error) {
	return m.trips[id], nil
}

func (m *mockTripReader) ListRecentByUserID(_ context.Context, userID string, _ int) ([]trip.StoredTrip, error) {
	var out []trip.StoredTrip
	for _, stored := range m.trips {
		if stored.UserID == userID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

type mockSessionLister struct {
	sessions []*planner.Session
}

func (m *mockSessionLister) ListSessionsByUser(_ context.Context, userID string, _ int) ([]*planner.Session, error) {
	var out []*planner.Session
	for _, session := range m.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}

type mockIntent struct {
	req trip.Request
	err error
}

func (m mockIntent) Extract(_ context.Context, _ string) (trip.Request, shared.StageMeta, error) {
	return m.req, shared.StageMeta{Stage: "intent", Success: m.err == nil}, m.err
}

func newAuthedRequest(t *testing.T, auth *Authenticator, method, path, body string) *http.Request {
	t.Helper()
	token, err := auth.IssueToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthNoAuth(t *testing.T) {
	s := NewServer(&mockPlanner{}, nil, NewAuthenticator("secret"), nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body %q missing status ok", rec.Body.String())
	}
}

func TestPlanRequiresAuth(t *testing.T) {
	s := NewServer(&mockPlanner{}, nil, NewAuthenticator("secret"), nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", strings.NewReader("{}")))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer not-a-token")
	s.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", rec.Code)
	}
}

func TestPlanStructuredRequest(t *testing.T) {
	auth := NewAuthenticator("secret")
	mp := &mockPlanner{result: &planner.Result{
		SessionID:       "sess-1",
		FormattedOutput: "# Your Trip",
		Context:         &trip.TravelContext{Request: trip.Request{Destination: "Bangkok"}},
	}}
	s := NewServer(mp, nil, auth, nil, nil, nil)

	body := `{"request": {"destination": "Bangkok", "duration_days": 3, "travelers": 2}}`
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodPost, "/api/v1/plan", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if mp.lastUserID != "user-42" {
		t.Errorf("planner saw user %q, want the token subject", mp.lastUserID)
	}
	if mp.lastRequest.Destination != "Bangkok" {
		t.Errorf("planner saw destination %q, want Bangkok", mp.lastRequest.Destination)
	}

	var resp planResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id %q, want sess-1", resp.SessionID)
	}
	if resp.Message != "# Your Trip" {
		t.Errorf("message %q, want the formatted output", resp.Message)
	}
}

func TestPlanFreeTextUsesIntent(t *testing.T) {
	auth := NewAuthenticator("secret")
	mp := &mockPlanner{result: &planner.Result{SessionID: "sess-2"}}
	intent := mockIntent{req: trip.Request{Destination: "Paris", DurationDays: 4, Travelers: 1}}
	s := NewServer(mp, intent, auth, nil, nil, nil)

	body := `{"message": "plan me 4 days in Paris"}`
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodPost, "/api/v1/plan", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if mp.lastRequest.Destination != "Paris" {
		t.Errorf("planner saw destination %q, want the extracted Paris", mp.lastRequest.Destination)
	}
}

func TestPlanBadRequests(t *testing.T) {
	auth := NewAuthenticator("secret")
	s := NewServer(&mockPlanner{}, mockIntent{err: errors.New("no destination found in query")}, auth, nil, nil, nil)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"empty body", "{}", http.StatusBadRequest},
		{"unparseable message", `{"message": "gibberish"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodPost, "/api/v1/plan", tc.body))
			if rec.Code != tc.want {
				t.Errorf("status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestPlanEngineFailure(t *testing.T) {
	auth := NewAuthenticator("secret")
	mp := &mockPlanner{planErr: errors.New("venue discovery failed: quota")}
	s := NewServer(mp, nil, auth, nil, nil, nil)

	body := `{"request": {"destination": "Atlantis", "duration_days": 2}}`
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodPost, "/api/v1/plan", body))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", rec.Code)
	}
}

func TestSessionStatusAndCancel(t *testing.T) {
	auth := NewAuthenticator("secret")
	mp := &mockPlanner{statuses: map[string]planner.Status{
		"sess-9": {SessionID: "sess-9", Phase: planner.PhaseCompleted},
	}}
	s := NewServer(mp, nil, auth, nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/sessions/sess-9", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var status planner.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.Phase != planner.PhaseCompleted {
		t.Errorf("phase %q, want completed", status.Phase)
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/sessions/missing", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodDelete, "/api/v1/sessions/sess-9", ""))
	if rec.Code != http.StatusNoContent {
		t.Errorf("cancel status %d, want 204", rec.Code)
	}
	if len(mp.cancelled) != 1 || mp.cancelled[0] != "sess-9" {
		t.Errorf("cancelled %v, want [sess-9]", mp.cancelled)
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodDelete, "/api/v1/sessions/sess-9", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second cancel status %d, want 404", rec.Code)
	}
}

func TestGetTripEnforcesOwnership(t *testing.T) {
	auth := NewAuthenticator("secret")
	trips := &mockTripReader{trips: map[string]*trip.StoredTrip{
		"trip-1": {
			ID:     "trip-1",
			UserID: "user-42",
			Context: &trip.TravelContext{
				Request: trip.Request{Destination: "Bangkok", DurationDays: 3},
			},
		},
		"trip-2": {ID: "trip-2", UserID: "someone-else"},
	}}
	s := NewServer(&mockPlanner{}, nil, auth, nil, trips, nil)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/trips/trip-1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("own trip status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var stored trip.StoredTrip
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decoding trip: %v", err)
	}
	if stored.Context == nil || stored.Context.Request.Destination != "Bangkok" {
		t.Errorf("trip context %+v, want the stored Bangkok request", stored.Context)
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/trips/trip-2", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign trip status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/trips/missing", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing trip status %d, want 404", rec.Code)
	}
}

func TestListTripsFiltersByUser(t *testing.T) {
	auth := NewAuthenticator("secret")
	trips := &mockTripReader{trips: map[string]*trip.StoredTrip{
		"trip-1": {
			ID:     "trip-1",
			UserID: "user-42",
			Context: &trip.TravelContext{
				Request: trip.Request{Destination: "Lisbon", DurationDays: 2},
			},
		},
		"trip-2": {ID: "trip-2", UserID: "someone-else"},
	}}
	s := NewServer(&mockPlanner{}, nil, auth, nil, trips, nil)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/trips", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp struct {
		Trips []tripSummary `json:"trips"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(resp.Trips) != 1 {
		t.Fatalf("got %d trips, want only the caller's 1", len(resp.Trips))
	}
	if resp.Trips[0].Destination != "Lisbon" || resp.Trips[0].Days != 2 {
		t.Errorf("summary %+v, want Lisbon over 2 days", resp.Trips[0])
	}
}

func TestListSessionsFiltersByUser(t *testing.T) {
	auth := NewAuthenticator("secret")
	sessions := &mockSessionLister{sessions: []*planner.Session{
		{ID: "sess-a", UserID: "user-42", Phase: planner.PhaseCompleted},
		{ID: "sess-b", UserID: "someone-else", Phase: planner.PhaseError},
	}}
	s := NewServer(&mockPlanner{}, nil, auth, nil, nil, sessions)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, newAuthedRequest(t, auth, http.MethodGet, "/api/v1/sessions", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp struct {
		Sessions []planner.Status `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].SessionID != "sess-a" {
		t.Fatalf("sessions %+v, want only the caller's sess-a", resp.Sessions)
	}
	if resp.Sessions[0].Phase != planner.PhaseCompleted {
		t.Errorf("phase %q, want completed", resp.Sessions[0].Phase)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewAuthenticator("other-secret").IssueToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	if _, err := NewAuthenticator("secret").Verify(token); err == nil {
		t.Error("expected verification to fail for a token signed with a different secret")
	}
}
