package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/cimillas/seatlease/internal/session"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testOpsToken = "ops-secret"

var testNow = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

type stubHolds struct {
	created   app.CreateHoldInput
	hold      domain.Hold
	holds     []domain.Hold
	blocked   []app.BlockInput
	unblocked []app.BlockInput
	calledBy  string
	err       error
}

func (s *stubHolds) CreateHold(_ context.Context, in app.CreateHoldInput) (domain.Hold, error) {
	s.created = in
	return s.hold, s.err
}

func (s *stubHolds) ExtendHold(_ context.Context, _, sessionID string) (domain.Hold, error) {
	s.calledBy = sessionID
	return s.hold, s.err
}

func (s *stubHolds) ReleaseHold(_ context.Context, _, sessionID string) error {
	s.calledBy = sessionID
	return s.err
}

func (s *stubHolds) UpgradeHoldToCheckout(_ context.Context, _, sessionID string) (domain.Hold, error) {
	s.calledBy = sessionID
	return s.hold, s.err
}

func (s *stubHolds) GetActiveHolds(_ context.Context, _, sessionID string) ([]domain.Hold, error) {
	s.calledBy = sessionID
	return s.holds, s.err
}

func (s *stubHolds) BlockInventory(_ context.Context, in app.BlockInput) error {
	s.blocked = append(s.blocked, in)
	return s.err
}

func (s *stubHolds) UnblockInventory(_ context.Context, in app.BlockInput) error {
	s.unblocked = append(s.unblocked, in)
	return s.err
}

type stubOrders struct {
	in     app.ConvertHoldInput
	result app.ConvertHoldResult
	err    error
}

func (s *stubOrders) ConvertHold(_ context.Context, in app.ConvertHoldInput) (app.ConvertHoldResult, error) {
	s.in = in
	return s.result, s.err
}

type stubAvailability struct {
	seats []domain.SeatStatus
	zones []domain.ZoneMetrics
	err   error
}

func (s *stubAvailability) GetEventSeatStatuses(context.Context, string) ([]domain.SeatStatus, error) {
	return s.seats, s.err
}

func (s *stubAvailability) GetZoneMetrics(context.Context, string) ([]domain.ZoneMetrics, error) {
	return s.zones, s.err
}

func (s *stubAvailability) Snapshot(_ context.Context, eventID string) (app.Snapshot, error) {
	if s.err != nil {
		return app.Snapshot{}, s.err
	}
	return app.Snapshot{EventID: eventID, Seats: s.seats, Zones: s.zones, TakenAt: testNow}, nil
}

type stubRecommendations struct {
	in          app.RecommendInput
	suggestions []domain.ZoneSuggestion
	err         error
}

func (s *stubRecommendations) Recommend(_ context.Context, in app.RecommendInput) ([]domain.ZoneSuggestion, error) {
	s.in = in
	return s.suggestions, s.err
}

type stubCatalog struct {
	events   []domain.Event
	zones    []domain.Zone
	seats    []domain.Seat
	imported catalog.FloorPlan
	zoneIn   app.CreateZoneInput
	err      error
}

func (s *stubCatalog) CreateEvent(_ context.Context, in app.CreateEventInput) (domain.Event, error) {
	if s.err != nil {
		return domain.Event{}, s.err
	}
	status := in.Status
	if status == "" {
		status = domain.EventStatusDraft
	}
	return domain.Event{ID: "event-1", Name: in.Name, StartsAt: testNow, Status: status}, nil
}

func (s *stubCatalog) ListEvents(context.Context) ([]domain.Event, error) {
	return s.events, s.err
}

func (s *stubCatalog) SetEventStatus(_ context.Context, eventID string, status domain.EventStatus) (domain.Event, error) {
	return domain.Event{ID: eventID, Status: status}, s.err
}

func (s *stubCatalog) CreateZone(_ context.Context, in app.CreateZoneInput) (domain.Zone, []domain.Seat, error) {
	s.zoneIn = in
	if s.err != nil {
		return domain.Zone{}, nil, s.err
	}
	return domain.Zone{ID: "zone-1", EventID: in.EventID, Name: in.Name, Capacity: in.Capacity, Seated: len(in.SeatLabels) > 0}, s.seats, nil
}

func (s *stubCatalog) ListZones(context.Context, string) ([]domain.Zone, error) {
	return s.zones, s.err
}

func (s *stubCatalog) ImportFloorPlan(_ context.Context, plan catalog.FloorPlan) (app.ImportResult, error) {
	s.imported = plan
	if s.err != nil {
		return app.ImportResult{}, s.err
	}
	return app.ImportResult{
		Event: domain.Event{ID: "event-9", Name: plan.Event.Name, Status: domain.EventStatusDraft},
		Zones: []domain.Zone{{ID: "zone-9", Name: plan.Zones[0].Name}},
		Seats: 4,
	}, nil
}

type stubSweeper struct {
	result app.CleanupResult
	err    error
}

func (s *stubSweeper) Trigger(context.Context) (app.CleanupResult, error) {
	return s.result, s.err
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Issuer
}

func newTestServer(t *testing.T, d Deps) *testServer {
	t.Helper()
	issuer := session.NewIssuer("test-secret", time.Hour, clock.NewSystem())
	if d.Sessions == nil {
		d.Sessions = issuer
	}
	if d.OpsToken == "" {
		d.OpsToken = testOpsToken
	}
	return &testServer{router: NewRouter(d), sessions: issuer}
}

func (s *testServer) token(t *testing.T, id session.Identity) string {
	t.Helper()
	token, _, _, err := s.sessions.Issue(id)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return token
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, resp.Code, resp.Error)
	}
}

type pingerFunc func() error

func (f pingerFunc) Ping(context.Context) error { return f() }
