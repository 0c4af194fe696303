package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
)

// fakeStore is an in-memory InventoryStore with transactional rollback.
// Transactions are serialized, which matches the outcome of row locks for
// the operations under test.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	events  map[string]domain.Event
	zones   map[string]domain.ZoneState
	seats   map[string]domain.SeatStatus
	holds   map[string]domain.Hold
	orders  map[string]domain.Order
	recs    []domain.RecommendationRecord
	pending []domain.AvailabilityChange

	published []domain.AvailabilityChange

	expireErr map[string]error
	recordErr error
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[string]domain.Event),
		zones:     make(map[string]domain.ZoneState),
		seats:     make(map[string]domain.SeatStatus),
		holds:     make(map[string]domain.Hold),
		orders:    make(map[string]domain.Order),
		expireErr: make(map[string]error),
	}
}

func (f *fakeStore) addEvent(status domain.EventStatus) domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	event := domain.Event{ID: uuid.NewString(), Name: "Concert", Status: status}
	f.events[event.ID] = event
	return event
}

func (f *fakeStore) addZone(eventID, name string, capacity int) domain.Zone {
	f.mu.Lock()
	defer f.mu.Unlock()
	zone := domain.Zone{ID: uuid.NewString(), EventID: eventID, Name: name, ZoneType: "general", Capacity: capacity}
	f.zones[zone.ID] = domain.ZoneState{
		Zone:     zone,
		Counters: domain.ZoneCounters{Total: capacity, Available: capacity},
	}
	return zone
}

// addSeatedZone creates a zone with n available seats.
func (f *fakeStore) addSeatedZone(eventID, name string, n int) (domain.Zone, []string) {
	zone := f.addZone(eventID, name, n)
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.zones[zone.ID]
	state.Zone.Seated = true
	f.zones[zone.ID] = state

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		f.seats[id] = domain.SeatStatus{
			SeatID:  id,
			EventID: eventID,
			ZoneID:  zone.ID,
			Label:   string(rune('A'+i%26)) + "1",
			Status:  domain.InventoryAvailable,
		}
		ids = append(ids, id)
	}
	return state.Zone, ids
}

func (f *fakeStore) counters(zoneID string) domain.ZoneCounters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zones[zoneID].Counters
}

func (f *fakeStore) seat(seatID string) domain.SeatStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats[seatID]
}

func (f *fakeStore) hold(holdID string) domain.Hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holds[holdID]
}

func (f *fakeStore) changes() []domain.AvailabilityChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AvailabilityChange(nil), f.published...)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	saved := f.snapshot()
	f.pending = nil
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.mu.Lock()
		f.restore(saved)
		f.pending = nil
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.published = append(f.published, f.pending...)
	f.pending = nil
	f.mu.Unlock()
	return nil
}

type fakeSnapshot struct {
	events map[string]domain.Event
	zones  map[string]domain.ZoneState
	seats  map[string]domain.SeatStatus
	holds  map[string]domain.Hold
	orders map[string]domain.Order
	recs   []domain.RecommendationRecord
}

func (f *fakeStore) snapshot() fakeSnapshot {
	return fakeSnapshot{
		events: copyMap(f.events),
		zones:  copyMap(f.zones),
		seats:  copyMap(f.seats),
		holds:  copyMap(f.holds),
		orders: copyMap(f.orders),
		recs:   append([]domain.RecommendationRecord(nil), f.recs...),
	}
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.events, f.zones, f.seats, f.holds, f.orders, f.recs = s.events, s.zones, s.seats, s.holds, s.orders, s.recs
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.NotFoundError{Resource: "event", ID: eventID}
	}
	return event, nil
}

func (f *fakeStore) GetZone(_ context.Context, eventID, zoneID string) (domain.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.zones[zoneID]
	if !ok || state.Zone.EventID != eventID {
		return domain.Zone{}, domain.NotFoundError{Resource: "zone", ID: zoneID}
	}
	return state.Zone, nil
}

func (f *fakeStore) GetSeat(_ context.Context, eventID, seatID string) (domain.SeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[seatID]
	if !ok || seat.EventID != eventID {
		return domain.SeatStatus{}, domain.NotFoundError{Resource: "seat", ID: seatID}
	}
	return seat, nil
}

func (f *fakeStore) TransitionSeat(_ context.Context, t domain.SeatTransition) (domain.SeatStatus, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[t.SeatID]
	if !ok || seat.EventID != t.EventID || seat.Status != t.From {
		return domain.SeatStatus{}, false, nil
	}
	if t.ExpectHoldID != "" && seat.HoldID != t.ExpectHoldID {
		return domain.SeatStatus{}, false, nil
	}
	seat.Status = t.To
	seat.HoldID = ""
	if t.To == domain.InventoryHeld {
		seat.HoldID = t.HoldID
	}
	seat.Version++
	seat.UpdatedAt = t.At
	f.seats[seat.SeatID] = seat
	return seat, true, nil
}

func (f *fakeStore) ShiftZone(_ context.Context, zoneID string, shift domain.CapacityShift, bump domain.ActivityBump) (domain.ZoneState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.zones[zoneID]
	if !ok {
		return domain.ZoneState{}, false, domain.NotFoundError{Resource: "zone", ID: zoneID}
	}
	next, ok := state.Counters.Apply(shift)
	if !ok {
		return state, false, nil
	}
	state.Counters = next
	state.Activity = bump.Apply(state.Activity)
	f.zones[zoneID] = state
	return state, true, nil
}

func (f *fakeStore) PublishChanges(_ context.Context, changes []domain.AvailabilityChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, changes...)
	return nil
}

func (f *fakeStore) InsertHold(_ context.Context, hold domain.Hold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[hold.ID] = hold
	return nil
}

func (f *fakeStore) GetHoldForUpdate(_ context.Context, holdID string) (domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[holdID]
	if !ok {
		return domain.Hold{}, domain.NotFoundError{Resource: "hold", ID: holdID}
	}
	return hold, nil
}

func (f *fakeStore) UpdateHold(_ context.Context, holdID string, patch domain.HoldPatch) (domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[holdID]
	if !ok {
		return domain.Hold{}, domain.NotFoundError{Resource: "hold", ID: holdID}
	}
	hold.Kind = patch.Kind
	hold.Status = patch.Status
	hold.ExpiresAt = patch.ExpiresAt
	hold.LastExtendedAt = patch.LastExtendedAt
	f.holds[holdID] = hold
	return hold, nil
}

func (f *fakeStore) ExpireHold(_ context.Context, holdID string, now time.Time) (domain.Hold, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expireErr[holdID]; err != nil {
		return domain.Hold{}, false, err
	}
	hold, ok := f.holds[holdID]
	if !ok || hold.Status != domain.HoldStatusActive || !hold.ExpiresAt.Before(now) {
		return domain.Hold{}, false, nil
	}
	hold.Status = domain.HoldStatusExpired
	f.holds[holdID] = hold
	return hold, true, nil
}

func (f *fakeStore) ListExpiredHoldIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, h := range f.holds {
		if h.Status == domain.HoldStatusActive && h.ExpiresAt.Before(now) {
			ids = append(ids, h.ID)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) ListActiveHolds(_ context.Context, eventID, sessionID string, now time.Time) ([]domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Hold
	for _, h := range f.holds {
		if h.EventID == eventID && h.Owner.SessionID == sessionID && h.Status == domain.HoldStatusActive && !h.ExpiredAt(now) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetOrderByHoldID(_ context.Context, holdID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[holdID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.HoldID]; ok {
		return domain.ErrIdempotencyConflict
	}
	f.orders[order.HoldID] = order
	return nil
}

func (f *fakeStore) ListSeatStatuses(_ context.Context, eventID string) ([]domain.SeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SeatStatus
	for _, s := range f.seats {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}

func (f *fakeStore) ListZoneStates(_ context.Context, eventID string) ([]domain.ZoneState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ZoneState
	for _, z := range f.zones {
		if z.Zone.EventID == eventID {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone.Name < out[j].Zone.Name })
	return out, nil
}

func (f *fakeStore) RecordRecommendation(_ context.Context, rec domain.RecommendationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStore) CreateEvent(_ context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.ID] = event
	return nil
}

func (f *fakeStore) ListEvents(_ context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SetEventStatus(_ context.Context, eventID string, status domain.EventStatus) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.NotFoundError{Resource: "event", ID: eventID}
	}
	event.Status = status
	f.events[eventID] = event
	return event, nil
}

func (f *fakeStore) CreateZone(_ context.Context, zone domain.Zone, seats []domain.Seat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, z := range f.zones {
		if z.Zone.EventID == zone.EventID && z.Zone.Name == zone.Name {
			return domain.ValidationError{Field: "name", Msg: "already exists"}
		}
	}
	f.zones[zone.ID] = domain.ZoneState{
		Zone:     zone,
		Counters: domain.ZoneCounters{Total: zone.Capacity, Available: zone.Capacity},
	}
	for _, s := range seats {
		f.seats[s.ID] = domain.SeatStatus{
			SeatID:  s.ID,
			EventID: s.EventID,
			ZoneID:  s.ZoneID,
			Label:   s.Label,
			Status:  domain.InventoryAvailable,
		}
	}
	return nil
}

func (f *fakeStore) ListZonesByEvent(_ context.Context, eventID string) ([]domain.Zone, error) {
	states, _ := f.ListZoneStates(context.Background(), eventID)
	out := make([]domain.Zone, 0, len(states))
	for _, s := range states {
		out = append(out, s.Zone)
	}
	return out, nil
}

var errBoom = errors.New("boom")
