package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/domain"
)

func TestCatalogService_CreateEvent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := NewCatalogService(store, clock.NewFixed(now))
	ctx := context.Background()

	got, err := svc.CreateEvent(ctx, CreateEventInput{Name: " Concert "})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if got.Name != "Concert" || !got.StartsAt.Equal(now) || got.Status != domain.EventStatusDraft {
		t.Fatalf("unexpected event: %+v", got)
	}
	if _, ok := store.events[got.ID]; !ok {
		t.Fatalf("event not stored")
	}

	if _, err := svc.CreateEvent(ctx, CreateEventInput{}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for name, got %v", err)
	}
	if _, err := svc.CreateEvent(ctx, CreateEventInput{Name: "x", Status: "live"}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for status, got %v", err)
	}
	opens, closes := now.Add(time.Hour), now
	if _, err := svc.CreateEvent(ctx, CreateEventInput{Name: "x", SalesOpenAt: &opens, SalesCloseAt: &closes}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for window, got %v", err)
	}

	updated, err := svc.SetEventStatus(ctx, got.ID, domain.EventStatusOnSale)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if !updated.Sellable(now) {
		t.Fatalf("event should be sellable once on sale")
	}
}

func TestCatalogService_CreateZone(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	event := store.addEvent(domain.EventStatusOnSale)
	svc := NewCatalogService(store, clock.NewFixed(t0))
	ctx := context.Background()

	ga, seats, err := svc.CreateZone(ctx, CreateZoneInput{EventID: event.ID, Name: "Floor", Capacity: 100})
	if err != nil {
		t.Fatalf("create ga zone: %v", err)
	}
	if ga.Seated || len(seats) != 0 || ga.Capacity != 100 {
		t.Fatalf("unexpected ga zone: %+v", ga)
	}
	if c := store.counters(ga.ID); c.Available != 100 || !c.Balanced() {
		t.Fatalf("unexpected counters: %+v", c)
	}

	box, seats, err := svc.CreateZone(ctx, CreateZoneInput{EventID: event.ID, Name: "Box", SeatLabels: []string{"B1", "B2"}})
	if err != nil {
		t.Fatalf("create seated zone: %v", err)
	}
	if !box.Seated || box.Capacity != 2 || len(seats) != 2 {
		t.Fatalf("unexpected seated zone: %+v %+v", box, seats)
	}

	tests := []struct {
		name string
		in   CreateZoneInput
	}{
		{"missing name", CreateZoneInput{EventID: event.ID, Capacity: 1}},
		{"zero capacity", CreateZoneInput{EventID: event.ID, Name: "A"}},
		{"both forms", CreateZoneInput{EventID: event.ID, Name: "A", Capacity: 2, SeatLabels: []string{"A1"}}},
		{"duplicate seats", CreateZoneInput{EventID: event.ID, Name: "A", SeatLabels: []string{"A1", "A1"}}},
		{"negative price", CreateZoneInput{EventID: event.ID, Name: "A", Capacity: 1, PriceCents: -1}},
		{"bad event id", CreateZoneInput{EventID: "", Name: "A", Capacity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.CreateZone(ctx, tt.in); !domain.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	zones, err := svc.ListZones(ctx, event.ID)
	if err != nil {
		t.Fatalf("list zones: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
}

func TestCatalogService_ImportFloorPlan(t *testing.T) {
	t.Parallel()

	plan, err := catalog.Parse(strings.NewReader(`
event:
  name: Spring Gala
  starts_at: 2025-04-12T19:00:00Z
  status: on_sale
zones:
  - name: Floor
    capacity: 50
  - name: Balcony
    rows:
      - label: A
        seats: 4
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	store := newFakeStore()
	svc := NewCatalogService(store, clock.NewFixed(t0))
	res, err := svc.ImportFloorPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Event.Status != domain.EventStatusOnSale || len(res.Zones) != 2 || res.Seats != 4 {
		t.Fatalf("unexpected import: %+v", res)
	}
	if len(store.seats) != 4 || len(store.zones) != 2 {
		t.Fatalf("store has %d seats and %d zones", len(store.seats), len(store.zones))
	}

	plan.Event.Status = "bogus"
	if _, err := svc.ImportFloorPlan(context.Background(), plan); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("failed import left an event behind")
	}
}

func TestCatalogService_ImportRollsBack(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewCatalogService(store, clock.NewFixed(t0))
	plan := catalog.FloorPlan{
		Event: catalog.EventSpec{Name: "Dup"},
		Zones: []catalog.ZoneSpec{{Name: "A", Capacity: 1}, {Name: "B", Capacity: 1}},
	}
	// Names differ only by whitespace, so the store rejects the second zone.
	plan.Zones[1].Name = "A "

	if _, err := svc.ImportFloorPlan(context.Background(), plan); err == nil {
		t.Fatalf("expected duplicate zone error")
	}
	if len(store.events) != 0 || len(store.zones) != 0 {
		t.Fatalf("import was not rolled back: %d events, %d zones", len(store.events), len(store.zones))
	}
}
