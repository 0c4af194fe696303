package domain

import (
	"testing"
	"time"
)

func TestHeatmapFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		occupancy float64
		want      HeatmapBucket
	}{
		{0, HeatmapLow},
		{29.9, HeatmapLow},
		{30, HeatmapLowMedium},
		{49.99, HeatmapLowMedium},
		{50, HeatmapMedium},
		{70, HeatmapHigh},
		{89.5, HeatmapHigh},
		{90, HeatmapCritical},
		{100, HeatmapCritical},
	}
	for _, tt := range tests {
		if got := HeatmapFor(tt.occupancy); got != tt.want {
			t.Fatalf("HeatmapFor(%v) = %s, want %s", tt.occupancy, got, tt.want)
		}
	}
}

func TestZoneCounters_Apply(t *testing.T) {
	t.Parallel()

	start := ZoneCounters{Total: 10, Available: 2, Held: 5, Sold: 3}

	t.Run("moves quantity between counters", func(t *testing.T) {
		next, ok := start.Apply(CapacityShift{From: InventoryAvailable, To: InventoryHeld, Quantity: 2})
		if !ok {
			t.Fatalf("expected shift to apply")
		}
		if next.Available != 0 || next.Held != 7 {
			t.Fatalf("unexpected counters: %+v", next)
		}
		if !next.Balanced() {
			t.Fatalf("expected balanced counters, got %+v", next)
		}
		if next.Version != start.Version+1 {
			t.Fatalf("expected version bump, got %d", next.Version)
		}
	})

	t.Run("rejects shift larger than source", func(t *testing.T) {
		next, ok := start.Apply(CapacityShift{From: InventoryAvailable, To: InventoryHeld, Quantity: 3})
		if ok {
			t.Fatalf("expected shift to be rejected")
		}
		if next != start {
			t.Fatalf("expected counters unchanged, got %+v", next)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		if _, ok := start.Apply(CapacityShift{From: InventoryHeld, To: InventorySold, Quantity: 0}); ok {
			t.Fatalf("expected zero quantity to be rejected")
		}
	})
}

func TestZoneCounters_OccupancyPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    ZoneCounters
		want float64
	}{
		{"empty zone", ZoneCounters{}, 0},
		{"half held", ZoneCounters{Total: 10, Available: 5, Held: 5}, 50},
		{"blocked excluded", ZoneCounters{Total: 10, Available: 4, Sold: 4, Blocked: 2}, 50},
		{"all blocked", ZoneCounters{Total: 4, Blocked: 4}, 100},
	}
	for _, tt := range tests {
		if got := tt.c.OccupancyPercent(); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestZoneChange_Status(t *testing.T) {
	t.Parallel()

	m := NewZoneMetrics(Zone{ID: "z1", EventID: "e1"}, ZoneCounters{Total: 2, Held: 2, Version: 4})
	change := ZoneChange(m, m0)
	if change.Status != ZoneStatusSoldOut {
		t.Fatalf("expected sold_out, got %s", change.Status)
	}
	if change.Key() != "zone:z1" || change.Version != 4 {
		t.Fatalf("unexpected change: %+v", change)
	}
	if change.Metrics == nil || change.Metrics.Heatmap != HeatmapCritical {
		t.Fatalf("expected metrics snapshot with critical heatmap, got %+v", change.Metrics)
	}
}

func TestZoneActivity_DecayTo(t *testing.T) {
	t.Parallel()

	a := ZoneActivity{Holds: 8, Sales: 4, At: m0}
	got := a.DecayTo(m0.Add(30*time.Minute), 15*time.Minute)
	if got.Holds != 2 || got.Sales != 1 {
		t.Fatalf("expected two half-lives of decay, got %+v", got)
	}

	bumped := ActivityBump{Holds: 1, At: m0.Add(15 * time.Minute), HalfLife: 15 * time.Minute}.Apply(a)
	if bumped.Holds != 5 || bumped.Sales != 2 || !bumped.At.Equal(m0.Add(15*time.Minute)) {
		t.Fatalf("unexpected bumped activity: %+v", bumped)
	}

	fresh := ActivityBump{Sales: 1, At: m0}.Apply(ZoneActivity{})
	if fresh.Sales != 1 || !fresh.At.Equal(m0) {
		t.Fatalf("unexpected activity from zero value: %+v", fresh)
	}
}
