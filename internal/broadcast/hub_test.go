package broadcast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cimillas/seatlease/internal/domain"
)

func quietHub(opts ...Option) *Hub {
	return NewHub(append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))...)
}

func seatChange(eventID, seatID string, version int64) domain.AvailabilityChange {
	return domain.AvailabilityChange{EventID: eventID, SeatID: seatID, Status: "held", Version: version}
}

func drain(sub *Subscription) []domain.AvailabilityChange {
	var out []domain.AvailabilityChange
	for {
		select {
		case c, ok := <-sub.Changes():
			if !ok {
				return out
			}
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestHub_DeliversToEventSubscribers(t *testing.T) {
	t.Parallel()

	h := quietHub()
	a := h.Subscribe("event-a")
	a2 := h.Subscribe("event-a")
	b := h.Subscribe("event-b")

	if n := h.Publish(seatChange("event-a", "s1", 1)); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if got := drain(a); len(got) != 1 || got[0].SeatID != "s1" {
		t.Fatalf("unexpected changes for a: %+v", got)
	}
	if got := drain(a2); len(got) != 1 {
		t.Fatalf("unexpected changes for a2: %+v", got)
	}
	if got := drain(b); len(got) != 0 {
		t.Fatalf("other event received %+v", got)
	}
}

func TestHub_DropsStaleVersionsPerKey(t *testing.T) {
	t.Parallel()

	h := quietHub()
	sub := h.Subscribe("e")

	h.Publish(seatChange("e", "s1", 2))
	h.Publish(seatChange("e", "s1", 1))
	h.Publish(seatChange("e", "s1", 2))
	h.Publish(seatChange("e", "s2", 1))
	h.Publish(domain.AvailabilityChange{EventID: "e", ZoneID: "s1", Version: 1})
	h.Publish(seatChange("e", "s1", 3))

	got := drain(sub)
	want := []struct {
		key     string
		version int64
	}{
		{"seat:s1", 2},
		{"seat:s2", 1},
		{"zone:s1", 1},
		{"seat:s1", 3},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d changes, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Key() != w.key || got[i].Version != w.version {
			t.Fatalf("change %d = %s v%d, want %s v%d", i, got[i].Key(), got[i].Version, w.key, w.version)
		}
	}
}

func TestHub_ClosesLaggingSubscriber(t *testing.T) {
	t.Parallel()

	h := quietHub(WithBuffer(2))
	slow := h.Subscribe("e")

	for v := int64(1); v <= 3; v++ {
		h.Publish(seatChange("e", "s1", v))
	}

	if !slow.Lagged() {
		t.Fatalf("expected subscriber to be marked lagged")
	}
	if got := drain(slow); len(got) != 2 {
		t.Fatalf("expected the 2 buffered changes before close, got %d", len(got))
	}
	if _, ok := <-slow.Changes(); ok {
		t.Fatalf("expected closed channel")
	}
	if h.Subscribers("e") != 0 {
		t.Fatalf("lagging subscriber still registered")
	}
}

func TestHub_CloseAndResync(t *testing.T) {
	t.Parallel()

	h := quietHub()
	a := h.Subscribe("e")
	b := h.Subscribe("e")

	a.Close()
	a.Close()
	if a.Lagged() {
		t.Fatalf("closed subscriber should not be lagged")
	}
	if h.Subscribers("e") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers("e"))
	}

	h.Publish(seatChange("e", "s1", 5))
	h.Resync()
	if !b.Lagged() {
		t.Fatalf("resync should close subscribers as lagged")
	}

	c := h.Subscribe("e")
	if n := h.Publish(seatChange("e", "s1", 1)); n != 1 {
		t.Fatalf("resync should forget versions, delivered %d", n)
	}
	c.Close()
}
