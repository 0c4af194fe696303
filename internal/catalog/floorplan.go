// Package catalog reads venue floor plans for bulk import.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FloorPlan describes one event and its zones.
//
//	event:
//	  name: Spring Gala
//	  starts_at: 2025-04-12T19:00:00Z
//	  status: on_sale
//	zones:
//	  - name: Floor
//	    type: general
//	    price_cents: 4500
//	    capacity: 200
//	  - name: Balcony
//	    type: balcony
//	    price_cents: 9000
//	    rows:
//	      - label: A
//	        seats: 12
type FloorPlan struct {
	Event EventSpec  `yaml:"event"`
	Zones []ZoneSpec `yaml:"zones"`
}

type EventSpec struct {
	Name         string     `yaml:"name"`
	StartsAt     time.Time  `yaml:"starts_at"`
	Status       string     `yaml:"status"`
	SalesOpenAt  *time.Time `yaml:"sales_open_at"`
	SalesCloseAt *time.Time `yaml:"sales_close_at"`
}

// ZoneSpec is either general admission (Capacity) or seated (Rows and/or
// Seats). The two forms are exclusive.
type ZoneSpec struct {
	Name       string    `yaml:"name"`
	Type       string    `yaml:"type"`
	Accessible bool      `yaml:"accessible"`
	PriceCents int64     `yaml:"price_cents"`
	Capacity   int       `yaml:"capacity"`
	Rows       []RowSpec `yaml:"rows"`
	Seats      []string  `yaml:"seats"`
}

// RowSpec expands to seats Label+"1" .. Label+N.
type RowSpec struct {
	Label string `yaml:"label"`
	Seats int    `yaml:"seats"`
}

func (z ZoneSpec) Seated() bool {
	return len(z.Rows) > 0 || len(z.Seats) > 0
}

// SeatLabels lists every seat of the zone, rows first, in declaration order.
func (z ZoneSpec) SeatLabels() []string {
	var labels []string
	for _, row := range z.Rows {
		for i := 1; i <= row.Seats; i++ {
			labels = append(labels, fmt.Sprintf("%s%d", row.Label, i))
		}
	}
	return append(labels, z.Seats...)
}

// Parse decodes a YAML floor plan and validates it. Unknown keys are rejected.
func Parse(r io.Reader) (FloorPlan, error) {
	var plan FloorPlan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return FloorPlan{}, errors.New("floor plan is empty")
		}
		return FloorPlan{}, fmt.Errorf("decode floor plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return FloorPlan{}, err
	}
	return plan, nil
}

func ParseBytes(b []byte) (FloorPlan, error) {
	return Parse(bytes.NewReader(b))
}

func (p FloorPlan) Validate() error {
	if strings.TrimSpace(p.Event.Name) == "" {
		return errors.New("event.name is required")
	}
	if p.Event.SalesOpenAt != nil && p.Event.SalesCloseAt != nil && !p.Event.SalesOpenAt.Before(*p.Event.SalesCloseAt) {
		return errors.New("event.sales_open_at must be before sales_close_at")
	}
	if len(p.Zones) == 0 {
		return errors.New("at least one zone is required")
	}

	names := make(map[string]struct{}, len(p.Zones))
	for i, z := range p.Zones {
		if strings.TrimSpace(z.Name) == "" {
			return fmt.Errorf("zones[%d].name is required", i)
		}
		if _, dup := names[z.Name]; dup {
			return fmt.Errorf("zones[%d]: duplicate zone name %q", i, z.Name)
		}
		names[z.Name] = struct{}{}
		if z.PriceCents < 0 {
			return fmt.Errorf("zone %q: price_cents must not be negative", z.Name)
		}

		if !z.Seated() {
			if z.Capacity <= 0 {
				return fmt.Errorf("zone %q: capacity must be positive", z.Name)
			}
			continue
		}
		if z.Capacity != 0 {
			return fmt.Errorf("zone %q: capacity cannot be combined with rows or seats", z.Name)
		}
		for j, row := range z.Rows {
			if strings.TrimSpace(row.Label) == "" || row.Seats <= 0 {
				return fmt.Errorf("zone %q: rows[%d] needs a label and a positive seat count", z.Name, j)
			}
		}
		seen := make(map[string]struct{})
		for _, label := range z.SeatLabels() {
			if strings.TrimSpace(label) == "" {
				return fmt.Errorf("zone %q: empty seat label", z.Name)
			}
			if _, dup := seen[label]; dup {
				return fmt.Errorf("zone %q: duplicate seat %q", z.Name, label)
			}
			seen[label] = struct{}{}
		}
	}
	return nil
}
