package domain

import "time"

// Order records the conversion of a checkout hold into a sale.
type Order struct {
	ID             string
	HoldID         string
	EventID        string
	IdempotencyKey string
	CreatedAt      time.Time
}
