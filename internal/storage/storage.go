// Package storage records the orders the bot actually submits, for
// audit. Contender history is deliberately not persisted; only what went
// to the broker is.
package storage

import (
	"context"
	"time"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

// OrderRecord is one submitted combo order.
type OrderRecord struct {
	ContenderID string
	Strategy    types.Strategy
	Expiration  string
	ArbValue    float64
	RankScore   float64
	LimitPrice  float64
	Quantity    int
	ConIDEx     string
	SubmittedAt time.Time
}

// Store is the interface for recording submitted orders.
type Store interface {
	// RecordOrder persists one submitted order.
	RecordOrder(ctx context.Context, rec *OrderRecord) error

	// Close closes the store.
	Close() error
}
