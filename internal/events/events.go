// Package events defines the notifications emitted after order and stock
// changes commit, and the publishers that fan them out.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	StockLow           Type = "stock.low"
)

// Event is published only after the transaction that produced it commits.
type Event struct {
	Type       Type      `json:"type"`
	MachineID  uuid.UUID `json:"machine_id"`
	OrderID    uuid.UUID `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type OrderCreatedPayload struct {
	Status        string `json:"status"`
	TotalPrice    string `json:"total_price"`
	TotalCalories int32  `json:"total_calories"`
	Ingredients   int    `json:"ingredients"`
	Addons        int    `json:"addons"`
}

type OrderStatusChangedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Restored bool   `json:"restored"`
}

type StockLowPayload struct {
	ItemType  string    `json:"item_type"`
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Remaining int32     `json:"remaining"`
	Threshold int32     `json:"threshold"`
	Severity  string    `json:"severity"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher in order and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
