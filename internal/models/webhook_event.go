package models

import (
	"time"

	"github.com/google/uuid"
)

// Synthetic event types recorded by the lifecycle engine itself, alongside
// the provider's email.* taxonomy.
const (
	EventMarkedPaid   = "invoice.marked_paid"
	EventMarkedUnpaid = "invoice.marked_unpaid"
)

// WebhookEvent is an append-only log entry tying a provider or system
// event to an invoice. Never mutated after insert; deleted only as a
// cascade when the parent invoice is deleted.
type WebhookEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	InvoiceID uuid.UUID `json:"invoice_id" db:"invoice_id"`
	EventType string    `json:"event_type" db:"event_type"`
	Payload   string    `json:"payload" db:"payload"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
