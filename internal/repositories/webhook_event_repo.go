package repositories

import (
	"context"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
)

type WebhookEventRepository interface {
	Create(ctx context.Context, event *models.WebhookEvent) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.WebhookEvent, error)
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error
}

type webhookEventRepo struct {
	db DB
}

func NewWebhookEventRepo(db DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Create(ctx context.Context, event *models.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (id, invoice_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, event.ID, event.InvoiceID, event.EventType, event.Payload, event.CreatedAt)
	return err
}

func (r *webhookEventRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.WebhookEvent, error) {
	query := `
		SELECT id, invoice_id, event_type, payload, created_at
		FROM webhook_events
		WHERE invoice_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		event := &models.WebhookEvent{}
		if err := rows.Scan(&event.ID, &event.InvoiceID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *webhookEventRepo) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	query := `DELETE FROM webhook_events WHERE invoice_id = $1`
	_, err := r.db.Exec(ctx, query, invoiceID)
	return err
}
