package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
)

// webhookTolerance bounds how far a webhook timestamp may drift from the
// server clock before the delivery is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// WebhookHeaders are the signature headers attached to a provider delivery
type WebhookHeaders struct {
	ID        string
	Timestamp string
	Signature string
}

// WebhookResult reports how an inbound delivery was handled
type WebhookResult struct {
	Received  bool   `json:"received"`
	Matched   bool   `json:"matched"`
	EventType string `json:"event_type,omitempty"`
}

// emailEventData is the slice of the provider payload the reconciler cares
// about: the email correlation id lives at data.email_id.
type emailEventData struct {
	EmailID string `json:"email_id"`
}

type emailEvent struct {
	Type string         `json:"type"`
	Data emailEventData `json:"data"`
}

// statusForEvent maps provider event types onto invoice delivery statuses.
// Unknown event types map to nothing and are recorded without a status
// change.
var statusForEvent = map[string]models.InvoiceStatus{
	"email.sent":             models.StatusSent,
	"email.delivered":        models.StatusDelivered,
	"email.opened":           models.StatusOpened,
	"email.bounced":          models.StatusBounced,
	"email.delivery_delayed": models.StatusDelayed,
}

// WebhookServiceInterface reconciles inbound provider events with stored
// invoices.
type WebhookServiceInterface interface {
	HandleProviderEvent(ctx context.Context, body []byte, headers *WebhookHeaders) (*WebhookResult, error)
}

type webhookService struct {
	invoiceRepo repositories.InvoiceRepository
	eventRepo   repositories.WebhookEventRepository
	mailer      MailerService
	secret      []byte
}

// NewWebhookService creates the webhook reconciler. The signing secret is
// accepted in the provider's "whsec_" base64 form.
func NewWebhookService(invoiceRepo repositories.InvoiceRepository, eventRepo repositories.WebhookEventRepository, mailer MailerService, signingSecret string) (WebhookServiceInterface, error) {
	raw := strings.TrimPrefix(signingSecret, "whsec_")
	secret, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signing secret: %w", err)
	}
	return &webhookService{
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		mailer:      mailer,
		secret:      secret,
	}, nil
}

// verifySignature checks the HMAC-SHA256 signature over "{id}.{timestamp}.{body}".
// The signature header carries one or more space-separated "v1,<base64>"
// entries; the delivery is accepted if any entry matches.
func (s *webhookService) verifySignature(body []byte, headers *WebhookHeaders) error {
	ts, err := strconv.ParseInt(headers.Timestamp, 10, 64)
	if err != nil {
		return common.ErrInvalidSignature
	}
	drift := time.Since(time.Unix(ts, 0))
	if drift > webhookTolerance || drift < -webhookTolerance {
		return common.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s.%s.", headers.ID, headers.Timestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Split(headers.Signature, " ") {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return common.ErrInvalidSignature
}

// HandleProviderEvent verifies the delivery signature, matches the event's
// email id against stored invoices, applies the mapped status, and appends
// the raw payload to the invoice's event log. An event that matches no
// invoice is acknowledged without side effects so the provider stops
// retrying it.
func (s *webhookService) HandleProviderEvent(ctx context.Context, body []byte, headers *WebhookHeaders) (*WebhookResult, error) {
	switch {
	case headers.ID == "":
		return nil, common.NewValidationError("svix-id", "is required")
	case headers.Timestamp == "":
		return nil, common.NewValidationError("svix-timestamp", "is required")
	case headers.Signature == "":
		return nil, common.NewValidationError("svix-signature", "is required")
	}

	if err := s.verifySignature(body, headers); err != nil {
		return nil, err
	}

	var event emailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.Data.EmailID == "" {
		return &WebhookResult{Received: true, Matched: false}, nil
	}

	invoice, err := s.findInvoice(ctx, event.Data.EmailID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		// Late event for a deleted invoice, or a reminder send for an
		// invoice we never correlated. Nothing to update.
		return &WebhookResult{Received: true, Matched: false}, nil
	}

	if status, ok := statusForEvent[event.Type]; ok {
		// The mapped status is applied as-is; provider retries and
		// out-of-order deliveries make the last writer win.
		if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, status); err != nil {
			return nil, fmt.Errorf("failed to update invoice status: %w", err)
		}
	}

	if err := s.eventRepo.Create(ctx, &models.WebhookEvent{
		ID:        uuid.New(),
		InvoiceID: invoice.ID,
		EventType: event.Type,
		Payload:   string(body),
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if event.Type == "email.bounced" && invoice.ScheduledReminderID != nil {
		// No point reminding an address that bounced. The cancel is best
		// effort, but the id is cleared either way: a bounced invoice
		// must not keep claiming a pending reminder.
		if err := s.mailer.CancelScheduled(ctx, *invoice.ScheduledReminderID); err != nil {
			log.Printf("Failed to cancel reminder after bounce for invoice %s: %v", invoice.ID, err)
		}
		if err := s.invoiceRepo.ClearScheduledReminderID(ctx, invoice.ID); err != nil {
			log.Printf("Failed to clear reminder id for invoice %s: %v", invoice.ID, err)
		}
	}

	return &WebhookResult{Received: true, Matched: true, EventType: event.Type}, nil
}

// findInvoice resolves the email id against both correlation columns: the
// primary invoice email and the scheduled reminder email both report events
// under their own ids.
func (s *webhookService) findInvoice(ctx context.Context, emailID string) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByResendEmailID(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice by email id: %w", err)
	}
	if invoice != nil {
		return invoice, nil
	}

	invoice, err = s.invoiceRepo.GetByScheduledReminderID(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice by reminder id: %w", err)
	}
	return invoice, nil
}
