package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"invoicedesk/internal/caching"
	"invoicedesk/internal/common"
	"invoicedesk/internal/config"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
)

// ReminderLeadTime is how far ahead of the due date the payment reminder
// fires. A reminder is only scheduled when the due date is further away
// than this.
const ReminderLeadTime = 3 * 24 * time.Hour

const (
	invoiceCacheTTL = 5 * time.Minute
	listCacheTTL    = 30 * time.Second

	pdfBucket = "invoices"
)

// CreateInvoiceInput carries the user-supplied invoice fields
type CreateInvoiceInput struct {
	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"` // YYYY-MM-DD
}

// SendResult reports the outcome of an invoice email send
type SendResult struct {
	InvoiceID           uuid.UUID `json:"invoice_id"`
	EmailID             string    `json:"email_id"`
	ScheduledReminderID *string   `json:"scheduled_reminder_id"`
}

// InvoiceServiceInterface defines the interface for the invoice lifecycle engine
type InvoiceServiceInterface interface {
	CreateAndSend(ctx context.Context, input *CreateInvoiceInput) (*SendResult, error)
	ResendEmail(ctx context.Context, invoiceID uuid.UUID) (*SendResult, error)
	TogglePaid(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	CancelReminder(ctx context.Context, invoiceID uuid.UUID) error
	UpdateFields(ctx context.Context, invoiceID uuid.UUID, input *CreateInvoiceInput) error
	DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error
	GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context) ([]*models.Invoice, error)
	ListEvents(ctx context.Context, invoiceID uuid.UUID) ([]*models.WebhookEvent, error)
	ArchivePDF(ctx context.Context, invoiceID uuid.UUID) (string, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	eventRepo   repositories.WebhookEventRepository
	mailer      MailerService
	pdfSvc      PDFService
	storage     StorageService
	cacheSvc    caching.CacheService
	mailCfg     *config.MailConfig
}

// NewInvoiceService creates a new invoice lifecycle service
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, eventRepo repositories.WebhookEventRepository, mailer MailerService, pdfSvc PDFService, storage StorageService, cacheSvc caching.CacheService, mailCfg *config.MailConfig) InvoiceServiceInterface {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		mailer:      mailer,
		pdfSvc:      pdfSvc,
		storage:     storage,
		cacheSvc:    cacheSvc,
		mailCfg:     mailCfg,
	}
}

func validateInvoiceInput(input *CreateInvoiceInput, now time.Time) error {
	if err := common.ValidateRequiredString(input.ClientName, "client_name"); err != nil {
		return err
	}
	if err := common.ValidateEmail(input.ClientEmail, "client_email"); err != nil {
		return err
	}
	if err := common.ValidatePositiveFloat(input.Amount, "amount", 10000000.00); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(input.Description, "description"); err != nil {
		return err
	}
	return common.ValidateDueDate(input.DueDate, "due_date", now)
}

// CreateAndSend inserts a pending invoice, emails it with the rendered PDF
// attached, then records the email correlation id and schedules a payment
// reminder when the due date is far enough out. The steps after the insert
// are best-effort sequential: a send failure leaves the row pending with no
// correlation id so the send can be retried, and a reminder-scheduling
// failure never fails the operation.
func (s *invoiceService) CreateAndSend(ctx context.Context, input *CreateInvoiceInput) (*SendResult, error) {
	now := time.Now()
	if err := validateInvoiceInput(input, now); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:          uuid.New(),
		ClientName:  input.ClientName,
		ClientEmail: input.ClientEmail,
		Amount:      input.Amount,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      models.StatusPending,
		CreatedAt:   now,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	s.invalidateCache(ctx, invoice.ID)

	result, err := s.sendInvoiceEmail(ctx, invoice)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResendEmail retries the email send for an invoice whose original send
// failed or needs repeating.
func (s *invoiceService) ResendEmail(ctx context.Context, invoiceID uuid.UUID) (*SendResult, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, common.ErrNotFound
	}

	return s.sendInvoiceEmail(ctx, invoice)
}

// sendInvoiceEmail renders the document, sends the primary email, patches
// status and correlation id, and schedules the reminder when applicable.
func (s *invoiceService) sendInvoiceEmail(ctx context.Context, invoice *models.Invoice) (*SendResult, error) {
	doc := &InvoiceDocument{
		InvoiceID:   invoice.ShortID(),
		ClientName:  invoice.ClientName,
		ClientEmail: invoice.ClientEmail,
		Amount:      invoice.Amount,
		Description: invoice.Description,
		DueDate:     invoice.DueDate,
	}

	pdfBytes, err := s.pdfSvc.RenderInvoice(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}

	html, err := InvoiceEmailHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice email: %w", err)
	}

	emailID, err := s.mailer.Send(ctx, &EmailMessage{
		From:    s.mailCfg.FromAddress,
		To:      invoice.ClientEmail,
		Subject: fmt.Sprintf("Invoice — %s", FormatCurrency(invoice.Amount)),
		HTML:    html,
		Attachments: []EmailAttachment{
			{Filename: fmt.Sprintf("invoice-%s.pdf", doc.InvoiceID), Content: pdfBytes},
		},
	})
	if err != nil {
		// The invoice row stays as-is with no correlation id; the caller
		// may retry via the resend path.
		return nil, err
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.StatusSent); err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	if err := s.invoiceRepo.SetResendEmailID(ctx, invoice.ID, emailID); err != nil {
		return nil, fmt.Errorf("failed to store email id: %w", err)
	}

	result := &SendResult{
		InvoiceID: invoice.ID,
		EmailID:   emailID,
	}

	if reminderID := s.scheduleReminder(ctx, invoice, doc); reminderID != "" {
		result.ScheduledReminderID = &reminderID
	}

	s.invalidateCache(ctx, invoice.ID)
	return result, nil
}

// scheduleReminder queues the payment reminder when the due date is more
// than the lead time away. All failures are logged and swallowed: a missing
// reminder is not a fatal outcome for the send flow.
func (s *invoiceService) scheduleReminder(ctx context.Context, invoice *models.Invoice, doc *InvoiceDocument) string {
	dueDate, err := invoice.DueDateTime()
	if err != nil {
		log.Printf("Failed to parse due date for invoice %s: %v", invoice.ID, err)
		return ""
	}

	now := time.Now()
	if !dueDate.After(now.Add(ReminderLeadTime)) {
		return ""
	}
	reminderAt := dueDate.Add(-ReminderLeadTime)

	html, err := ReminderEmailHTML(doc)
	if err != nil {
		log.Printf("Failed to render reminder email for invoice %s: %v", invoice.ID, err)
		return ""
	}

	reminderID, err := s.mailer.SendScheduled(ctx, &EmailMessage{
		From:    s.mailCfg.FromAddress,
		To:      invoice.ClientEmail,
		Subject: fmt.Sprintf("Payment Reminder — %s", FormatCurrency(invoice.Amount)),
		HTML:    html,
	}, reminderAt)
	if err != nil {
		log.Printf("Failed to schedule reminder for invoice %s: %v", invoice.ID, err)
		return ""
	}

	if err := s.invoiceRepo.SetScheduledReminderID(ctx, invoice.ID, reminderID); err != nil {
		log.Printf("Failed to store reminder id for invoice %s: %v", invoice.ID, err)
		return ""
	}

	return reminderID
}

// TogglePaid flips the invoice's paid state and appends a marker event.
// When transitioning to paid with a reminder still queued, the reminder is
// cancelled best-effort: on cancel failure the field stays set and the
// reminder may still fire.
func (s *invoiceService) TogglePaid(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return false, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return false, common.ErrNotFound
	}

	markingPaid := !invoice.Paid()
	now := time.Now()

	var paidAt *time.Time
	eventType := models.EventMarkedUnpaid
	payload := map[string]any{"paidAt": nil}
	if markingPaid {
		paidAt = &now
		eventType = models.EventMarkedPaid
		payload["paidAt"] = now.UnixMilli()
	}

	if err := s.invoiceRepo.SetPaidAt(ctx, invoiceID, paidAt); err != nil {
		return false, fmt.Errorf("failed to update paid state: %w", err)
	}

	body, _ := json.Marshal(payload)
	if err := s.eventRepo.Create(ctx, &models.WebhookEvent{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		EventType: eventType,
		Payload:   string(body),
		CreatedAt: now,
	}); err != nil {
		return false, fmt.Errorf("failed to record paid event: %w", err)
	}

	if markingPaid && invoice.ScheduledReminderID != nil {
		if err := s.mailer.CancelScheduled(ctx, *invoice.ScheduledReminderID); err != nil {
			log.Printf("Failed to cancel scheduled reminder for invoice %s: %v", invoiceID, err)
		} else if err := s.invoiceRepo.ClearScheduledReminderID(ctx, invoiceID); err != nil {
			log.Printf("Failed to clear reminder id for invoice %s: %v", invoiceID, err)
		}
	}

	s.invalidateCache(ctx, invoiceID)
	return markingPaid, nil
}

// CancelReminder cancels the scheduled reminder at the gateway and clears
// the correlation id. Unlike the paid-toggle path this is a direct user
// request, so a gateway failure propagates.
func (s *invoiceService) CancelReminder(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return common.ErrNotFound
	}
	if invoice.ScheduledReminderID == nil {
		return common.NewValidationError("scheduled_reminder_id", "no scheduled reminder to cancel")
	}

	if err := s.mailer.CancelScheduled(ctx, *invoice.ScheduledReminderID); err != nil {
		return err
	}
	if err := s.invoiceRepo.ClearScheduledReminderID(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to clear reminder id: %w", err)
	}

	s.invalidateCache(ctx, invoiceID)
	return nil
}

// UpdateFields patches the user-supplied fields. No side effects on status
// or correlation ids, and no future-date revalidation: the edit path trusts
// the caller.
func (s *invoiceService) UpdateFields(ctx context.Context, invoiceID uuid.UUID, input *CreateInvoiceInput) error {
	err := s.invoiceRepo.UpdateFields(ctx, invoiceID, input.ClientName, input.ClientEmail, input.Amount, input.Description, input.DueDate)
	if err != nil {
		return err
	}
	s.invalidateCache(ctx, invoiceID)
	return nil
}

// DeleteInvoice removes the invoice and its event log, events first since
// the store offers no cross-table transaction. A still-scheduled reminder
// is not cancelled at the gateway; if it later fires, the resulting webhook
// matches no invoice and is absorbed by the unmatched path.
func (s *invoiceService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return common.ErrNotFound
	}

	if err := s.eventRepo.DeleteByInvoice(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice events: %w", err)
	}
	if err := s.invoiceRepo.Delete(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.invalidateCache(ctx, invoiceID)
	return nil
}

// GetInvoiceByID retrieves an invoice, read-through cached
func (s *invoiceService) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetInvoice(ctx, invoiceID); err == nil && cached != nil {
			return cached, nil
		}
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice != nil && s.cacheSvc != nil {
		if err := s.cacheSvc.SetInvoice(ctx, invoice, invoiceCacheTTL); err != nil {
			log.Printf("Failed to cache invoice %s: %v", invoiceID, err)
		}
	}
	return invoice, nil
}

// ListInvoices retrieves all invoices, newest first, read-through cached
func (s *invoiceService) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetInvoiceList(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	invoices, err := s.invoiceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetInvoiceList(ctx, invoices, listCacheTTL); err != nil {
			log.Printf("Failed to cache invoice list: %v", err)
		}
	}
	return invoices, nil
}

// ListEvents retrieves the append-only event log for an invoice, oldest first
func (s *invoiceService) ListEvents(ctx context.Context, invoiceID uuid.UUID) ([]*models.WebhookEvent, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, common.ErrNotFound
	}

	return s.eventRepo.ListByInvoice(ctx, invoiceID)
}

// ArchivePDF renders the invoice PDF, stores a copy in object storage, and
// returns a 24h presigned download URL.
func (s *invoiceService) ArchivePDF(ctx context.Context, invoiceID uuid.UUID) (string, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return "", common.ErrNotFound
	}

	pdfBytes, err := s.pdfSvc.RenderInvoice(&InvoiceDocument{
		InvoiceID:   invoice.ShortID(),
		ClientName:  invoice.ClientName,
		ClientEmail: invoice.ClientEmail,
		Amount:      invoice.Amount,
		Description: invoice.Description,
		DueDate:     invoice.DueDate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render invoice PDF: %w", err)
	}

	if err := s.storage.EnsureBucketExists(ctx, pdfBucket); err != nil {
		return "", fmt.Errorf("failed to ensure bucket: %w", err)
	}

	objectName := fmt.Sprintf("invoice-%s.pdf", invoice.ID.String())
	if err := s.storage.UploadDocument(ctx, pdfBucket, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}

	url, err := s.storage.GetPresignedURL(pdfBucket, objectName, 24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, nil
}

// invalidateCache drops the cached copies touched by a mutation
func (s *invoiceService) invalidateCache(ctx context.Context, invoiceID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteInvoice(ctx, invoiceID); err != nil {
		log.Printf("Failed to invalidate invoice cache %s: %v", invoiceID, err)
	}
	if err := s.cacheSvc.InvalidateInvoiceList(ctx); err != nil {
		log.Printf("Failed to invalidate invoice list cache: %v", err)
	}
}
