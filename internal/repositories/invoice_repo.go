package repositories

import (
	"context"
	"errors"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByResendEmailID(ctx context.Context, emailID string) (*models.Invoice, error)
	GetByScheduledReminderID(ctx context.Context, reminderID string) (*models.Invoice, error)
	List(ctx context.Context) ([]*models.Invoice, error)
	UpdateFields(ctx context.Context, id uuid.UUID, clientName, clientEmail string, amount float64, description, dueDate string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
	SetResendEmailID(ctx context.Context, id uuid.UUID, emailID string) error
	SetScheduledReminderID(ctx context.Context, id uuid.UUID, reminderID string) error
	ClearScheduledReminderID(ctx context.Context, id uuid.UUID) error
	SetPaidAt(ctx context.Context, id uuid.UUID, paidAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = "id, client_name, client_email, amount, description, due_date, status, resend_email_id, scheduled_reminder_id, created_at, paid_at"

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	err := row.Scan(&invoice.ID, &invoice.ClientName, &invoice.ClientEmail, &invoice.Amount, &invoice.Description, &invoice.DueDate, &invoice.Status, &invoice.ResendEmailID, &invoice.ScheduledReminderID, &invoice.CreatedAt, &invoice.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, client_name, client_email, amount, description, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, invoice.ID, invoice.ClientName, invoice.ClientEmail, invoice.Amount, invoice.Description, invoice.DueDate, invoice.Status, invoice.CreatedAt)
	return err
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
	`
	return scanInvoice(r.db.QueryRow(ctx, query, id))
}

func (r *invoiceRepo) GetByResendEmailID(ctx context.Context, emailID string) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE resend_email_id = $1
	`
	return scanInvoice(r.db.QueryRow(ctx, query, emailID))
}

func (r *invoiceRepo) GetByScheduledReminderID(ctx context.Context, reminderID string) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE scheduled_reminder_id = $1
	`
	return scanInvoice(r.db.QueryRow(ctx, query, reminderID))
}

func (r *invoiceRepo) List(ctx context.Context) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.ClientName, &invoice.ClientEmail, &invoice.Amount, &invoice.Description, &invoice.DueDate, &invoice.Status, &invoice.ResendEmailID, &invoice.ScheduledReminderID, &invoice.CreatedAt, &invoice.PaidAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepo) UpdateFields(ctx context.Context, id uuid.UUID, clientName, clientEmail string, amount float64, description, dueDate string) error {
	query := `
		UPDATE invoices
		SET client_name = $1, client_email = $2, amount = $3, description = $4, due_date = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, clientName, clientEmail, amount, description, dueDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	query := `
		UPDATE invoices
		SET status = $1
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) SetResendEmailID(ctx context.Context, id uuid.UUID, emailID string) error {
	query := `
		UPDATE invoices
		SET resend_email_id = $1
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, emailID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) SetScheduledReminderID(ctx context.Context, id uuid.UUID, reminderID string) error {
	query := `
		UPDATE invoices
		SET scheduled_reminder_id = $1
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, reminderID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) ClearScheduledReminderID(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoices
		SET scheduled_reminder_id = NULL
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) SetPaidAt(ctx context.Context, id uuid.UUID, paidAt *time.Time) error {
	query := `
		UPDATE invoices
		SET paid_at = $1
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, paidAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
