package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the delivery lifecycle state of an invoice email
type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "pending"
	StatusSent      InvoiceStatus = "sent"
	StatusDelivered InvoiceStatus = "delivered"
	StatusOpened    InvoiceStatus = "opened"
	StatusBounced   InvoiceStatus = "bounced"
	StatusDelayed   InvoiceStatus = "delayed"
)

// Valid reports whether s is one of the closed set of invoice statuses
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusOpened, StatusBounced, StatusDelayed:
		return true
	}
	return false
}

type Invoice struct {
	ID                  uuid.UUID     `json:"id" db:"id"`
	ClientName          string        `json:"client_name" db:"client_name"`
	ClientEmail         string        `json:"client_email" db:"client_email"`
	Amount              float64       `json:"amount" db:"amount"`
	Description         string        `json:"description" db:"description"`
	DueDate             string        `json:"due_date" db:"due_date"` // YYYY-MM-DD
	Status              InvoiceStatus `json:"status" db:"status"`
	ResendEmailID       *string       `json:"resend_email_id" db:"resend_email_id"`
	ScheduledReminderID *string       `json:"scheduled_reminder_id" db:"scheduled_reminder_id"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	PaidAt              *time.Time    `json:"paid_at" db:"paid_at"`
}

// Paid reports whether the invoice has been marked paid
func (i *Invoice) Paid() bool {
	return i.PaidAt != nil
}

// ShortID returns the human-readable invoice reference used in emails
// and PDFs: the last 8 characters of the id, upper-cased.
func (i *Invoice) ShortID() string {
	s := strings.ReplaceAll(i.ID.String(), "-", "")
	return strings.ToUpper(s[len(s)-8:])
}

// DueDateTime parses DueDate at local midnight, matching how the
// dashboard submits calendar dates without a time component.
func (i *Invoice) DueDateTime() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", i.DueDate, time.Local)
}
