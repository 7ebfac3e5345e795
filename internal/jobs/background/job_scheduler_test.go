package background

import (
	"context"
	"testing"
	"time"

	"invoicedesk/internal/models"
	"invoicedesk/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository mocks the InvoiceRepository interface for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByResendEmailID(ctx context.Context, emailID string) (*models.Invoice, error) {
	args := m.Called(ctx, emailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByScheduledReminderID(ctx context.Context, reminderID string) (*models.Invoice, error) {
	args := m.Called(ctx, reminderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context) ([]*models.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateFields(ctx context.Context, id uuid.UUID, clientName, clientEmail string, amount float64, description, dueDate string) error {
	args := m.Called(ctx, id, clientName, clientEmail, amount, description, dueDate)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetResendEmailID(ctx context.Context, id uuid.UUID, emailID string) error {
	args := m.Called(ctx, id, emailID)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetScheduledReminderID(ctx context.Context, id uuid.UUID, reminderID string) error {
	args := m.Called(ctx, id, reminderID)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ClearScheduledReminderID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetPaidAt(ctx context.Context, id uuid.UUID, paidAt *time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMailerService mocks the MailerService interface for testing
type MockMailerService struct {
	mock.Mock
}

func (m *MockMailerService) Send(ctx context.Context, msg *services.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockMailerService) SendScheduled(ctx context.Context, msg *services.EmailMessage, at time.Time) (string, error) {
	args := m.Called(ctx, msg, at)
	return args.String(0), args.Error(1)
}

func (m *MockMailerService) CancelScheduled(ctx context.Context, emailID string) error {
	args := m.Called(ctx, emailID)
	return args.Error(0)
}

func TestReconcileReminders(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	paidAt := now.Add(-time.Hour)

	paidReminder := "em_paid"
	bouncedReminder := "em_bounced"
	staleReminder := "em_stale"
	liveReminder := "em_live"

	paidInvoice := &models.Invoice{
		ID:                  uuid.New(),
		Status:              models.StatusDelivered,
		PaidAt:              &paidAt,
		DueDate:             now.Add(20 * 24 * time.Hour).Format("2006-01-02"),
		ScheduledReminderID: &paidReminder,
	}
	bouncedInvoice := &models.Invoice{
		ID:                  uuid.New(),
		Status:              models.StatusBounced,
		DueDate:             now.Add(20 * 24 * time.Hour).Format("2006-01-02"),
		ScheduledReminderID: &bouncedReminder,
	}
	staleInvoice := &models.Invoice{
		ID:                  uuid.New(),
		Status:              models.StatusSent,
		DueDate:             now.Add(24 * time.Hour).Format("2006-01-02"), // inside the lead window
		ScheduledReminderID: &staleReminder,
	}
	liveInvoice := &models.Invoice{
		ID:                  uuid.New(),
		Status:              models.StatusSent,
		DueDate:             now.Add(30 * 24 * time.Hour).Format("2006-01-02"),
		ScheduledReminderID: &liveReminder,
	}
	noReminderInvoice := &models.Invoice{
		ID:      uuid.New(),
		Status:  models.StatusSent,
		DueDate: now.Add(30 * 24 * time.Hour).Format("2006-01-02"),
	}

	invoiceRepo := new(MockInvoiceRepository)
	mailer := new(MockMailerService)

	invoiceRepo.On("List", ctx).Return([]*models.Invoice{paidInvoice, bouncedInvoice, staleInvoice, liveInvoice, noReminderInvoice}, nil)
	mailer.On("CancelScheduled", ctx, paidReminder).Return(nil)
	mailer.On("CancelScheduled", ctx, bouncedReminder).Return(nil)
	invoiceRepo.On("ClearScheduledReminderID", ctx, paidInvoice.ID).Return(nil)
	invoiceRepo.On("ClearScheduledReminderID", ctx, bouncedInvoice.ID).Return(nil)
	invoiceRepo.On("ClearScheduledReminderID", ctx, staleInvoice.ID).Return(nil)

	js := NewJobScheduler(invoiceRepo, mailer, nil)
	defer js.Stop()

	err := js.reconcileReminders(ctx)
	assert.NoError(t, err)

	mailer.AssertExpectations(t)
	invoiceRepo.AssertExpectations(t)
	// The stale id is dropped without a gateway cancel, and live reminders
	// are left untouched.
	mailer.AssertNotCalled(t, "CancelScheduled", ctx, staleReminder)
	mailer.AssertNotCalled(t, "CancelScheduled", ctx, liveReminder)
	invoiceRepo.AssertNotCalled(t, "ClearScheduledReminderID", ctx, liveInvoice.ID)
}

func TestReconcileReminders_CancelFailureLeavesIDSet(t *testing.T) {
	ctx := context.Background()
	paidAt := time.Now().Add(-time.Hour)
	reminderID := "em_paid"

	invoice := &models.Invoice{
		ID:                  uuid.New(),
		Status:              models.StatusDelivered,
		PaidAt:              &paidAt,
		DueDate:             time.Now().Add(20 * 24 * time.Hour).Format("2006-01-02"),
		ScheduledReminderID: &reminderID,
	}

	invoiceRepo := new(MockInvoiceRepository)
	mailer := new(MockMailerService)

	invoiceRepo.On("List", ctx).Return([]*models.Invoice{invoice}, nil)
	mailer.On("CancelScheduled", ctx, reminderID).Return(assert.AnError)

	js := NewJobScheduler(invoiceRepo, mailer, nil)
	defer js.Stop()

	assert.NoError(t, js.reconcileReminders(ctx))
	invoiceRepo.AssertNotCalled(t, "ClearScheduledReminderID", mock.Anything, mock.Anything)
}
