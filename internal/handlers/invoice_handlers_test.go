package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceService mocks the InvoiceServiceInterface for testing
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateAndSend(ctx context.Context, input *services.CreateInvoiceInput) (*services.SendResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

func (m *MockInvoiceService) ResendEmail(ctx context.Context, invoiceID uuid.UUID) (*services.SendResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

func (m *MockInvoiceService) TogglePaid(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, invoiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceService) CancelReminder(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceService) UpdateFields(ctx context.Context, invoiceID uuid.UUID, input *services.CreateInvoiceInput) error {
	args := m.Called(ctx, invoiceID, input)
	return args.Error(0)
}

func (m *MockInvoiceService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceService) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListEvents(ctx context.Context, invoiceID uuid.UUID) ([]*models.WebhookEvent, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookEvent), args.Error(1)
}

func (m *MockInvoiceService) ArchivePDF(ctx context.Context, invoiceID uuid.UUID) (string, error) {
	args := m.Called(ctx, invoiceID)
	return args.String(0), args.Error(1)
}

func jsonRequest(method, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestCreateInvoice_Success(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	result := &services.SendResult{InvoiceID: uuid.New(), EmailID: "em_primary"}
	svc.On("CreateAndSend", mock.Anything, mock.MatchedBy(func(input *services.CreateInvoiceInput) bool {
		return input.ClientName == "Acme Corp" && input.Amount == 1250.50
	})).Return(result, nil)

	body := `{"client_name":"Acme Corp","client_email":"billing@acme.example","amount":1250.50,"description":"Consulting","due_date":"2026-12-01"}`
	rec, c := jsonRequest(http.MethodPost, "/v1/invoices", body)

	assert.NoError(t, h.CreateInvoice(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateInvoice_ValidationFailureReturns400(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	svc.On("CreateAndSend", mock.Anything, mock.Anything).
		Return(nil, common.NewValidationError("client_email", "must be a valid email address"))

	rec, c := jsonRequest(http.MethodPost, "/v1/invoices", `{"client_name":"A","client_email":"bad"}`)

	assert.NoError(t, h.CreateInvoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp common.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "client_email")
}

func TestGetInvoice_NotFoundReturns404(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	id := uuid.New()
	svc.On("GetInvoiceByID", mock.Anything, id).Return(nil, nil)

	rec, c := jsonRequest(http.MethodGet, "/v1/invoices/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.NoError(t, h.GetInvoice(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvoice_InvalidUUIDReturns400(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	rec, c := jsonRequest(http.MethodGet, "/v1/invoices/not-a-uuid", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	assert.NoError(t, h.GetInvoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetInvoiceByID", mock.Anything, mock.Anything)
}

func TestTogglePaid_ReturnsNewState(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	id := uuid.New()
	svc.On("TogglePaid", mock.Anything, id).Return(true, nil)

	rec, c := jsonRequest(http.MethodPost, "/v1/invoices/"+id.String()+"/toggle-paid", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.NoError(t, h.TogglePaid(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["paid"])
}

func TestCancelReminder_NoReminderReturns400(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	id := uuid.New()
	svc.On("CancelReminder", mock.Anything, id).
		Return(common.NewValidationError("scheduled_reminder_id", "no scheduled reminder to cancel"))

	rec, c := jsonRequest(http.MethodPost, "/v1/invoices/"+id.String()+"/cancel-reminder", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.NoError(t, h.CancelReminder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteInvoice_NotFoundReturns404(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	id := uuid.New()
	svc.On("DeleteInvoice", mock.Anything, id).Return(common.ErrNotFound)

	rec, c := jsonRequest(http.MethodDelete, "/v1/invoices/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.NoError(t, h.DeleteInvoice(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInvoices_Success(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	invoices := []*models.Invoice{
		{ID: uuid.New(), ClientName: "Acme Corp", Status: models.StatusSent},
	}
	svc.On("ListInvoices", mock.Anything).Return(invoices, nil)

	rec, c := jsonRequest(http.MethodGet, "/v1/invoices", "")

	assert.NoError(t, h.ListInvoices(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []*models.Invoice
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestResendInvoice_DeliveryFailureReturns500(t *testing.T) {
	svc := new(MockInvoiceService)
	h := NewInvoiceHandlers(svc)

	id := uuid.New()
	svc.On("ResendEmail", mock.Anything, id).
		Return(nil, common.NewDeliveryError("send", assert.AnError))

	rec, c := jsonRequest(http.MethodPost, "/v1/invoices/"+id.String()+"/resend", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.NoError(t, h.ResendInvoice(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
