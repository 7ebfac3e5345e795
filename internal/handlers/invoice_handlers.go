package handlers

import (
	"errors"
	"net/http"

	"invoicedesk/internal/common"
	"invoicedesk/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceServiceInterface) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
	}
}

// CreateInvoice handles POST /invoices
// Creates the invoice and sends it to the client in one step.
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.CreateInvoiceInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	result, err := h.invoiceService.CreateAndSend(ctx, &req)
	if err != nil {
		if ve, ok := common.AsValidationError(err); ok {
			return common.SendValidationError(c, ve.Field, ve.Message)
		}
		if common.IsDeliveryError(err) {
			return common.SendServerError(c, "Failed to send invoice email: "+err.Error())
		}
		return common.SendServerError(c, "Failed to create invoice: "+err.Error())
	}

	return c.JSON(http.StatusCreated, result)
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	invoices, err := h.invoiceService.ListInvoices(ctx)
	if err != nil {
		return common.SendServerError(c, "Failed to list invoices: "+err.Error())
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return common.SendServerError(c, "Failed to retrieve invoice: "+err.Error())
	}
	if invoice == nil {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice handles PUT /invoices/:id
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req services.CreateInvoiceInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.invoiceService.UpdateFields(ctx, invoiceID, &req); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to update invoice: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Invoice updated"})
}

// DeleteInvoice handles DELETE /invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.invoiceService.DeleteInvoice(ctx, invoiceID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to delete invoice: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

// ResendInvoice handles POST /invoices/:id/resend
func (h *InvoiceHandlers) ResendInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	result, err := h.invoiceService.ResendEmail(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		if common.IsDeliveryError(err) {
			return common.SendServerError(c, "Failed to send invoice email: "+err.Error())
		}
		return common.SendServerError(c, "Failed to resend invoice: "+err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// TogglePaid handles POST /invoices/:id/toggle-paid
func (h *InvoiceHandlers) TogglePaid(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	paid, err := h.invoiceService.TogglePaid(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to toggle paid state: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]bool{"paid": paid})
}

// CancelReminder handles POST /invoices/:id/cancel-reminder
func (h *InvoiceHandlers) CancelReminder(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.invoiceService.CancelReminder(ctx, invoiceID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		if ve, ok := common.AsValidationError(err); ok {
			return common.SendValidationError(c, ve.Field, ve.Message)
		}
		return common.SendServerError(c, "Failed to cancel reminder: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Reminder cancelled"})
}

// ListInvoiceEvents handles GET /invoices/:id/events
func (h *InvoiceHandlers) ListInvoiceEvents(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	events, err := h.invoiceService.ListEvents(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to list invoice events: "+err.Error())
	}

	return c.JSON(http.StatusOK, events)
}

// ArchiveInvoicePDF handles POST /invoices/:id/pdf
// Stores the rendered PDF in object storage and returns a download URL.
func (h *InvoiceHandlers) ArchiveInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	url, err := h.invoiceService.ArchivePDF(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to archive invoice PDF: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
