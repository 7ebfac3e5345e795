package handlers

import (
	"errors"
	"io"
	"net/http"

	"invoicedesk/internal/common"
	"invoicedesk/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers handles inbound webhook deliveries
type WebhookHandlers struct {
	webhookService services.WebhookServiceInterface
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(webhookService services.WebhookServiceInterface) *WebhookHandlers {
	return &WebhookHandlers{
		webhookService: webhookService,
	}
}

// ResendWebhook handles POST /webhooks/resend
func (h *WebhookHandlers) ResendWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	headers := &services.WebhookHeaders{
		ID:        c.Request().Header.Get("svix-id"),
		Timestamp: c.Request().Header.Get("svix-timestamp"),
		Signature: c.Request().Header.Get("svix-signature"),
	}

	result, err := h.webhookService.HandleProviderEvent(ctx, body, headers)
	if err != nil {
		if ve, ok := common.AsValidationError(err); ok {
			return common.SendValidationError(c, ve.Field, ve.Message)
		}
		if errors.Is(err, common.ErrInvalidSignature) {
			return common.SendUnauthorizedError(c, "Invalid webhook signature")
		}
		return common.SendServerError(c, "Failed to process webhook: "+err.Error())
	}

	return c.JSON(http.StatusOK, result)
}
