package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invoicedesk/internal/common"
)

// MailerService is the outbound email gateway: immediate sends, scheduled
// sends, and best-effort cancellation of a not-yet-sent scheduled email.
type MailerService interface {
	Send(ctx context.Context, msg *EmailMessage) (string, error)
	SendScheduled(ctx context.Context, msg *EmailMessage, at time.Time) (string, error)
	CancelScheduled(ctx context.Context, emailID string) error
}

// EmailAttachment is a file attached to an outbound email
type EmailAttachment struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"` // marshals to base64
}

// EmailMessage is a single outbound email
type EmailMessage struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Attachments []EmailAttachment
}

type sendEmailRequest struct {
	From        string            `json:"from"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
	ScheduledAt string            `json:"scheduled_at,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

type resendMailer struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewResendMailer creates a mailer backed by the Resend API
func NewResendMailer(apiKey, baseURL string) MailerService {
	return &resendMailer{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *resendMailer) Send(ctx context.Context, msg *EmailMessage) (string, error) {
	return s.send(ctx, msg, "")
}

func (s *resendMailer) SendScheduled(ctx context.Context, msg *EmailMessage, at time.Time) (string, error) {
	return s.send(ctx, msg, at.UTC().Format(time.RFC3339))
}

func (s *resendMailer) send(ctx context.Context, msg *EmailMessage, scheduledAt string) (string, error) {
	payload := sendEmailRequest{
		From:        msg.From,
		To:          []string{msg.To},
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Attachments: msg.Attachments,
		ScheduledAt: scheduledAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", common.NewDeliveryError("send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", common.NewDeliveryError("send", apiError(resp))
	}

	var result sendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", common.NewDeliveryError("send", fmt.Errorf("failed to decode response: %w", err))
	}
	if result.ID == "" {
		return "", common.NewDeliveryError("send", fmt.Errorf("provider returned no email id"))
	}

	return result.ID, nil
}

func (s *resendMailer) CancelScheduled(ctx context.Context, emailID string) error {
	url := fmt.Sprintf("%s/emails/%s/cancel", s.baseURL, emailID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create cancel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return common.NewDeliveryError("cancel", err)
	}
	defer resp.Body.Close()

	// The provider refuses cancellation once the email has left the
	// scheduling queue. Callers decide whether that is fatal.
	if resp.StatusCode >= 400 {
		return common.NewDeliveryError("cancel", apiError(resp))
	}

	return nil
}

func apiError(resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr != nil || len(body) == 0 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
}
