package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invoicedesk/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailer_Send(t *testing.T) {
	var captured sendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"id": "em_123"})
	}))
	defer server.Close()

	mailer := NewResendMailer("re_test_key", server.URL)
	id, err := mailer.Send(context.Background(), &EmailMessage{
		From:    "billing@example.com",
		To:      "client@acme.example",
		Subject: "Invoice — $100.00",
		HTML:    "<p>hi</p>",
		Attachments: []EmailAttachment{
			{Filename: "invoice-A1B2C3D4.pdf", Content: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "em_123", id)

	assert.Equal(t, []string{"client@acme.example"}, captured.To)
	assert.Empty(t, captured.ScheduledAt)
	require.Len(t, captured.Attachments, 1)
	// Attachment bytes travel base64-encoded.
	assert.Equal(t, []byte("%PDF-1.4"), captured.Attachments[0].Content)
}

func TestResendMailer_SendScheduled(t *testing.T) {
	var captured sendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"id": "em_scheduled"})
	}))
	defer server.Close()

	at := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	mailer := NewResendMailer("re_test_key", server.URL)
	id, err := mailer.SendScheduled(context.Background(), &EmailMessage{
		From: "billing@example.com", To: "client@acme.example", Subject: "Reminder", HTML: "<p>soon</p>",
	}, at)
	require.NoError(t, err)
	assert.Equal(t, "em_scheduled", id)
	assert.Equal(t, "2026-10-12T09:00:00Z", captured.ScheduledAt)
}

func TestResendMailer_SendFailureIsDeliveryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	mailer := NewResendMailer("re_test_key", server.URL)
	_, err := mailer.Send(context.Background(), &EmailMessage{To: "client@acme.example"})
	assert.Error(t, err)
	assert.True(t, common.IsDeliveryError(err))
}

func TestResendMailer_SendMissingIDIsDeliveryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	mailer := NewResendMailer("re_test_key", server.URL)
	_, err := mailer.Send(context.Background(), &EmailMessage{To: "client@acme.example"})
	assert.True(t, common.IsDeliveryError(err))
}

func TestResendMailer_CancelScheduled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails/em_123/cancel", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "em_123"})
	}))
	defer server.Close()

	mailer := NewResendMailer("re_test_key", server.URL)
	assert.NoError(t, mailer.CancelScheduled(context.Background(), "em_123"))
}

func TestResendMailer_CancelAfterDispatchIsDeliveryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"email already delivered"}`))
	}))
	defer server.Close()

	mailer := NewResendMailer("re_test_key", server.URL)
	err := mailer.CancelScheduled(context.Background(), "em_123")
	assert.True(t, common.IsDeliveryError(err))
}

func TestEmailAttachment_MarshalsContentAsBase64(t *testing.T) {
	raw, err := json.Marshal(EmailAttachment{Filename: "a.pdf", Content: []byte("%PDF-1.4")})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")), decoded["content"])
}
