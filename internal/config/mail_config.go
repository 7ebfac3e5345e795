package config

import (
	"fmt"
	"os"
)

// MailConfig contains the email provider settings
type MailConfig struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
	FromAddress   string
}

const defaultBaseURL = "https://api.resend.com"

// LoadMailConfig loads mail settings from environment variables
func LoadMailConfig() (*MailConfig, error) {
	cfg := &MailConfig{
		APIKey:        os.Getenv("RESEND_API_KEY"),
		BaseURL:       os.Getenv("RESEND_BASE_URL"),
		WebhookSecret: os.Getenv("RESEND_WEBHOOK_SECRET"),
		FromAddress:   os.Getenv("INVOICE_FROM_EMAIL"),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("RESEND_WEBHOOK_SECRET environment variable is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = "invoices@localhost"
	}

	return cfg, nil
}
