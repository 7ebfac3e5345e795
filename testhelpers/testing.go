package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for integration testing
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=invoicedesk_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SeedInvoice inserts an invoice row for testing
func SeedInvoice(t *testing.T, db *TestDB, status models.InvoiceStatus) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		ID:          uuid.New(),
		ClientName:  "Test Client",
		ClientEmail: "client@example.com",
		Amount:      1250.00,
		Description: "Consulting services",
		DueDate:     time.Now().Add(30 * 24 * time.Hour).Format("2006-01-02"),
		Status:      status,
		CreatedAt:   time.Now(),
	}

	query := `
		INSERT INTO invoices (id, client_name, client_email, amount, description, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		invoice.ID, invoice.ClientName, invoice.ClientEmail, invoice.Amount,
		invoice.Description, invoice.DueDate, invoice.Status, invoice.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to seed test invoice: %v", err)
	}

	return invoice
}
