package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Invoice caching
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	SetInvoice(ctx context.Context, invoice *models.Invoice, ttl time.Duration) error
	DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error

	// Dashboard list caching
	GetInvoiceList(ctx context.Context) ([]*models.Invoice, error)
	SetInvoiceList(ctx context.Context, invoices []*models.Invoice, ttl time.Duration) error
	InvalidateInvoiceList(ctx context.Context) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

const listKey = "invoicedesk:invoices:list"

func invoiceKey(invoiceID uuid.UUID) string {
	return fmt.Sprintf("invoicedesk:invoice:%s", invoiceID.String())
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port style addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	data, err := r.client.Get(ctx, invoiceKey(invoiceID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var invoice models.Invoice
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *redisCacheService) SetInvoice(ctx context.Context, invoice *models.Invoice, ttl time.Duration) error {
	data, err := json.Marshal(invoice)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, invoiceKey(invoice.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return r.client.Del(ctx, invoiceKey(invoiceID)).Err()
}

func (r *redisCacheService) GetInvoiceList(ctx context.Context) ([]*models.Invoice, error) {
	data, err := r.client.Get(ctx, listKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var invoices []*models.Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *redisCacheService) SetInvoiceList(ctx context.Context, invoices []*models.Invoice, ttl time.Duration) error {
	data, err := json.Marshal(invoices)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, listKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateInvoiceList(ctx context.Context) error {
	return r.client.Del(ctx, listKey).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
