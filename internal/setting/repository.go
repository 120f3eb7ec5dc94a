package setting

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("settings not stored")

type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

type InMemoryRepository struct {
	mu  sync.RWMutex
	cur *Settings
}

func NewInMemoryRepository(seed *Settings) *InMemoryRepository {
	return &InMemoryRepository{cur: seed}
}

func (r *InMemoryRepository) Get(context.Context) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cur == nil {
		return Settings{}, ErrNotFound
	}
	return *r.cur, nil
}

func (r *InMemoryRepository) Save(_ context.Context, s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur = &s
	return nil
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	getSettingsQuery = `
		SELECT store_name, contact_email, free_shipping_threshold, shipping_fee, currency, updated_at
		FROM settings WHERE id = 1
	`
	upsertSettingsQuery = `
		INSERT INTO settings (id, store_name, contact_email, free_shipping_threshold, shipping_fee, currency, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			contact_email = EXCLUDED.contact_email,
			free_shipping_threshold = EXCLUDED.free_shipping_threshold,
			shipping_fee = EXCLUDED.shipping_fee,
			currency = EXCLUDED.currency,
			updated_at = EXCLUDED.updated_at
	`
)

func (r *PostgresRepository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.QueryRowContext(ctx, getSettingsQuery).
		Scan(&s.StoreName, &s.ContactEmail, &s.FreeShippingThreshold, &s.ShippingFee, &s.Currency, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) Save(ctx context.Context, s Settings) error {
	_, err := r.db.ExecContext(ctx, upsertSettingsQuery,
		s.StoreName, s.ContactEmail, s.FreeShippingThreshold, s.ShippingFee, s.Currency, s.UpdatedAt)
	return err
}
