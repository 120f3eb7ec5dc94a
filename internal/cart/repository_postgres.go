package cart

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// PostgresRepository keeps the cart as a JSONB array on the users row.
type PostgresRepository struct {
	db *sql.DB
}

const (
	getCartQuery       = `SELECT cart FROM users WHERE id = $1`
	getCartForUpdate   = `SELECT cart FROM users WHERE id = $1 FOR UPDATE`
	updateCartQuery    = `UPDATE users SET cart = $2, updated_at = now() WHERE id = $1`
	clearCartQuery     = `UPDATE users SET cart = '[]'::jsonb, updated_at = now() WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func decodeCart(raw []byte) ([]Item, error) {
	items := []Item{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) Get(userID int) ([]Item, error) {
	var raw []byte
	if err := r.db.QueryRow(getCartQuery, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeCart(raw)
}

func (r *PostgresRepository) Update(userID int, fn func([]Item) ([]Item, error)) ([]Item, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var raw []byte
	if err := tx.QueryRow(getCartForUpdate, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := decodeCart(raw)
	if err != nil {
		return nil, err
	}
	next, err := fn(items)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(updateCartQuery, userID, string(encoded)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *PostgresRepository) Clear(userID int) error {
	res, err := r.db.Exec(clearCartQuery, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
