package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	insertSessionQuery = `
		INSERT INTO payment_sessions (merchant_oid, user_id, token, status, amount, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	getSessionQuery = `
		SELECT merchant_oid, user_id, token, status, amount, snapshot, order_number, failure_reason, created_at, updated_at
		FROM payment_sessions WHERE merchant_oid = $1`
	completeSessionQuery = `
		UPDATE payment_sessions SET status = 'completed', order_number = $2, updated_at = now()
		WHERE merchant_oid = $1 AND status = 'pending'`
	failSessionQuery = `
		UPDATE payment_sessions SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE merchant_oid = $1 AND status = 'pending'`
	sessionExistsQuery = `SELECT EXISTS (SELECT 1 FROM payment_sessions WHERE merchant_oid = $1)`
)

func (r *PostgresRepository) Create(ctx context.Context, s Session) error {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertSessionQuery, s.MerchantOID, s.UserID, s.Token, s.Status, s.Amount, snapshot, s.CreatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, merchantOID string) (Session, error) {
	var (
		s             Session
		snapshot      []byte
		orderNumber   sql.NullString
		failureReason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getSessionQuery, merchantOID).Scan(&s.MerchantOID, &s.UserID, &s.Token, &s.Status,
		&s.Amount, &snapshot, &orderNumber, &failureReason, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal(snapshot, &s.Snapshot); err != nil {
		return Session{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if orderNumber.Valid {
		s.OrderNumber = &orderNumber.String
	}
	if failureReason.Valid {
		s.FailureReason = &failureReason.String
	}
	return s, nil
}

func (r *PostgresRepository) Complete(ctx context.Context, merchantOID, orderNumber string) (bool, error) {
	return r.settle(ctx, completeSessionQuery, merchantOID, orderNumber)
}

func (r *PostgresRepository) Fail(ctx context.Context, merchantOID, reason string) (bool, error) {
	return r.settle(ctx, failSessionQuery, merchantOID, reason)
}

func (r *PostgresRepository) settle(ctx context.Context, query, merchantOID, value string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, merchantOID, value)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, sessionExistsQuery, merchantOID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}
