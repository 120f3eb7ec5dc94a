package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	orderColumns = `id, order_number, user_id, status, items, subtotal, discount, shipping_cost, total,
		coupon_code, customer, tracking_number, notes, merchant_oid, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (order_number, user_id, status, items, subtotal, discount, shipping_cost, total,
			coupon_code, customer, notes, merchant_oid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING ` + orderColumns
	getOrderByIDQuery          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderByNumberQuery      = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	getOrderByMerchantOIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE merchant_oid = $1`
	listOrdersByUserQuery      = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id DESC`
	listOrdersQuery            = `
		SELECT ` + orderColumns + ` FROM orders
		WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
		ORDER BY id DESC`
	updateOrderStatusQuery = `
		UPDATE orders SET status = $2, tracking_number = $3, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + orderColumns
	updateOrderNotesQuery = `
		UPDATE orders SET notes = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + orderColumns
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (Order, error) {
	var (
		o                             Order
		itemsJSON, customerJSON       []byte
		coupon, tracking, merchantOID sql.NullString
	)
	err := s.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &itemsJSON, &o.Subtotal, &o.Discount, &o.ShippingCost,
		&o.Total, &coupon, &customerJSON, &tracking, &o.Notes, &merchantOID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, mapErr(err)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return Order{}, fmt.Errorf("decode order customer: %w", err)
	}
	if coupon.Valid {
		o.CouponCode = &coupon.String
	}
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if merchantOID.Valid {
		o.MerchantOID = &merchantOID.String
	}
	return o, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, err
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return Order{}, err
	}
	return scanOrder(r.db.QueryRowContext(ctx, insertOrderQuery,
		o.OrderNumber, o.UserID, o.Status, itemsJSON, o.Subtotal, o.Discount, o.ShippingCost, o.Total,
		o.CouponCode, customerJSON, o.Notes, o.MerchantOID, o.CreatedAt))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, getOrderByIDQuery, id))
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, getOrderByNumberQuery, number))
}

func (r *PostgresRepository) GetByMerchantOID(ctx context.Context, merchantOID string) (Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, getOrderByMerchantOIDQuery, merchantOID))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return r.query(ctx, listOrdersByUserQuery, userID)
}

func (r *PostgresRepository) List(ctx context.Context, statuses []Status) ([]Order, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.query(ctx, listOrdersQuery, pq.Array(names))
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, o Order, from Status) (Order, error) {
	updated, err := scanOrder(r.db.QueryRowContext(ctx, updateOrderStatusQuery, o.ID, o.Status, o.TrackingNumber, o.UpdatedAt, from))
	if !errors.Is(err, ErrNotFound) {
		return updated, err
	}
	// no row matched: either the order is gone or its status moved on
	if _, err := r.GetByID(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return Order{}, ErrConflict
}

func (r *PostgresRepository) SetNotes(ctx context.Context, id int, notes string, updatedAt time.Time) (Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, updateOrderNotesQuery, id, notes, updatedAt))
}
