package dealer

import (
	"context"
	"database/sql"
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
	applicationColumns = `id, company_name, contact_name, email, phone, city, tax_number, status, created_at, updated_at`
	quoteColumns       = `id, name, email, phone, company, product_id, quantity, message, status, admin_reply, created_at, updated_at`

	listApplicationsQuery = `SELECT ` + applicationColumns + ` FROM dealers WHERE ($1 = '' OR status = $1) ORDER BY id DESC`
	insertApplicationQuery = `
		INSERT INTO dealers (company_name, contact_name, email, phone, city, tax_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + applicationColumns
	setApplicationStatusQuery = `UPDATE dealers SET status = $2, updated_at = now() WHERE id = $1 RETURNING ` + applicationColumns
	deleteApplicationQuery    = `DELETE FROM dealers WHERE id = $1`

	listQuotesQuery  = `SELECT ` + quoteColumns + ` FROM quotes WHERE ($1 = '' OR status = $1) ORDER BY id DESC`
	getQuoteQuery    = `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	insertQuoteQuery = `
		INSERT INTO quotes (name, email, phone, company, product_id, quantity, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + quoteColumns
	updateQuoteQuery = `
		UPDATE quotes SET status = $2, admin_reply = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + quoteColumns
	deleteQuoteQuery = `DELETE FROM quotes WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(s rowScanner) (Application, error) {
	var a Application
	err := s.Scan(&a.ID, &a.CompanyName, &a.ContactName, &a.Email, &a.Phone, &a.City, &a.TaxNumber,
		&a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return a, err
}

func scanQuote(s rowScanner) (Quote, error) {
	var (
		q         Quote
		company   sql.NullString
		productID sql.NullInt64
		reply     sql.NullString
	)
	err := s.Scan(&q.ID, &q.Name, &q.Email, &q.Phone, &company, &productID, &q.Quantity, &q.Message,
		&q.Status, &reply, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, err
	}
	if company.Valid {
		q.Company = &company.String
	}
	if productID.Valid {
		id := int(productID.Int64)
		q.ProductID = &id
	}
	if reply.Valid {
		q.AdminReply = &reply.String
	}
	return q, nil
}

func (r *PostgresRepository) ListApplications(ctx context.Context, status Status) ([]Application, error) {
	rows, err := r.db.QueryContext(ctx, listApplicationsQuery, string(status))
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}
	defer rows.Close()

	out := make([]Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateApplication(ctx context.Context, a Application) (Application, error) {
	return scanApplication(r.db.QueryRowContext(ctx, insertApplicationQuery,
		a.CompanyName, a.ContactName, a.Email, a.Phone, a.City, a.TaxNumber, a.Status, a.CreatedAt))
}

func (r *PostgresRepository) SetApplicationStatus(ctx context.Context, id int, status Status) (Application, error) {
	return scanApplication(r.db.QueryRowContext(ctx, setApplicationStatusQuery, id, status))
}

func (r *PostgresRepository) DeleteApplication(ctx context.Context, id int) error {
	return execDelete(ctx, r.db, deleteApplicationQuery, id)
}

func (r *PostgresRepository) ListQuotes(ctx context.Context, status QuoteStatus) ([]Quote, error) {
	rows, err := r.db.QueryContext(ctx, listQuotesQuery, string(status))
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	out := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetQuote(ctx context.Context, id int) (Quote, error) {
	return scanQuote(r.db.QueryRowContext(ctx, getQuoteQuery, id))
}

func (r *PostgresRepository) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	return scanQuote(r.db.QueryRowContext(ctx, insertQuoteQuery,
		q.Name, q.Email, q.Phone, q.Company, q.ProductID, q.Quantity, q.Message, q.Status, q.CreatedAt))
}

func (r *PostgresRepository) UpdateQuote(ctx context.Context, q Quote) (Quote, error) {
	return scanQuote(r.db.QueryRowContext(ctx, updateQuoteQuery, q.ID, q.Status, q.AdminReply, q.UpdatedAt))
}

func (r *PostgresRepository) DeleteQuote(ctx context.Context, id int) error {
	return execDelete(ctx, r.db, deleteQuoteQuery, id)
}

func execDelete(ctx context.Context, db *sql.DB, query string, id int) error {
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
