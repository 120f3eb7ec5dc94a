package address

import (
	"database/sql"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `id, user_id, title, full_name, phone, address, city, district, postal_code, created_at, updated_at`

	listAddressesQuery = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`
	getAddressQuery    = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	insertAddressQuery = `
		INSERT INTO addresses (user_id, title, full_name, phone, address, city, district, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE addresses
		SET title = $3, full_name = $4, phone = $5, address = $6, city = $7, district = $8, postal_code = $9, updated_at = $10
		WHERE user_id = $1 AND id = $2
		RETURNING ` + addressColumns
	deleteAddressQuery = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(s rowScanner) (Address, error) {
	var a Address
	err := s.Scan(&a.ID, &a.UserID, &a.Title, &a.FullName, &a.Phone, &a.Address, &a.City, &a.District, &a.PostalCode, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepository) ListByUser(userID int) ([]Address, error) {
	rows, err := r.db.Query(listAddressesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(userID, id int) (Address, error) {
	return scanAddress(r.db.QueryRow(getAddressQuery, userID, id))
}

func (r *PostgresRepository) Create(a Address) (Address, error) {
	return scanAddress(r.db.QueryRow(insertAddressQuery,
		a.UserID, a.Title, a.FullName, a.Phone, a.Address, a.City, a.District, a.PostalCode, a.CreatedAt))
}

func (r *PostgresRepository) Update(a Address) (Address, error) {
	return scanAddress(r.db.QueryRow(updateAddressQuery,
		a.UserID, a.ID, a.Title, a.FullName, a.Phone, a.Address, a.City, a.District, a.PostalCode, a.UpdatedAt))
}

func (r *PostgresRepository) Delete(userID, id int) error {
	res, err := r.db.Exec(deleteAddressQuery, userID, id)
	if err != nil {
		return err
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return ErrNotFound
	}
	return nil
}
