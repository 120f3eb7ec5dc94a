package category

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	categoryColumns = `id, name, slug, description, image, sort_order, created_at, updated_at`

	listCategoriesQuery = `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order, id`
	getCategoryQuery    = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	insertCategoryQuery = `
		INSERT INTO categories (name, slug, description, image, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + categoryColumns
	updateCategoryQuery = `
		UPDATE categories SET name = $2, slug = $3, description = $4, image = $5, sort_order = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + categoryColumns
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s rowScanner) (Category, error) {
	var (
		c   Category
		img sql.NullString
	)
	err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &img, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, mapErr(err)
	}
	if img.Valid {
		c.Image = &img.String
	}
	return c, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugExists
	}
	return err
}

func (r *PostgresRepository) List() ([]Category, error) {
	rows, err := r.db.Query(listCategoriesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Category, error) {
	return scanCategory(r.db.QueryRow(getCategoryQuery, id))
}

func (r *PostgresRepository) Create(c Category) (Category, error) {
	return scanCategory(r.db.QueryRow(insertCategoryQuery, c.Name, c.Slug, c.Description, c.Image, c.SortOrder, c.CreatedAt))
}

func (r *PostgresRepository) Update(c Category) (Category, error) {
	return scanCategory(r.db.QueryRow(updateCategoryQuery, c.ID, c.Name, c.Slug, c.Description, c.Image, c.SortOrder, c.UpdatedAt))
}

func (r *PostgresRepository) Delete(id int) error {
	res, err := r.db.Exec(deleteCategoryQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
