package banner

import (
	"database/sql"
	"errors"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	bannerColumns = `id, title, image, link, alt, sort_order, active, created_at, updated_at`

	listBannersQuery = `
		SELECT ` + bannerColumns + ` FROM banners
		WHERE (NOT $1 OR active)
		ORDER BY sort_order DESC, id
		LIMIT NULLIF($2, 0)`
	getBannerQuery    = `SELECT ` + bannerColumns + ` FROM banners WHERE id = $1`
	insertBannerQuery = `
		INSERT INTO banners (title, image, link, alt, sort_order, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + bannerColumns
	updateBannerQuery = `
		UPDATE banners SET title = $2, image = $3, link = $4, alt = $5, sort_order = $6, active = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + bannerColumns
	deleteBannerQuery = `DELETE FROM banners WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBanner(s rowScanner) (Banner, error) {
	var (
		b         Banner
		link, alt sql.NullString
	)
	err := s.Scan(&b.ID, &b.Title, &b.Image, &link, &alt, &b.SortOrder, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, ErrNotFound
	}
	if err != nil {
		return Banner{}, err
	}
	if link.Valid {
		b.Link = &link.String
	}
	if alt.Valid {
		b.Alt = &alt.String
	}
	return b, nil
}

func (r *PostgresRepository) List(activeOnly bool, limit int) ([]Banner, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := r.db.Query(listBannersQuery, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Banner, 0)
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Banner, error) {
	return scanBanner(r.db.QueryRow(getBannerQuery, id))
}

func (r *PostgresRepository) Create(b Banner) (Banner, error) {
	return scanBanner(r.db.QueryRow(insertBannerQuery, b.Title, b.Image, b.Link, b.Alt, b.SortOrder, b.Active, b.CreatedAt))
}

func (r *PostgresRepository) Update(b Banner) (Banner, error) {
	return scanBanner(r.db.QueryRow(updateBannerQuery, b.ID, b.Title, b.Image, b.Link, b.Alt, b.SortOrder, b.Active, b.UpdatedAt))
}

func (r *PostgresRepository) Delete(id int) error {
	res, err := r.db.Exec(deleteBannerQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
