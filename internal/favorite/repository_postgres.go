package favorite

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PostgresRepository keeps favorites in the users.favorites int[] column.
type PostgresRepository struct {
	db *sql.DB
}

const (
	listFavoritesQuery = `SELECT favorites FROM users WHERE id = $1`
	addFavoriteQuery   = `
		UPDATE users
		SET favorites = array_append(favorites, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(favorites))
		RETURNING favorites
	`
	removeFavoriteQuery = `
		UPDATE users
		SET favorites = array_remove(favorites, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(favorites)
		RETURNING favorites
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(userID, productID int) ([]int, error) {
	return r.mutate(addFavoriteQuery, ErrAlreadyFavorite, userID, productID)
}

func (r *PostgresRepository) Remove(userID, productID int) ([]int, error) {
	return r.mutate(removeFavoriteQuery, ErrNotFavorite, userID, productID)
}

// mutate runs a guarded update. No returned row means either the user is
// missing or the guard failed, which a follow-up lookup distinguishes.
func (r *PostgresRepository) mutate(query string, guardErr error, userID, productID int) ([]int, error) {
	var arr pq.Int64Array
	err := r.db.QueryRow(query, userID, productID).Scan(&arr)
	if errors.Is(err, sql.ErrNoRows) {
		if _, lerr := r.List(userID); lerr != nil {
			return nil, lerr
		}
		return nil, guardErr
	}
	if err != nil {
		return nil, err
	}
	return toInts(arr), nil
}

func (r *PostgresRepository) List(userID int) ([]int, error) {
	var arr pq.Int64Array
	if err := r.db.QueryRow(listFavoritesQuery, userID).Scan(&arr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toInts(arr), nil
}

func toInts(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}
