package favorite

import (
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrAlreadyFavorite = errors.New("product already in favorites")
	ErrNotFavorite     = errors.New("product not in favorites")
)

// Repository stores favorite product ids per user, in insertion order.
type Repository interface {
	Add(userID, productID int) ([]int, error)
	Remove(userID, productID int) ([]int, error)
	List(userID int) ([]int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu   sync.RWMutex
	favs map[int][]int
}

func NewInMemoryRepository(seed map[int][]int) *InMemoryRepository {
	r := &InMemoryRepository{favs: make(map[int][]int, len(seed))}
	for uid, ids := range seed {
		r.favs[uid] = append([]int{}, ids...)
	}
	return r
}

func (r *InMemoryRepository) Add(userID, productID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids, ok := r.favs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, pid := range ids {
		if pid == productID {
			return nil, ErrAlreadyFavorite
		}
	}
	r.favs[userID] = append(ids, productID)
	return append([]int{}, r.favs[userID]...), nil
}

func (r *InMemoryRepository) Remove(userID, productID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids, ok := r.favs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]int, 0, len(ids))
	for _, pid := range ids {
		if pid != productID {
			out = append(out, pid)
		}
	}
	if len(out) == len(ids) {
		return nil, ErrNotFavorite
	}
	r.favs[userID] = out
	return append([]int{}, out...), nil
}

func (r *InMemoryRepository) List(userID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids, ok := r.favs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]int{}, ids...), nil
}
