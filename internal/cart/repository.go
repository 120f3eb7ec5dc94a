package cart

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("user not found")

// Repository stores the raw cart per user.
type Repository interface {
	Get(userID int) ([]Item, error)
	// Update applies fn to the stored cart atomically and persists the result.
	Update(userID int, fn func([]Item) ([]Item, error)) ([]Item, error)
	Clear(userID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[int][]Item
}

// NewInMemoryRepository knows only the users present in seed.
func NewInMemoryRepository(seed map[int][]Item) *InMemoryRepository {
	r := &InMemoryRepository{carts: make(map[int][]Item, len(seed))}
	for uid, items := range seed {
		r.carts[uid] = append([]Item{}, items...)
	}
	return r
}

func (r *InMemoryRepository) Get(userID int) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]Item{}, items...), nil
}

func (r *InMemoryRepository) Update(userID int, fn func([]Item) ([]Item, error)) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := fn(append([]Item{}, items...))
	if err != nil {
		return nil, err
	}
	r.carts[userID] = next
	return append([]Item{}, next...), nil
}

func (r *InMemoryRepository) Clear(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[userID]; !ok {
		return ErrNotFound
	}
	r.carts[userID] = []Item{}
	return nil
}
