package banner

import (
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("banner not found")

// Repository provides access to banner rows.
type Repository interface {
	// List returns banners ordered by sort order (highest first) then id.
	// A limit <= 0 means no limit.
	List(activeOnly bool, limit int) ([]Banner, error)
	GetByID(id int) (Banner, error)
	Create(b Banner) (Banner, error)
	Update(b Banner) (Banner, error)
	Delete(id int) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	items  []Banner
	nextID int
}

func NewInMemoryRepository(seed []Banner) *InMemoryRepository {
	r := &InMemoryRepository{nextID: 1}
	for _, b := range seed {
		r.items = append(r.items, b)
		if b.ID >= r.nextID {
			r.nextID = b.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) List(activeOnly bool, limit int) ([]Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Banner, 0, len(r.items))
	for _, b := range r.items {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder > out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.ID == id {
			return b, nil
		}
	}
	return Banner{}, ErrNotFound
}

func (r *InMemoryRepository) Create(b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.nextID
	r.nextID++
	r.items = append(r.items, b)
	return b, nil
}

func (r *InMemoryRepository) Update(b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.items {
		if existing.ID == b.ID {
			b.CreatedAt = existing.CreatedAt
			r.items[i] = b
			return b, nil
		}
	}
	return Banner{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.items {
		if b.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
