package category

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound   = errors.New("category not found")
	ErrSlugExists = errors.New("category slug already exists")
)

// Repository provides access to category rows.
type Repository interface {
	List() ([]Category, error)
	GetByID(id int) (Category, error)
	Create(c Category) (Category, error)
	Update(c Category) (Category, error)
	Delete(id int) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	items  []Category
	nextID int
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{nextID: 1}
	for _, c := range seed {
		r.items = append(r.items, c)
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

// List orders by sort_order then id, matching the Postgres query.
func (r *InMemoryRepository) List() ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, len(r.items))
	copy(out, r.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) Create(c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Slug == c.Slug {
			return Category{}, ErrSlugExists
		}
	}
	c.ID = r.nextID
	r.nextID++
	r.items = append(r.items, c)
	return c, nil
}

func (r *InMemoryRepository) Update(c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.items {
		if existing.ID == c.ID {
			idx = i
		} else if existing.Slug == c.Slug {
			return Category{}, ErrSlugExists
		}
	}
	if idx < 0 {
		return Category{}, ErrNotFound
	}
	c.CreatedAt = r.items[idx].CreatedAt
	r.items[idx] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
