package product

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrSlugExists        = errors.New("product slug already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	List(f Filter) ([]Product, error)
	GetByID(id int) (Product, error)
	Create(p Product) (Product, error)
	Update(p Product) (Product, error)
	Delete(id int) error
	// AdjustStock adds delta to the product (or variant) stock and returns
	// the new level. The level never goes below zero.
	AdjustStock(productID int, variantID *int, delta int) (int, error)
	LowStock(threshold int) ([]StockLevel, error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data.
type InMemoryRepository struct {
	mu            sync.RWMutex
	storage       []Product
	nextID        int
	nextVariantID int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{nextID: 1, nextVariantID: 1}
	for _, p := range seed {
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		for i := range p.Variants {
			p.Variants[i].ProductID = p.ID
			if p.Variants[i].ID >= r.nextVariantID {
				r.nextVariantID = p.Variants[i].ID + 1
			}
		}
		r.storage = append(r.storage, p)
	}
	return r
}

func (f Filter) match(p Product) bool {
	if f.ActiveOnly && !p.Active {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (r *InMemoryRepository) List(f Filter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if f.match(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return clone(p), nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if existing.Slug == p.Slug {
			return Product{}, ErrSlugExists
		}
	}
	p.ID = r.nextID
	r.nextID++
	r.assignVariants(&p)
	r.storage = append(r.storage, clone(p))
	return p, nil
}

func (r *InMemoryRepository) Update(p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.storage {
		if existing.ID == p.ID {
			idx = i
		} else if existing.Slug == p.Slug {
			return Product{}, ErrSlugExists
		}
	}
	if idx < 0 {
		return Product{}, ErrNotFound
	}
	p.CreatedAt = r.storage[idx].CreatedAt
	r.assignVariants(&p)
	r.storage[idx] = clone(p)
	return p, nil
}

func (r *InMemoryRepository) assignVariants(p *Product) {
	for i := range p.Variants {
		p.Variants[i].ProductID = p.ID
		if p.Variants[i].ID == 0 {
			p.Variants[i].ID = r.nextVariantID
			r.nextVariantID++
		}
	}
}

func (r *InMemoryRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) AdjustStock(productID int, variantID *int, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		p := &r.storage[i]
		if p.ID != productID {
			continue
		}
		if variantID == nil {
			if p.Stock+delta < 0 {
				return p.Stock, ErrInsufficientStock
			}
			p.Stock += delta
			return p.Stock, nil
		}
		for j := range p.Variants {
			v := &p.Variants[j]
			if v.ID == *variantID {
				if v.Stock+delta < 0 {
					return v.Stock, ErrInsufficientStock
				}
				v.Stock += delta
				return v.Stock, nil
			}
		}
		return 0, ErrVariantNotFound
	}
	return 0, ErrNotFound
}

func (r *InMemoryRepository) LowStock(threshold int) ([]StockLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StockLevel, 0)
	for _, p := range r.storage {
		out = append(out, lowStockRows(p, threshold)...)
	}
	return out, nil
}

// lowStockRows reports variants when the product has any, otherwise the
// product itself.
func lowStockRows(p Product, threshold int) []StockLevel {
	var out []StockLevel
	if len(p.Variants) == 0 {
		if p.Stock <= threshold {
			out = append(out, StockLevel{ProductID: p.ID, Name: p.Name, Stock: p.Stock})
		}
		return out
	}
	for _, v := range p.Variants {
		if v.Stock <= threshold {
			id := v.ID
			out = append(out, StockLevel{ProductID: p.ID, VariantID: &id, Name: p.Name, VariantName: v.Name, SKU: v.SKU, Stock: v.Stock})
		}
	}
	return out
}

func clone(p Product) Product {
	p.Images = append([]string(nil), p.Images...)
	p.Variants = append([]Variant(nil), p.Variants...)
	return p
}
