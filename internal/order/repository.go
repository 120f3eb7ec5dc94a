package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrDuplicate = errors.New("order already exists")
	ErrConflict  = errors.New("order was changed by another request")
)

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
	GetByNumber(ctx context.Context, number string) (Order, error)
	GetByMerchantOID(ctx context.Context, merchantOID string) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	// List returns every order, newest first, optionally restricted to statuses.
	List(ctx context.Context, statuses []Status) ([]Order, error)
	// UpdateStatus persists status and tracking number only while the stored
	// status is still from; otherwise it returns ErrConflict.
	UpdateStatus(ctx context.Context, o Order, from Status) (Order, error)
	SetNotes(ctx context.Context, id int, notes string, updatedAt time.Time) (Order, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return Order{}, ErrDuplicate
		}
		if o.MerchantOID != nil && existing.MerchantOID != nil && *existing.MerchantOID == *o.MerchantOID {
			return Order{}, ErrDuplicate
		}
	}
	o.ID = r.nextID
	r.nextID++
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *InMemoryRepository) find(match func(Order) bool) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if match(o) {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	return r.find(func(o Order) bool { return o.ID == id })
}

func (r *InMemoryRepository) GetByNumber(_ context.Context, number string) (Order, error) {
	return r.find(func(o Order) bool { return o.OrderNumber == number })
}

func (r *InMemoryRepository) GetByMerchantOID(_ context.Context, merchantOID string) (Order, error) {
	return r.find(func(o Order) bool { return o.MerchantOID != nil && *o.MerchantOID == merchantOID })
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	return r.filter(func(o Order) bool { return o.UserID == userID }), nil
}

func (r *InMemoryRepository) List(_ context.Context, statuses []Status) ([]Order, error) {
	return r.filter(func(o Order) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *InMemoryRepository) filter(keep func(Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, o Order, from Status) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID != o.ID {
			continue
		}
		if r.orders[i].Status != from {
			return Order{}, ErrConflict
		}
		r.orders[i].Status = o.Status
		r.orders[i].TrackingNumber = o.TrackingNumber
		r.orders[i].UpdatedAt = o.UpdatedAt
		return r.orders[i], nil
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) SetNotes(_ context.Context, id int, notes string, updatedAt time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Notes = notes
			r.orders[i].UpdatedAt = updatedAt
			return r.orders[i], nil
		}
	}
	return Order{}, ErrNotFound
}
