package dealer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	ListApplications(ctx context.Context, status Status) ([]Application, error)
	CreateApplication(ctx context.Context, a Application) (Application, error)
	SetApplicationStatus(ctx context.Context, id int, status Status) (Application, error)
	DeleteApplication(ctx context.Context, id int) error

	ListQuotes(ctx context.Context, status QuoteStatus) ([]Quote, error)
	GetQuote(ctx context.Context, id int) (Quote, error)
	CreateQuote(ctx context.Context, q Quote) (Quote, error)
	UpdateQuote(ctx context.Context, q Quote) (Quote, error)
	DeleteQuote(ctx context.Context, id int) error
}

type InMemoryRepository struct {
	mu           sync.RWMutex
	applications map[int]Application
	quotes       map[int]Quote
	nextAppID    int
	nextQuoteID  int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		applications: make(map[int]Application),
		quotes:       make(map[int]Quote),
		nextAppID:    1,
		nextQuoteID:  1,
	}
}

func (r *InMemoryRepository) ListApplications(_ context.Context, status Status) ([]Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Application, 0, len(r.applications))
	for _, a := range r.applications {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) CreateApplication(_ context.Context, a Application) (Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextAppID
	r.nextAppID++
	r.applications[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) SetApplicationStatus(_ context.Context, id int, status Status) (Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.applications[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	r.applications[id] = a
	return a, nil
}

func (r *InMemoryRepository) DeleteApplication(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applications[id]; !ok {
		return ErrNotFound
	}
	delete(r.applications, id)
	return nil
}

func (r *InMemoryRepository) ListQuotes(_ context.Context, status QuoteStatus) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		if status == "" || q.Status == status {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetQuote(_ context.Context, id int) (Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[id]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return q, nil
}

func (r *InMemoryRepository) CreateQuote(_ context.Context, q Quote) (Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.ID = r.nextQuoteID
	r.nextQuoteID++
	r.quotes[q.ID] = q
	return q, nil
}

func (r *InMemoryRepository) UpdateQuote(_ context.Context, q Quote) (Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[q.ID]; !ok {
		return Quote{}, ErrNotFound
	}
	r.quotes[q.ID] = q
	return q, nil
}

func (r *InMemoryRepository) DeleteQuote(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[id]; !ok {
		return ErrNotFound
	}
	delete(r.quotes, id)
	return nil
}
