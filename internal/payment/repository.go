package payment

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("payment session not found")

type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, merchantOID string) (Session, error)
	// Complete and Fail only move a pending session. They report false when
	// the session had already reached a terminal status.
	Complete(ctx context.Context, merchantOID, orderNumber string) (bool, error)
	Fail(ctx context.Context, merchantOID, reason string) (bool, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sessions: make(map[string]Session)}
}

func (r *InMemoryRepository) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.MerchantOID] = s
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, merchantOID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[merchantOID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *InMemoryRepository) settle(merchantOID string, apply func(*Session)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[merchantOID]
	if !ok {
		return false, ErrNotFound
	}
	if s.Status != StatusPending {
		return false, nil
	}
	apply(&s)
	s.UpdatedAt = time.Now().UTC()
	r.sessions[merchantOID] = s
	return true, nil
}

func (r *InMemoryRepository) Complete(_ context.Context, merchantOID, orderNumber string) (bool, error) {
	return r.settle(merchantOID, func(s *Session) {
		s.Status = StatusCompleted
		s.OrderNumber = &orderNumber
	})
}

func (r *InMemoryRepository) Fail(_ context.Context, merchantOID, reason string) (bool, error) {
	return r.settle(merchantOID, func(s *Session) {
		s.Status = StatusFailed
		s.FailureReason = &reason
	})
}
