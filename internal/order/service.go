package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrEmptyOrder       = errors.New("order has no items")
	ErrTrackingRequired = errors.New("tracking number is required")
	ErrInvalidStatus    = errors.New("invalid status")
)

// ShipmentNotifier tells the customer their parcel left the warehouse.
type ShipmentNotifier interface {
	OrderShipped(ctx context.Context, to, name, orderNumber, trackingNumber string) error
}

// Inventory returns stock for cancelled orders.
type Inventory interface {
	AdjustStock(productID int, variantID *int, delta int) (int, error)
}

// Service provides business logic for orders.
type Service struct {
	repo      Repository
	notifier  ShipmentNotifier
	inventory Inventory
	log       *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, notifier ShipmentNotifier, inventory Inventory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, inventory: inventory, log: log, now: time.Now}
}

// Place stores a paid order under a fresh order number. When the order
// carries a merchant oid that already produced an order, that order is
// returned instead.
func (s *Service) Place(ctx context.Context, o Order) (Order, error) {
	if len(o.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	now := s.now().UTC()
	o.Status = StatusPending
	o.CreatedAt, o.UpdatedAt = now, now

	for attempt := 0; attempt < 3; attempt++ {
		o.OrderNumber = NewOrderNumber(now)
		created, err := s.repo.Create(ctx, o)
		if err == nil {
			s.log.Info("order placed", "order_number", created.OrderNumber, "user_id", created.UserID, "total", created.Total.String())
			return created, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return Order{}, fmt.Errorf("create order: %w", err)
		}
		if o.MerchantOID != nil {
			if existing, err := s.repo.GetByMerchantOID(ctx, *o.MerchantOID); err == nil {
				return existing, nil
			}
		}
	}
	return Order{}, fmt.Errorf("create order: %w", ErrDuplicate)
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser hides other users' orders behind ErrNotFound.
func (s *Service) GetForUser(ctx context.Context, userID int, number string) (Order, error) {
	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, statuses []Status) ([]Order, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
		}
	}
	return s.repo.List(ctx, statuses)
}

func (s *Service) Get(ctx context.Context, id int) (Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SetStatus(ctx context.Context, id int, to Status) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}
	from := o.Status
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, o, from)
	if err != nil {
		return Order{}, fmt.Errorf("%s -> %s: %w", from, to, err)
	}
	s.log.Info("order status changed", "order_number", updated.OrderNumber, "from", from, "to", to)

	switch to {
	case StatusShipped:
		s.notifyShipped(ctx, updated)
	case StatusCancelled:
		s.restock(updated)
	}
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, id int) (Order, error) {
	return s.SetStatus(ctx, id, StatusCancelled)
}

// SetTracking records the carrier's tracking number. A processing order is
// moved to shipped; a shipped order only gets its number corrected.
func (s *Service) SetTracking(ctx context.Context, id int, tracking string) (Order, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return Order{}, ErrTrackingRequired
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusProcessing && o.Status != StatusShipped {
		return Order{}, fmt.Errorf("%w: cannot ship a %s order", ErrIllegalTransition, o.Status)
	}
	from := o.Status
	o.TrackingNumber = &tracking
	o.Status = StatusShipped
	o.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, o, from)
	if err != nil {
		return Order{}, fmt.Errorf("set tracking: %w", err)
	}
	if from == StatusProcessing {
		s.notifyShipped(ctx, updated)
	}
	return updated, nil
}

// SetNotes only touches the admin notes, never the status.
func (s *Service) SetNotes(ctx context.Context, id int, notes string) (Order, error) {
	return s.repo.SetNotes(ctx, id, notes, s.now().UTC())
}

func (s *Service) notifyShipped(ctx context.Context, o Order) {
	if s.notifier == nil {
		return
	}
	tracking := ""
	if o.TrackingNumber != nil {
		tracking = *o.TrackingNumber
	}
	if err := s.notifier.OrderShipped(ctx, o.Customer.Email, o.Customer.Name, o.OrderNumber, tracking); err != nil {
		s.log.Error("shipping email failed", "order_number", o.OrderNumber, "error", err)
	}
}

func (s *Service) restock(o Order) {
	if s.inventory == nil {
		return
	}
	for _, it := range o.Items {
		if _, err := s.inventory.AdjustStock(it.ProductID, it.VariantID, it.Quantity); err != nil {
			s.log.Warn("restock failed", "order_number", o.OrderNumber, "product_id", it.ProductID, "error", err)
		}
	}
}
