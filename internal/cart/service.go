package cart

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrItemNotInCart     = errors.New("item not in cart")
)

// Catalog prices cart lines.
type Catalog interface {
	Resolve(productID int, variantID *int) (product.Item, error)
}

// Service orchestrates cart operations.
type Service struct {
	repo    Repository
	catalog Catalog
	log     *slog.Logger
}

func NewService(repo Repository, catalog Catalog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, log: log}
}

// Items returns the raw stored cart.
func (s *Service) Items(userID int) ([]Item, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.Get(userID)
}

// Get prices the cart. Lines whose product disappeared or was deactivated
// are left out of the view.
func (s *Service) Get(userID int) (View, error) {
	items, err := s.Items(userID)
	if err != nil {
		return View{}, err
	}
	return s.price(userID, items), nil
}

func (s *Service) price(userID int, items []Item) View {
	view := View{Items: make([]Line, 0, len(items)), Subtotal: decimal.Zero}
	for _, it := range items {
		resolved, err := s.catalog.Resolve(it.ProductID, it.VariantID)
		if err != nil {
			s.log.Warn("cart line skipped", "user_id", userID, "product_id", it.ProductID, "error", err)
			continue
		}
		total := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		view.Items = append(view.Items, Line{
			Item:        it,
			Name:        resolved.Name,
			VariantName: resolved.VariantName,
			Image:       resolved.Image,
			UnitPrice:   resolved.UnitPrice,
			LineTotal:   total,
			Stock:       resolved.Stock,
		})
		view.ItemCount += it.Quantity
		view.Subtotal = view.Subtotal.Add(total)
	}
	return view
}

// Add increases (or with a negative qty decreases) the quantity of a line.
// A line whose quantity drops to zero is removed.
func (s *Service) Add(userID, productID int, variantID *int, qty int) (View, error) {
	if userID <= 0 {
		return View{}, ErrNotFound
	}
	if qty == 0 {
		return s.Get(userID)
	}
	resolved, err := s.catalog.Resolve(productID, variantID)
	if err != nil {
		return View{}, err
	}

	items, err := s.repo.Update(userID, func(items []Item) ([]Item, error) {
		for i, it := range items {
			if it.sameLine(productID, variantID) {
				items[i].Quantity += qty
				if items[i].Quantity > resolved.Stock {
					return nil, fmt.Errorf("%s: %w", resolved.Name, ErrInsufficientStock)
				}
				if items[i].Quantity <= 0 {
					items = append(items[:i], items[i+1:]...)
				}
				return items, nil
			}
		}
		if qty < 0 {
			return nil, ErrItemNotInCart
		}
		if qty > resolved.Stock {
			return nil, fmt.Errorf("%s: %w", resolved.Name, ErrInsufficientStock)
		}
		return append(items, Item{ProductID: productID, VariantID: resolved.VariantID, Quantity: qty}), nil
	})
	if err != nil {
		return View{}, err
	}
	return s.price(userID, items), nil
}

// SetQuantity replaces the quantity of an existing line; zero removes it.
func (s *Service) SetQuantity(userID, productID int, variantID *int, qty int) (View, error) {
	if qty < 0 {
		return View{}, ErrInvalidQuantity
	}
	if qty == 0 {
		return s.Remove(userID, productID, variantID)
	}
	resolved, err := s.catalog.Resolve(productID, variantID)
	if err != nil {
		return View{}, err
	}
	if qty > resolved.Stock {
		return View{}, fmt.Errorf("%s: %w", resolved.Name, ErrInsufficientStock)
	}
	items, err := s.repo.Update(userID, func(items []Item) ([]Item, error) {
		for i, it := range items {
			if it.sameLine(productID, variantID) {
				items[i].Quantity = qty
				return items, nil
			}
		}
		return nil, ErrItemNotInCart
	})
	if err != nil {
		return View{}, err
	}
	return s.price(userID, items), nil
}

func (s *Service) Remove(userID, productID int, variantID *int) (View, error) {
	items, err := s.repo.Update(userID, func(items []Item) ([]Item, error) {
		for i, it := range items {
			if it.sameLine(productID, variantID) {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrItemNotInCart
	})
	if err != nil {
		return View{}, err
	}
	return s.price(userID, items), nil
}

// Clear empties a user's cart.
func (s *Service) Clear(userID int) error {
	if userID <= 0 {
		return ErrNotFound
	}
	return s.repo.Clear(userID)
}
