package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/j1vetr/hank-sub000/internal/slug"
)

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrUnavailable    = errors.New("product is not available")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(f Filter) ([]Product, error) {
	return s.repo.List(f)
}

func (s *Service) GetByID(id int) (Product, error) {
	return s.repo.GetByID(id)
}

// GetActive hides inactive products from the storefront.
func (s *Service) GetActive(id int) (Product, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}
	if !p.Active {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(p Product) (Product, error) {
	if err := s.normalize(&p); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.repo.Create(p)
}

func (s *Service) Update(id int, p Product) (Product, error) {
	if err := s.normalize(&p); err != nil {
		return Product{}, err
	}
	p.ID = id
	p.UpdatedAt = s.now().UTC()
	return s.repo.Update(p)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

func (s *Service) AdjustStock(productID int, variantID *int, delta int) (int, error) {
	return s.repo.AdjustStock(productID, variantID, delta)
}

func (s *Service) LowStock(threshold int) ([]StockLevel, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.repo.LowStock(threshold)
}

// Resolve prices one cart line from the catalog. Variant prices override the
// product price when set.
func (s *Service) Resolve(productID int, variantID *int) (Item, error) {
	p, err := s.repo.GetByID(productID)
	if err != nil {
		return Item{}, err
	}
	if !p.Active {
		return Item{}, fmt.Errorf("%s: %w", p.Name, ErrUnavailable)
	}

	item := Item{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Stock: p.Stock}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	if variantID == nil {
		if len(p.Variants) > 0 {
			return Item{}, fmt.Errorf("%s: variant must be selected: %w", p.Name, ErrVariantNotFound)
		}
		return item, nil
	}

	v, ok := p.Variant(*variantID)
	if !ok {
		return Item{}, ErrVariantNotFound
	}
	id := v.ID
	item.VariantID = &id
	item.VariantName = v.Name
	item.Stock = v.Stock
	if v.Price != nil {
		item.UnitPrice = *v.Price
	}
	return item, nil
}

func (s *Service) normalize(p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("%w: variant name is required", ErrInvalidProduct)
		}
		if v.Stock < 0 || (v.Price != nil && !v.Price.IsPositive()) {
			return fmt.Errorf("%w: invalid variant %q", ErrInvalidProduct, v.Name)
		}
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Name)
	} else {
		p.Slug = slug.Make(p.Slug)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return nil
}
