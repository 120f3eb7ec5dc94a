package favorite

import (
	"errors"

	"github.com/j1vetr/hank-sub000/internal/product"
)

// Catalog loads products for the wishlist view.
type Catalog interface {
	GetActive(id int) (product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) Add(userID, productID int) ([]int, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	if _, err := s.catalog.GetActive(productID); err != nil {
		return nil, err
	}
	return s.repo.Add(userID, productID)
}

func (s *Service) Remove(userID, productID int) ([]int, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.Remove(userID, productID)
}

// List returns the favorite products, skipping ones no longer sold.
func (s *Service) List(userID int) ([]product.Product, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	ids, err := s.repo.List(userID)
	if err != nil {
		return nil, err
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.GetActive(id)
		if errors.Is(err, product.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
