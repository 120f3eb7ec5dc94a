package category

import (
	"errors"
	"strings"
	"time"

	"github.com/j1vetr/hank-sub000/internal/slug"
)

var ErrNameRequired = errors.New("category name is required")

// Service provides business logic for categories.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

func (s *Service) List() ([]Category, error) {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (Category, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Create(c Category) (Category, error) {
	if err := s.normalize(&c); err != nil {
		return Category{}, err
	}
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	return s.repo.Create(c)
}

func (s *Service) Update(id int, c Category) (Category, error) {
	if err := s.normalize(&c); err != nil {
		return Category{}, err
	}
	c.ID = id
	c.UpdatedAt = s.now().UTC()
	return s.repo.Update(c)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

func (s *Service) normalize(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	} else {
		c.Slug = slug.Make(c.Slug)
	}
	return nil
}
