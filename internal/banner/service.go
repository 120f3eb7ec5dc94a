package banner

import (
	"errors"
	"strings"
	"time"
)

const defaultLimit = 10

var ErrImageRequired = errors.New("banner image is required")

// Service provides business logic for banners.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// Active returns up to limit visible banners; limit <= 0 uses the default.
func (s *Service) Active(limit int) ([]Banner, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return s.repo.List(true, limit)
}

func (s *Service) All() ([]Banner, error) {
	return s.repo.List(false, 0)
}

func (s *Service) Create(b Banner) (Banner, error) {
	if err := normalize(&b); err != nil {
		return Banner{}, err
	}
	now := s.now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	return s.repo.Create(b)
}

func (s *Service) Update(id int, b Banner) (Banner, error) {
	if err := normalize(&b); err != nil {
		return Banner{}, err
	}
	b.ID = id
	b.UpdatedAt = s.now().UTC()
	return s.repo.Update(b)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

func normalize(b *Banner) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Image = strings.TrimSpace(b.Image)
	if b.Image == "" {
		return ErrImageRequired
	}
	return nil
}
