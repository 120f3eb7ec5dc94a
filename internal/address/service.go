package address

import (
	"errors"
	"strings"
	"time"
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid address: " + strings.Join(e.Errors, ", ")
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(userID int) ([]Address, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.ListByUser(userID)
}

func (s *Service) Get(userID, id int) (Address, error) {
	if userID <= 0 || id <= 0 {
		return Address{}, ErrNotFound
	}
	return s.repo.Get(userID, id)
}

func (s *Service) Create(userID int, a Address) (Address, error) {
	if userID <= 0 {
		return Address{}, ErrNotFound
	}
	if errs := a.Validate(); len(errs) > 0 {
		return Address{}, &ValidationError{Errors: errs}
	}
	now := s.now().UTC()
	a.UserID = userID
	a.CreatedAt, a.UpdatedAt = now, now
	return s.repo.Create(a)
}

func (s *Service) Update(userID, id int, a Address) (Address, error) {
	if userID <= 0 || id <= 0 {
		return Address{}, ErrNotFound
	}
	if errs := a.Validate(); len(errs) > 0 {
		return Address{}, &ValidationError{Errors: errs}
	}
	a.ID, a.UserID = id, userID
	a.UpdatedAt = s.now().UTC()
	return s.repo.Update(a)
}

func (s *Service) Delete(userID, id int) error {
	if userID <= 0 || id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(userID, id)
}

// IsValidation reports whether err came from address validation.
func IsValidation(err error) ([]string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors, true
	}
	return nil, false
}
