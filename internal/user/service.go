package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo        Repository
	adminEmails map[string]struct{}
	now         func() time.Time
}

func NewService(repo Repository, adminEmails ...string) *Service {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &Service{repo: repo, adminEmails: admins, now: time.Now}
}

func (s *Service) List() ([]User, error) {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

func (s *Service) Register(user User) (User, error) {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if _, err := s.repo.GetByEmail(user.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.Password = string(hashed)

	user.Role = RoleCustomer
	if _, ok := s.adminEmails[user.Email]; ok {
		user.Role = RoleAdmin
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	return s.repo.Create(user)
}

func (s *Service) Authenticate(email, password string) (User, error) {
	user, err := s.repo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	FirstName     *string
	LastName      *string
	Phone         *string
	MainAddressID *int
	Password      *string
}

func (s *Service) UpdateProfile(id int, upd ProfileUpdate) (User, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return User{}, err
	}
	if upd.FirstName != nil {
		existing.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		existing.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		existing.Phone = *upd.Phone
	}
	if upd.MainAddressID != nil {
		existing.MainAddressID = upd.MainAddressID
	}
	existing.Password = ""
	if upd.Password != nil && *upd.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		existing.Password = string(hashed)
	}
	existing.UpdatedAt = s.now().UTC()
	return s.repo.Update(id, existing)
}

func (s *Service) SetRole(id int, role string) (User, error) {
	if role != RoleAdmin && role != RoleCustomer {
		return User{}, ErrInvalidRole
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return User{}, err
	}
	existing.Role = role
	existing.Password = ""
	existing.UpdatedAt = s.now().UTC()
	return s.repo.Update(id, existing)
}
