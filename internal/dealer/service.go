package dealer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrEmptyReply    = errors.New("reply is empty")
)

// ValidationError lists the fields a submission got wrong.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

// QuoteMailer delivers admin replies to the requester.
type QuoteMailer interface {
	QuoteAnswered(ctx context.Context, to, name, reply string) error
}

type Service struct {
	repo   Repository
	mailer QuoteMailer
	log    *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, mailer QuoteMailer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, mailer: mailer, log: log, now: time.Now}
}

func (s *Service) Apply(ctx context.Context, a Application) (Application, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if errs := a.Validate(); len(errs) > 0 {
		return Application{}, &ValidationError{Errors: errs}
	}
	now := s.now().UTC()
	a.Status = StatusPending
	a.CreatedAt, a.UpdatedAt = now, now
	created, err := s.repo.CreateApplication(ctx, a)
	if err != nil {
		return Application{}, fmt.Errorf("create dealer application: %w", err)
	}
	s.log.Info("dealer application received", "id", created.ID, "company", created.CompanyName)
	return created, nil
}

func (s *Service) ListApplications(ctx context.Context, status Status) ([]Application, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListApplications(ctx, status)
}

func (s *Service) SetApplicationStatus(ctx context.Context, id int, status Status) (Application, error) {
	if !status.Valid() {
		return Application{}, ErrInvalidStatus
	}
	return s.repo.SetApplicationStatus(ctx, id, status)
}

func (s *Service) DeleteApplication(ctx context.Context, id int) error {
	return s.repo.DeleteApplication(ctx, id)
}

func (s *Service) RequestQuote(ctx context.Context, q Quote) (Quote, error) {
	q.Email = strings.ToLower(strings.TrimSpace(q.Email))
	if q.Quantity == 0 {
		q.Quantity = 1
	}
	if errs := q.Validate(); len(errs) > 0 {
		return Quote{}, &ValidationError{Errors: errs}
	}
	now := s.now().UTC()
	q.Status = QuoteNew
	q.AdminReply = nil
	q.CreatedAt, q.UpdatedAt = now, now
	created, err := s.repo.CreateQuote(ctx, q)
	if err != nil {
		return Quote{}, fmt.Errorf("create quote: %w", err)
	}
	return created, nil
}

func (s *Service) ListQuotes(ctx context.Context, status QuoteStatus) ([]Quote, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListQuotes(ctx, status)
}

// Reply stores the admin's answer, marks the quote answered and emails it.
// A mail failure is logged; the reply stays saved.
func (s *Service) Reply(ctx context.Context, id int, reply string) (Quote, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Quote{}, ErrEmptyReply
	}
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	q.AdminReply = &reply
	q.Status = QuoteAnswered
	q.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateQuote(ctx, q)
	if err != nil {
		return Quote{}, err
	}
	if s.mailer != nil {
		if err := s.mailer.QuoteAnswered(ctx, updated.Email, updated.Name, reply); err != nil {
			s.log.Error("quote reply email failed", "quote_id", id, "error", err)
		}
	}
	return updated, nil
}

func (s *Service) SetQuoteStatus(ctx context.Context, id int, status QuoteStatus) (Quote, error) {
	if !status.Valid() {
		return Quote{}, ErrInvalidStatus
	}
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	q.Status = status
	q.UpdatedAt = s.now().UTC()
	return s.repo.UpdateQuote(ctx, q)
}

func (s *Service) DeleteQuote(ctx context.Context, id int) error {
	return s.repo.DeleteQuote(ctx, id)
}
