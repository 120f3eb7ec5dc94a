package coupon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/j1vetr/hank-sub000/internal/cache"
	"github.com/shopspring/decimal"
)

const couponCacheTTL = 5 * time.Minute

// Result is the outcome of validating a code against an order total.
type Result struct {
	Valid    bool             `json:"valid"`
	Coupon   *Coupon          `json:"coupon,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type Service struct {
	repo  Repository
	cache cache.Cache
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, c cache.Cache, log *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: c, log: log, now: time.Now}
}

func cacheKey(code string) string {
	return "coupon:" + code
}

// Lookup finds a coupon by code through the read-through cache. Misses are
// not cached so a freshly created code is usable immediately.
func (s *Service) Lookup(ctx context.Context, code string) (Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Coupon{}, ErrNotFound
	}

	var c Coupon
	err := s.cache.Get(ctx, cacheKey(code), &c)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("coupon cache read failed", "code", code, "error", err)
	}

	c, err = s.repo.GetByCode(ctx, code)
	if err != nil {
		return Coupon{}, err
	}
	if err := s.cache.Set(ctx, cacheKey(code), c, couponCacheTTL); err != nil {
		s.log.Warn("coupon cache write failed", "code", code, "error", err)
	}
	return c, nil
}

// Apply returns the coupon and its discount for orderTotal, or an error
// wrapping ErrInvalidCoupon.
func (s *Service) Apply(ctx context.Context, code string, orderTotal decimal.Decimal) (Coupon, decimal.Decimal, error) {
	c, err := s.Lookup(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return Coupon{}, decimal.Zero, ErrInvalidCoupon
	}
	if err != nil {
		return Coupon{}, decimal.Zero, err
	}
	if err := c.Check(s.now(), orderTotal); err != nil {
		return Coupon{}, decimal.Zero, err
	}
	return c, c.Discount(orderTotal), nil
}

// Validate is the storefront check. Rule failures come back as Valid=false
// with a message; only infrastructure failures return an error.
func (s *Service) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (Result, error) {
	c, discount, err := s.Apply(ctx, code, orderTotal)
	if errors.Is(err, ErrInvalidCoupon) {
		return Result{Valid: false, Error: userMessage(err)}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Valid: true, Coupon: &c, Discount: &discount}, nil
}

func userMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// Redeem records a completed order's use of a coupon.
func (s *Service) Redeem(ctx context.Context, r Redemption) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if err := s.repo.RecordRedemption(ctx, r); err != nil {
		return fmt.Errorf("record redemption: %w", err)
	}
	c, err := s.repo.GetByID(ctx, r.CouponID)
	if err == nil {
		s.invalidate(ctx, c.Code)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, cacheKey(code)); err != nil {
		s.log.Warn("coupon cache invalidation failed", "code", code, "error", err)
	}
}

func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Coupon) (Coupon, error) {
	c.Code = NormalizeCode(c.Code)
	if err := c.validate(); err != nil {
		return Coupon{}, err
	}
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.UsedCount = 0
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int, c Coupon) (Coupon, error) {
	c.Code = NormalizeCode(c.Code)
	if err := c.validate(); err != nil {
		return Coupon{}, err
	}
	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Coupon{}, err
	}
	c.ID = id
	c.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return Coupon{}, err
	}
	s.invalidate(ctx, prev.Code)
	s.invalidate(ctx, updated.Code)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, prev.Code)
	return nil
}

func (s *Service) InfluencerReport(ctx context.Context) ([]InfluencerStats, error) {
	return s.repo.InfluencerReport(ctx)
}
