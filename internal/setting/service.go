package setting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/j1vetr/hank-sub000/internal/cache"
)

const (
	cacheKey = "settings"
	cacheTTL = 10 * time.Minute
)

var ErrInvalid = errors.New("invalid settings")

// Service serves settings from cache, then the database, then the defaults
// loaded from configuration.
type Service struct {
	repo     Repository
	cache    cache.Cache
	defaults Settings
	log      *slog.Logger
}

func NewService(repo Repository, c cache.Cache, defaults Settings, log *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: c, defaults: defaults, log: log}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	var cached Settings
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("settings cache read failed", "error", err)
	}

	cur, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		cur = s.defaults
	} else if err != nil {
		return Settings{}, err
	}
	if err := s.cache.Set(ctx, cacheKey, cur, cacheTTL); err != nil {
		s.log.Warn("settings cache write failed", "error", err)
	}
	return cur, nil
}

func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	next.StoreName = strings.TrimSpace(next.StoreName)
	next.Currency = strings.TrimSpace(next.Currency)
	if next.FreeShippingThreshold.IsNegative() || next.ShippingFee.IsNegative() {
		return Settings{}, fmt.Errorf("%w: shipping values must be non-negative", ErrInvalid)
	}
	if next.Currency == "" {
		next.Currency = s.defaults.Currency
	}
	if next.StoreName == "" {
		next.StoreName = s.defaults.StoreName
	}
	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, next); err != nil {
		return Settings{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.Warn("settings cache invalidation failed", "error", err)
	}
	return next, nil
}
