package coupon

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("coupon not found")
	ErrCodeExists = errors.New("coupon code already exists")
	ErrBadCoupon  = errors.New("invalid coupon definition")
)

type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	GetByID(ctx context.Context, id int) (Coupon, error)
	GetByCode(ctx context.Context, code string) (Coupon, error)
	Create(ctx context.Context, c Coupon) (Coupon, error)
	Update(ctx context.Context, c Coupon) (Coupon, error)
	Delete(ctx context.Context, id int) error
	// RecordRedemption stores r and bumps the coupon's used count.
	RecordRedemption(ctx context.Context, r Redemption) error
	InfluencerReport(ctx context.Context) ([]InfluencerStats, error)
}

type InMemoryRepository struct {
	mu          sync.RWMutex
	coupons     []Coupon
	redemptions []Redemption
	nextID      int
}

func NewInMemoryRepository(seed []Coupon) *InMemoryRepository {
	r := &InMemoryRepository{nextID: 1}
	for _, c := range seed {
		c.Code = NormalizeCode(c.Code)
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.coupons = append(r.coupons, c)
	}
	return r
}

func (r *InMemoryRepository) List(context.Context) ([]Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Coupon, len(r.coupons))
	copy(out, r.coupons)
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (r *InMemoryRepository) GetByCode(_ context.Context, code string) (Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, c Coupon) (Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return Coupon{}, ErrCodeExists
		}
	}
	c.ID = r.nextID
	r.nextID++
	r.coupons = append(r.coupons, c)
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, c Coupon) (Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.coupons {
		if existing.ID == c.ID {
			idx = i
		} else if existing.Code == c.Code {
			return Coupon{}, ErrCodeExists
		}
	}
	if idx < 0 {
		return Coupon{}, ErrNotFound
	}
	c.UsedCount = r.coupons[idx].UsedCount
	c.CreatedAt = r.coupons[idx].CreatedAt
	r.coupons[idx] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.coupons {
		if c.ID == id {
			r.coupons = append(r.coupons[:i], r.coupons[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) RecordRedemption(_ context.Context, red Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.coupons {
		if r.coupons[i].ID == red.CouponID {
			r.coupons[i].UsedCount++
			r.redemptions = append(r.redemptions, red)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) InfluencerReport(context.Context) ([]InfluencerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InfluencerStats, 0)
	for _, c := range r.coupons {
		if !c.IsInfluencerCode {
			continue
		}
		st := InfluencerStats{CouponID: c.ID, Code: c.Code, Revenue: decimal.Zero, DiscountGiven: decimal.Zero}
		if c.InfluencerInstagram != nil {
			st.Instagram = *c.InfluencerInstagram
		}
		for _, red := range r.redemptions {
			if red.CouponID == c.ID {
				st.Uses++
				st.Revenue = st.Revenue.Add(red.OrderTotal)
				st.DiscountGiven = st.DiscountGiven.Add(red.Discount)
			}
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out, nil
}
