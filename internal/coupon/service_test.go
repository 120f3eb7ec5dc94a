package coupon

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/j1vetr/hank-sub000/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, seed []Coupon) (*Service, *InMemoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := NewInMemoryRepository(seed)
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	return NewService(repo, c, nil), repo, mr
}

func TestValidate_CaseInsensitiveAndCached(t *testing.T) {
	svc, _, mr := newTestService(t, []Coupon{{ID: 1, Code: "SAVE10", DiscountType: Percentage, DiscountValue: d("10"), Active: true}})
	ctx := context.Background()

	res, err := svc.Validate(ctx, " save10 ", d("3000"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(d("300")))
	assert.Equal(t, "SAVE10", res.Coupon.Code)
	assert.True(t, mr.Exists("test:coupon:SAVE10"))
}

func TestValidate_InvalidReasons(t *testing.T) {
	svc, _, mr := newTestService(t, []Coupon{
		{ID: 1, Code: "BIG", DiscountType: Fixed, DiscountValue: d("100"), Active: true, MinOrderTotal: d("1000")},
	})
	ctx := context.Background()

	res, err := svc.Validate(ctx, "NOPE", d("50"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "invalid coupon code", res.Error)
	assert.False(t, mr.Exists("test:coupon:NOPE"), "misses are not cached")

	res, err = svc.Validate(ctx, "BIG", d("999"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "order total is below the coupon minimum", res.Error)
	assert.Nil(t, res.Coupon)
}

func TestRedeem_BumpsUsageAndInvalidatesCache(t *testing.T) {
	handle := "@hankfan"
	svc, repo, mr := newTestService(t, []Coupon{
		{ID: 1, Code: "FAN5", DiscountType: Percentage, DiscountValue: d("5"), Active: true, MaxUses: 1, IsInfluencerCode: true, InfluencerInstagram: &handle},
	})
	ctx := context.Background()

	res, err := svc.Validate(ctx, "FAN5", d("2000"))
	require.NoError(t, err)
	require.True(t, res.Valid)

	require.NoError(t, svc.Redeem(ctx, Redemption{CouponID: 1, OrderNumber: "ORD-1", UserID: 3, OrderTotal: d("2100"), Discount: d("100")}))
	assert.False(t, mr.Exists("test:coupon:FAN5"))

	stored, _ := repo.GetByID(ctx, 1)
	assert.Equal(t, 1, stored.UsedCount)

	res, err = svc.Validate(ctx, "FAN5", d("2000"))
	require.NoError(t, err)
	assert.False(t, res.Valid)

	report, err := svc.InfluencerReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 1, report[0].Uses)
	assert.Equal(t, "@hankfan", report[0].Instagram)
	assert.True(t, report[0].Revenue.Equal(decimal.NewFromInt(2100)))
}

func TestCreate_ValidatesDefinition(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Coupon{Code: "x", DiscountType: Percentage, DiscountValue: d("120"), Active: true})
	assert.ErrorIs(t, err, ErrBadCoupon)

	_, err = svc.Create(ctx, Coupon{Code: "inf", DiscountType: Fixed, DiscountValue: d("10"), IsInfluencerCode: true})
	assert.ErrorIs(t, err, ErrBadCoupon)

	created, err := svc.Create(ctx, Coupon{Code: "welcome", DiscountType: Fixed, DiscountValue: d("50"), Active: true})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", created.Code)

	_, err = svc.Create(ctx, Coupon{Code: "Welcome", DiscountType: Fixed, DiscountValue: d("50")})
	assert.ErrorIs(t, err, ErrCodeExists)
}
