package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/j1vetr/hank-sub000/internal/cache"
	"github.com/j1vetr/hank-sub000/internal/cart"
	"github.com/j1vetr/hank-sub000/internal/coupon"
	"github.com/j1vetr/hank-sub000/internal/mail"
	"github.com/j1vetr/hank-sub000/internal/order"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/j1vetr/hank-sub000/internal/setting"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []TokenRequest
	err      error
}

func (g *fakeGateway) RequestToken(_ context.Context, req TokenRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return "tok-" + req.MerchantOID, nil
}

func (g *fakeGateway) VerifyCallback(cb Callback) bool {
	return CallbackHash(cb, "key", "salt") == cb.Hash
}

type recordingSender struct {
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type fixture struct {
	svc      *Service
	gateway  *fakeGateway
	products *product.InMemoryRepository
	carts    *cart.InMemoryRepository
	coupons  *coupon.InMemoryRepository
	orders   *order.Service
	sessions *InMemoryRepository
	mails    *recordingSender
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T, cartItems []cart.Item) *fixture {
	t.Helper()
	f := &fixture{
		gateway: &fakeGateway{},
		products: product.NewInMemoryRepository([]product.Product{
			{ID: 1, Name: "Dog Bed", Slug: "dog-bed", Price: decimal.NewFromInt(1500), Stock: 5, Active: true},
			{ID: 2, Name: "Treats", Slug: "treats", Price: decimal.NewFromInt(50), Stock: 10, Active: true},
		}),
		carts: cart.NewInMemoryRepository(map[int][]cart.Item{7: cartItems}),
		coupons: coupon.NewInMemoryRepository([]coupon.Coupon{
			{ID: 1, Code: "SAVE10", DiscountType: coupon.Percentage, DiscountValue: decimal.NewFromInt(10), Active: true},
			{ID: 2, Code: "FLAT150", DiscountType: coupon.Fixed, DiscountValue: decimal.NewFromInt(150), Active: true},
		}),
		sessions: NewInMemoryRepository(),
		mails:    &recordingSender{},
		redis:    miniredis.RunT(t),
	}
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: f.redis.Addr()}), "test:")
	catalog := product.NewService(f.products)
	f.orders = order.NewService(order.NewInMemoryRepository(), nil, catalog, nil)
	f.svc = NewService(Deps{
		Repo:     f.sessions,
		Gateway:  f.gateway,
		Cart:     cart.NewService(f.carts, catalog, nil),
		Catalog:  catalog,
		Coupons:  coupon.NewService(f.coupons, c, nil),
		Settings: setting.NewService(setting.NewInMemoryRepository(nil), nil, setting.Settings{
			StoreName:             "Hank",
			FreeShippingThreshold: decimal.NewFromInt(2500),
			ShippingFee:           decimal.NewFromInt(200),
			Currency:              "TL",
		}, nil),
		Orders:    f.orders,
		Notifier:  mail.NewNotifier(f.mails, "Hank"),
		Cache:     c,
		PublicURL: "https://shop.example.com/",
	})
	return f
}

func validRequest(code string) CreateRequest {
	return CreateRequest{
		CustomerName: "Ayse", CustomerEmail: "ayse@example.com", CustomerPhone: "5551112233",
		Address: "Bagdat Cd. 1", City: "Istanbul", District: "Kadikoy", PostalCode: "34710",
		CouponCode: code,
	}
}

func signed(oid, status, amount string) Callback {
	cb := Callback{MerchantOID: oid, Status: status, TotalAmount: amount}
	cb.Hash = CallbackHash(cb, "key", "salt")
	return cb
}

func TestCreate_PercentageCouponAndFreeShipping(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 2}})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, 7, validRequest("save10"), "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, int64(270000), f.gateway.requests[0].Amount)
	assert.Equal(t, "https://shop.example.com/checkout/success?oid="+res.MerchantOID, f.gateway.requests[0].OkURL)
	assert.Regexp(t, `^[0-9a-f]{32}$`, res.MerchantOID)
	assert.Equal(t, IframeURL(res.Token), res.IframeURL)

	sess, err := f.sessions.Get(ctx, res.MerchantOID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sess.Status)
	assert.True(t, sess.Snapshot.Subtotal.Equal(decimal.NewFromInt(3000)))
	assert.True(t, sess.Snapshot.Discount.Equal(decimal.NewFromInt(300)))
	assert.True(t, sess.Snapshot.Shipping.IsZero())
	assert.True(t, sess.Snapshot.Total.Equal(decimal.NewFromInt(2700)))
	assert.Equal(t, "SAVE10", *sess.Snapshot.CouponCode)
}

func TestCreate_FixedCouponNeverPushesTotalBelowShipping(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 2, Quantity: 1}})

	res, err := f.svc.Create(context.Background(), 7, validRequest("FLAT150"), "1.2.3.4")
	require.NoError(t, err)

	sess, _ := f.sessions.Get(context.Background(), res.MerchantOID)
	assert.True(t, sess.Snapshot.Discount.Equal(decimal.NewFromInt(50)))
	assert.True(t, sess.Snapshot.Shipping.Equal(decimal.NewFromInt(200)))
	assert.True(t, sess.Snapshot.Total.Equal(decimal.NewFromInt(200)))
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 9}})
	ctx := context.Background()

	bad := validRequest("")
	bad.CustomerEmail = "ayse@example"
	_, err := f.svc.Create(ctx, 7, bad, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"customerEmail is invalid"}, verr.Errors)

	_, err = f.svc.Create(ctx, 7, validRequest(""), "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.svc.Create(ctx, 7, validRequest("NOPE"), "")
	assert.ErrorIs(t, err, ErrInsufficientStock, "stock is checked before the coupon")

	assert.Empty(t, f.gateway.requests)
}

func TestCreate_EmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Create(context.Background(), 7, validRequest(""), "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCallback_SuccessSettlesOnce(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 2}})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, 7, validRequest("SAVE10"), "1.2.3.4")
	require.NoError(t, err)

	st, err := f.svc.Status(ctx, 7, res.MerchantOID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st.Status)

	cb := signed(res.MerchantOID, "success", "270000")
	require.NoError(t, f.svc.HandleCallback(ctx, cb))
	require.NoError(t, f.svc.HandleCallback(ctx, cb))

	st, err = f.svc.Status(ctx, 7, res.MerchantOID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	require.NotNil(t, st.OrderNumber)

	orders, err := f.orders.ListForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, *st.OrderNumber, orders[0].OrderNumber)
	assert.True(t, orders[0].Total.Equal(decimal.NewFromInt(2700)))

	p, _ := f.products.GetByID(1)
	assert.Equal(t, 3, p.Stock)

	items, _ := f.carts.Get(7)
	assert.Empty(t, items)

	c, _ := f.coupons.GetByID(ctx, 1)
	assert.Equal(t, 1, c.UsedCount)

	require.Len(t, f.mails.sent, 1)
	assert.Contains(t, f.mails.sent[0].Text, "Total: 2700.00 TL")
}

func TestCallback_FailureKeepsCart(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 1}})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, 7, validRequest(""), "1.2.3.4")
	require.NoError(t, err)

	cb := Callback{MerchantOID: res.MerchantOID, Status: "failed", TotalAmount: "170000", FailedCode: "2", FailedReason: "insufficient funds"}
	cb.Hash = CallbackHash(cb, "key", "salt")
	require.NoError(t, f.svc.HandleCallback(ctx, cb))

	sess, _ := f.sessions.Get(ctx, res.MerchantOID)
	assert.Equal(t, StatusFailed, sess.Status)
	assert.Equal(t, "2 insufficient funds", *sess.FailureReason)

	items, _ := f.carts.Get(7)
	assert.Len(t, items, 1)
	orders, _ := f.orders.ListForUser(ctx, 7)
	assert.Empty(t, orders)

	require.NoError(t, f.svc.HandleCallback(ctx, signed(res.MerchantOID, "success", "170000")))
	sess, _ = f.sessions.Get(ctx, res.MerchantOID)
	assert.Equal(t, StatusFailed, sess.Status, "terminal sessions are not reopened")
}

func TestCallback_UnderpaidSessionIsFailed(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 1}})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, 7, validRequest(""), "1.2.3.4")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleCallback(ctx, signed(res.MerchantOID, "success", "100")))

	sess, _ := f.sessions.Get(ctx, res.MerchantOID)
	assert.Equal(t, StatusFailed, sess.Status)
	require.NotNil(t, sess.FailureReason)
	assert.Contains(t, *sess.FailureReason, "amount mismatch")

	orders, _ := f.orders.ListForUser(ctx, 7)
	assert.Empty(t, orders)
	items, _ := f.carts.Get(7)
	assert.Len(t, items, 1)
	p, _ := f.products.GetByID(1)
	assert.Equal(t, 5, p.Stock)
	assert.Empty(t, f.mails.sent)
}

func TestCallback_BadHash(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 1}})
	cb := signed("whatever", "success", "1")
	cb.Hash = "forged"
	assert.ErrorIs(t, f.svc.HandleCallback(context.Background(), cb), ErrBadHash)
}

func TestStatus_OwnerOnlyAndConcurrent(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 1}})
	ctx := context.Background()
	res, err := f.svc.Create(ctx, 7, validRequest(""), "1.2.3.4")
	require.NoError(t, err)

	_, err = f.svc.Status(ctx, 8, res.MerchantOID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Status(ctx, 7, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var wg sync.WaitGroup
	results := make([]StatusResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.svc.Status(ctx, 7, res.MerchantOID)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, StatusPending, r.Status)
	}
	assert.True(t, f.redis.Exists("test:payment:status:"+res.MerchantOID))
}

func TestTotals(t *testing.T) {
	d := decimal.NewFromInt
	discount, total := Totals(d(3000), d(300), d(0))
	assert.True(t, discount.Equal(d(300)))
	assert.True(t, total.Equal(d(2700)))

	discount, total = Totals(d(50), d(150), d(200))
	assert.True(t, discount.Equal(d(50)))
	assert.True(t, total.Equal(d(200)))

	assert.Equal(t, int64(12345), Kurus(decimal.RequireFromString("123.45")))
}

// gatedRepo blocks the first Get until release is closed, then fails it if
// the context it was given has been cancelled.
type gatedRepo struct {
	Repository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Get(ctx context.Context, oid string) (Session, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
		if err := ctx.Err(); err != nil {
			return Session{}, err
		}
	}
	return g.Repository.Get(ctx, oid)
}

func TestStatus_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	f := newFixture(t, []cart.Item{{ProductID: 1, Quantity: 1}})
	res, err := f.svc.Create(context.Background(), 7, validRequest(""), "1.2.3.4")
	require.NoError(t, err)

	gate := &gatedRepo{Repository: f.sessions, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.Repo = gate

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Status(ctx, 7, res.MerchantOID)
		first <- err
	}()
	<-gate.entered

	second := make(chan StatusResult, 1)
	go func() {
		st, err := f.svc.Status(context.Background(), 7, res.MerchantOID)
		assert.NoError(t, err)
		second <- st
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(gate.release)

	assert.Equal(t, StatusPending, (<-second).Status)
	assert.Eventually(t, func() bool {
		return f.redis.Exists("test:payment:status:" + res.MerchantOID)
	}, time.Second, 5*time.Millisecond, "shared lookup finished and cached its result")
}
