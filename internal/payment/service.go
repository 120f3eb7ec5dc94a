package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/j1vetr/hank-sub000/internal/cache"
	"github.com/j1vetr/hank-sub000/internal/cart"
	"github.com/j1vetr/hank-sub000/internal/coupon"
	"github.com/j1vetr/hank-sub000/internal/mail"
	"github.com/j1vetr/hank-sub000/internal/order"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/j1vetr/hank-sub000/internal/setting"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBadHash           = errors.New("callback hash mismatch")
	ErrForbidden         = errors.New("payment session belongs to another user")
)

const (
	pendingStatusTTL  = 2 * time.Second
	terminalStatusTTL = 10 * time.Minute
)

// ValidationError lists the checkout form fields that failed.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

type Cart interface {
	Items(userID int) ([]cart.Item, error)
	Clear(userID int) error
}

type Catalog interface {
	Resolve(productID int, variantID *int) (product.Item, error)
	AdjustStock(productID int, variantID *int, delta int) (int, error)
}

type Coupons interface {
	Apply(ctx context.Context, code string, orderTotal decimal.Decimal) (coupon.Coupon, decimal.Decimal, error)
	Redeem(ctx context.Context, r coupon.Redemption) error
}

type Settings interface {
	Get(ctx context.Context) (setting.Settings, error)
}

type Orders interface {
	Place(ctx context.Context, o order.Order) (order.Order, error)
}

type Notifier interface {
	OrderConfirmed(ctx context.Context, s mail.OrderSummary) error
}

// Deps groups the collaborators a payment Service settles against.
type Deps struct {
	Repo     Repository
	Gateway  Gateway
	Cart     Cart
	Catalog  Catalog
	Coupons  Coupons
	Settings Settings
	Orders   Orders
	Notifier Notifier
	Cache    cache.Cache
	Log      *slog.Logger
	// PublicURL is the storefront origin used for the gateway redirects.
	PublicURL string
}

type Service struct {
	Deps
	group singleflight.Group
	now   func() time.Time
}

func NewService(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	d.PublicURL = strings.TrimRight(d.PublicURL, "/")
	return &Service{Deps: d, now: time.Now}
}

// Create prices the user's cart server-side and opens a gateway session.
func (s *Service) Create(ctx context.Context, userID int, req CreateRequest, userIP string) (CreateResult, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return CreateResult{}, &ValidationError{Errors: errs}
	}
	items, err := s.Cart.Items(userID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return CreateResult{}, ErrEmptyCart
	}

	snap := Snapshot{Customer: req.customer(), Subtotal: decimal.Zero, Discount: decimal.Zero}
	basket := make([]BasketItem, 0, len(items))
	for _, it := range items {
		resolved, err := s.Catalog.Resolve(it.ProductID, it.VariantID)
		if err != nil {
			return CreateResult{}, err
		}
		if resolved.Stock < it.Quantity {
			return CreateResult{}, fmt.Errorf("%s: %w", resolved.Name, ErrInsufficientStock)
		}
		line := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		snap.Items = append(snap.Items, order.Item{
			ProductID:   resolved.ProductID,
			VariantID:   resolved.VariantID,
			Name:        resolved.Name,
			VariantName: resolved.VariantName,
			UnitPrice:   resolved.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   line,
		})
		snap.Subtotal = snap.Subtotal.Add(line)
		basket = append(basket, BasketItem{Name: displayName(resolved), Price: resolved.UnitPrice.StringFixed(2), Quantity: it.Quantity})
	}

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		c, discount, err := s.Coupons.Apply(ctx, code, snap.Subtotal)
		if err != nil {
			return CreateResult{}, err
		}
		id, normalized := c.ID, c.Code
		snap.CouponID, snap.CouponCode = &id, &normalized
		snap.Discount = discount
	}

	st, err := s.Settings.Get(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load settings: %w", err)
	}
	snap.Shipping = st.ShippingFor(snap.Subtotal)
	snap.Discount, snap.Total = Totals(snap.Subtotal, snap.Discount, snap.Shipping)

	oid := strings.ReplaceAll(uuid.NewString(), "-", "")
	token, err := s.Gateway.RequestToken(ctx, TokenRequest{
		MerchantOID: oid,
		Email:       snap.Customer.Email,
		UserIP:      userIP,
		UserName:    snap.Customer.Name,
		UserAddress: fmt.Sprintf("%s %s/%s %s", snap.Customer.Address, snap.Customer.District, snap.Customer.City, snap.Customer.PostalCode),
		UserPhone:   snap.Customer.Phone,
		Amount:      Kurus(snap.Total),
		Basket:      basket,
		OkURL:       s.PublicURL + "/checkout/success?oid=" + oid,
		FailURL:     s.PublicURL + "/checkout?payment=failed",
	})
	if err != nil {
		s.Log.Error("payment token request failed", "user_id", userID, "error", err)
		return CreateResult{}, err
	}

	now := s.now().UTC()
	sess := Session{
		MerchantOID: oid,
		UserID:      userID,
		Token:       token,
		Status:      StatusPending,
		Amount:      snap.Total,
		Snapshot:    snap,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, sess); err != nil {
		return CreateResult{}, fmt.Errorf("save payment session: %w", err)
	}
	s.Log.Info("payment session opened", "merchant_oid", oid, "user_id", userID, "total", snap.Total.String())
	return CreateResult{Token: token, MerchantOID: oid, IframeURL: IframeURL(token)}, nil
}

func displayName(it product.Item) string {
	if it.VariantName == "" {
		return it.Name
	}
	return it.Name + " - " + it.VariantName
}

type cachedStatus struct {
	UserID        int     `json:"userId"`
	Status        Status  `json:"status"`
	OrderNumber   *string `json:"orderNumber,omitempty"`
	FailureReason *string `json:"failureReason,omitempty"`
}

func statusKey(oid string) string {
	return "payment:status:" + oid
}

// Status reports the server-side state of a session to its owner.
// Concurrent lookups for the same session share one repository read. The
// shared read is detached from any single caller's cancellation; a caller
// whose context ends stops waiting without failing the others.
func (s *Service) Status(ctx context.Context, userID int, merchantOID string) (StatusResult, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(merchantOID, func() (any, error) {
		return s.loadStatus(flightCtx, merchantOID)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return StatusResult{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return StatusResult{}, res.Err
	}
	st := res.Val.(cachedStatus)
	if st.UserID != userID {
		return StatusResult{}, ErrForbidden
	}
	return StatusResult{Status: st.Status, OrderNumber: st.OrderNumber, FailureReason: st.FailureReason}, nil
}

func (s *Service) loadStatus(ctx context.Context, merchantOID string) (cachedStatus, error) {
	var st cachedStatus
	err := s.Cache.Get(ctx, statusKey(merchantOID), &st)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.Log.Warn("payment status cache read failed", "merchant_oid", merchantOID, "error", err)
	}

	sess, err := s.Repo.Get(ctx, merchantOID)
	if err != nil {
		return cachedStatus{}, err
	}
	st = cachedStatus{UserID: sess.UserID, Status: sess.Status, OrderNumber: sess.OrderNumber, FailureReason: sess.FailureReason}
	ttl := pendingStatusTTL
	if sess.Status.IsTerminal() {
		ttl = terminalStatusTTL
	}
	if err := s.Cache.Set(ctx, statusKey(merchantOID), st, ttl); err != nil {
		s.Log.Warn("payment status cache write failed", "merchant_oid", merchantOID, "error", err)
	}
	return st, nil
}

// HandleCallback settles a session from a gateway notification. Repeated
// notifications for a settled session are accepted and ignored.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) error {
	if !s.Gateway.VerifyCallback(cb) {
		return ErrBadHash
	}
	sess, err := s.Repo.Get(ctx, cb.MerchantOID)
	if err != nil {
		return err
	}
	if sess.Status.IsTerminal() {
		s.Log.Info("duplicate payment notification ignored", "merchant_oid", cb.MerchantOID, "status", sess.Status)
		return nil
	}
	defer s.invalidateStatus(ctx, cb.MerchantOID)

	if cb.Status != "success" {
		reason := strings.TrimSpace(cb.FailedCode + " " + cb.FailedReason)
		if _, err := s.Repo.Fail(ctx, cb.MerchantOID, reason); err != nil {
			return fmt.Errorf("mark session failed: %w", err)
		}
		s.Log.Info("payment failed", "merchant_oid", cb.MerchantOID, "reason", reason)
		return nil
	}
	if paid, err := decimal.NewFromString(cb.TotalAmount); err == nil && paid.IntPart() < Kurus(sess.Amount) {
		// the gateway is still answered OK; the session is failed so no order is placed
		reason := fmt.Sprintf("amount mismatch: paid %s, expected %d", cb.TotalAmount, Kurus(sess.Amount))
		if _, err := s.Repo.Fail(ctx, cb.MerchantOID, reason); err != nil {
			return fmt.Errorf("mark session failed: %w", err)
		}
		s.Log.Warn("gateway reported less than the session amount", "merchant_oid", cb.MerchantOID,
			"reported", cb.TotalAmount, "expected", Kurus(sess.Amount))
		return nil
	}
	return s.complete(ctx, sess)
}

func (s *Service) complete(ctx context.Context, sess Session) error {
	snap := sess.Snapshot
	oid := sess.MerchantOID
	placed, err := s.Orders.Place(ctx, order.Order{
		UserID:       sess.UserID,
		Items:        snap.Items,
		Subtotal:     snap.Subtotal,
		Discount:     snap.Discount,
		ShippingCost: snap.Shipping,
		Total:        snap.Total,
		CouponCode:   snap.CouponCode,
		Customer:     snap.Customer,
		MerchantOID:  &oid,
	})
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	won, err := s.Repo.Complete(ctx, oid, placed.OrderNumber)
	if err != nil {
		return fmt.Errorf("mark session completed: %w", err)
	}
	if !won {
		return nil
	}

	for _, it := range snap.Items {
		if _, err := s.Catalog.AdjustStock(it.ProductID, it.VariantID, -it.Quantity); err != nil {
			s.Log.Error("stock decrement failed", "order_number", placed.OrderNumber, "product_id", it.ProductID, "error", err)
		}
	}
	if snap.CouponID != nil {
		err := s.Coupons.Redeem(ctx, coupon.Redemption{
			CouponID:    *snap.CouponID,
			OrderNumber: placed.OrderNumber,
			UserID:      sess.UserID,
			OrderTotal:  snap.Total,
			Discount:    snap.Discount,
		})
		if err != nil {
			s.Log.Error("coupon redemption failed", "order_number", placed.OrderNumber, "error", err)
		}
	}
	if err := s.Cart.Clear(sess.UserID); err != nil {
		s.Log.Error("cart clear failed", "user_id", sess.UserID, "error", err)
	}
	s.sendConfirmation(ctx, placed)
	s.Log.Info("payment completed", "merchant_oid", oid, "order_number", placed.OrderNumber)
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, o order.Order) {
	if s.Notifier == nil {
		return
	}
	currency := "TL"
	if st, err := s.Settings.Get(ctx); err == nil && st.Currency != "" {
		currency = st.Currency
	}
	lines := make([]mail.OrderLine, len(o.Items))
	for i, it := range o.Items {
		name := it.Name
		if it.VariantName != "" {
			name += " - " + it.VariantName
		}
		lines[i] = mail.OrderLine{Name: name, Quantity: it.Quantity, Total: it.LineTotal}
	}
	err := s.Notifier.OrderConfirmed(ctx, mail.OrderSummary{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		Lines:         lines,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Shipping:      o.ShippingCost,
		Total:         o.Total,
		Currency:      currency,
	})
	if err != nil {
		s.Log.Error("order confirmation email failed", "order_number", o.OrderNumber, "error", err)
	}
}

func (s *Service) invalidateStatus(ctx context.Context, merchantOID string) {
	if err := s.Cache.Delete(ctx, statusKey(merchantOID)); err != nil {
		s.Log.Warn("payment status cache invalidation failed", "merchant_oid", merchantOID, "error", err)
	}
}
