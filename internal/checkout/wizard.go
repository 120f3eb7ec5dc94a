package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type Step int

const (
	StepContact Step = iota + 1
	StepAddress
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepContact:
		return "contact"
	case StepAddress:
		return "address"
	case StepPayment:
		return "payment"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrForwardJump          = errors.New("cannot jump ahead of the current step")
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied")
	ErrNotAtPayment         = errors.New("payment has not been initiated")
	ErrCheckoutComplete     = errors.New("checkout is already complete")
	ErrInvalidStep          = errors.New("invalid step")
	ErrPaymentInProgress    = errors.New("payment initiation already in progress")
)

const defaultCouponError = "invalid coupon code"

// ValidationError blocks a step transition.
type ValidationError struct {
	Step   Step
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s step: %s", e.Step, strings.Join(e.Errors, ", "))
}

// CouponError carries the reason the server rejected a code.
type CouponError struct {
	Message string
}

func (e *CouponError) Error() string {
	return e.Message
}

// PaymentRequest is sent once the address step is confirmed.
type PaymentRequest struct {
	FormData
	CouponCode string `json:"couponCode,omitempty"`
}

// PaymentSession identifies the gateway iframe opened for this checkout.
type PaymentSession struct {
	Token       string `json:"token"`
	MerchantOID string `json:"merchantOid"`
	IframeURL   string `json:"iframeUrl"`
}

type PaymentInitiator interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (PaymentSession, error)
}

type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, orderTotal decimal.Decimal) (CouponResult, error)
}

// Wizard drives the contact, address and payment steps of one checkout.
// It is safe for concurrent use.
type Wizard struct {
	mu          sync.Mutex
	step        Step
	form        FormData
	coupon      *Coupon
	session     *PaymentSession
	failure     string
	orderNumber string
	complete    bool
	initiating  bool

	payments PaymentInitiator
	coupons  CouponValidator
}

func NewWizard(payments PaymentInitiator, coupons CouponValidator) *Wizard {
	return &Wizard{step: StepContact, payments: payments, coupons: coupons}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Form() FormData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// SetForm replaces the form. It is refused while a payment session is being
// opened, since that request already carries the previous form.
func (w *Wizard) SetForm(f FormData) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.initiating {
		return ErrPaymentInProgress
	}
	w.form = f
	return nil
}

// Next validates the current step and advances. Leaving the address step
// opens the payment session; the step only changes when that succeeds.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if w.complete {
		w.mu.Unlock()
		return ErrCheckoutComplete
	}

	switch w.step {
	case StepContact:
		defer w.mu.Unlock()
		if errs := w.form.ValidateContact(); len(errs) > 0 {
			return &ValidationError{Step: StepContact, Errors: errs}
		}
		w.step = StepAddress
		return nil

	case StepAddress:
		if w.initiating {
			w.mu.Unlock()
			return ErrPaymentInProgress
		}
		if errs := w.form.ValidateContact(); len(errs) > 0 {
			w.mu.Unlock()
			return &ValidationError{Step: StepContact, Errors: errs}
		}
		if errs := w.form.ValidateAddress(); len(errs) > 0 {
			w.mu.Unlock()
			return &ValidationError{Step: StepAddress, Errors: errs}
		}
		req := PaymentRequest{FormData: w.form}
		if w.coupon != nil {
			req.CouponCode = w.coupon.Code
		}
		w.initiating = true
		w.mu.Unlock()

		sess, err := w.payments.CreatePayment(ctx, req)

		w.mu.Lock()
		defer w.mu.Unlock()
		w.initiating = false
		if err != nil {
			return err
		}
		w.session = &sess
		w.failure = ""
		w.step = StepPayment
		return nil

	default:
		w.mu.Unlock()
		return ErrInvalidStep
	}
}

// GoTo moves back to an earlier (or the current) step.
func (w *Wizard) GoTo(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.complete {
		return ErrCheckoutComplete
	}
	if w.initiating {
		return ErrPaymentInProgress
	}
	if step < StepContact || step > StepPayment {
		return ErrInvalidStep
	}
	if step > w.step {
		return ErrForwardJump
	}
	w.step = step
	return nil
}

// ApplyCoupon validates code against subtotal and stores it. Only one coupon
// can be active.
func (w *Wizard) ApplyCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (Coupon, error) {
	w.mu.Lock()
	if w.initiating {
		w.mu.Unlock()
		return Coupon{}, ErrPaymentInProgress
	}
	if w.coupon != nil {
		w.mu.Unlock()
		return Coupon{}, ErrCouponAlreadyApplied
	}
	w.mu.Unlock()

	res, err := w.coupons.ValidateCoupon(ctx, strings.TrimSpace(code), subtotal)
	if err != nil {
		return Coupon{}, err
	}
	if !res.Valid || res.Coupon == nil {
		msg := res.Error
		if msg == "" {
			msg = defaultCouponError
		}
		return Coupon{}, &CouponError{Message: msg}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.initiating {
		return Coupon{}, ErrPaymentInProgress
	}
	if w.coupon != nil {
		return Coupon{}, ErrCouponAlreadyApplied
	}
	c := *res.Coupon
	w.coupon = &c
	return c, nil
}

// RemoveCoupon frees the coupon slot. It does not talk to the server.
func (w *Wizard) RemoveCoupon() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.initiating {
		return ErrPaymentInProgress
	}
	w.coupon = nil
	return nil
}

func (w *Wizard) Coupon() (Coupon, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.coupon == nil {
		return Coupon{}, false
	}
	return *w.coupon, true
}

func (w *Wizard) Summary(subtotal decimal.Decimal, policy ShippingPolicy) Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Totals(subtotal, w.coupon, policy)
}

func (w *Wizard) Session() (PaymentSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return PaymentSession{}, false
	}
	return *w.session, true
}

// Complete finishes the checkout after the payment was confirmed.
func (w *Wizard) Complete(orderNumber string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.complete {
		return ErrCheckoutComplete
	}
	if w.step != StepPayment || w.session == nil {
		return ErrNotAtPayment
	}
	w.complete = true
	w.orderNumber = orderNumber
	return nil
}

// PaymentFailed drops the session so the next attempt opens a fresh one.
func (w *Wizard) PaymentFailed(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = nil
	w.failure = reason
}

func (w *Wizard) Failure() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// OrderComplete reports the order number once the checkout finished.
func (w *Wizard) OrderComplete() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.orderNumber, w.complete
}

// Retry opens a new payment session after a failure.
func (w *Wizard) Retry(ctx context.Context) error {
	w.mu.Lock()
	if w.complete {
		w.mu.Unlock()
		return ErrCheckoutComplete
	}
	if w.step != StepPayment || w.session != nil {
		w.mu.Unlock()
		return ErrInvalidStep
	}
	w.step = StepAddress
	w.mu.Unlock()
	return w.Next(ctx)
}

// AwaitPayment polls the open session until it settles and applies the
// outcome to the wizard.
func (w *Wizard) AwaitPayment(ctx context.Context, p *Poller) (string, error) {
	sess, ok := w.Session()
	if !ok {
		return "", ErrNotAtPayment
	}
	st, err := p.Wait(ctx, sess.MerchantOID)
	var failed *PaymentFailedError
	if errors.As(err, &failed) {
		w.PaymentFailed(failed.Reason)
		return "", err
	}
	if err != nil {
		return "", err
	}
	number := ""
	if st.OrderNumber != nil {
		number = *st.OrderNumber
	}
	if err := w.Complete(number); err != nil {
		return "", err
	}
	return number, nil
}
