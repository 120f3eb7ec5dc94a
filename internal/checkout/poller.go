package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 100
	DefaultPollTimeout  = 5 * time.Minute
)

var (
	ErrPaymentFailed = errors.New("payment failed")
	ErrPollTimeout   = errors.New("payment status still pending")
)

// PaymentStatus mirrors GET /api/payment/status/:merchantOid.
type PaymentStatus struct {
	Status        string  `json:"status"`
	OrderNumber   *string `json:"orderNumber,omitempty"`
	FailureReason *string `json:"failureReason,omitempty"`
}

type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string {
	if e.Reason == "" {
		return ErrPaymentFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPaymentFailed, e.Reason)
}

func (e *PaymentFailedError) Unwrap() error {
	return ErrPaymentFailed
}

type StatusFetcher interface {
	PaymentStatus(ctx context.Context, merchantOID string) (PaymentStatus, error)
}

// Poller waits for a payment session to settle. It issues one request at a
// time and gives up after MaxAttempts polls or Timeout, whichever is first.
type Poller struct {
	Fetcher     StatusFetcher
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	Log         *slog.Logger
}

func NewPoller(f StatusFetcher) *Poller {
	return &Poller{
		Fetcher:     f,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
		Timeout:     DefaultPollTimeout,
		Log:         slog.Default(),
	}
}

// Wait returns the completed status, a *PaymentFailedError, ErrPollTimeout
// or the context's error. Fetch errors are logged and count as an attempt.
func (p *Poller) Wait(ctx context.Context, merchantOID string) (PaymentStatus, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return PaymentStatus{}, ErrPollTimeout
			}
			return PaymentStatus{}, ctx.Err()
		case <-timer.C:
		}

		st, err := p.Fetcher.PaymentStatus(ctx, merchantOID)
		switch {
		case err != nil:
			log.Warn("payment status poll failed", "merchant_oid", merchantOID, "attempt", attempt, "error", err)
		case st.Status == "completed":
			return st, nil
		case st.Status == "failed":
			reason := ""
			if st.FailureReason != nil {
				reason = *st.FailureReason
			}
			return st, &PaymentFailedError{Reason: reason}
		}
		timer.Reset(interval)
	}
	return PaymentStatus{}, ErrPollTimeout
}
