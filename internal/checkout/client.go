package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// APIError is a non-2xx answer from the storefront API. Message is the
// server's message verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is a typed storefront API client. It implements PaymentInitiator,
// CouponValidator and StatusFetcher.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: res.StatusCode, Message: e.Message}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// SignIn exchanges credentials for a token and keeps it for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", in, &out); err != nil {
		return err
	}
	c.SetToken(out.Token)
	return nil
}

type CartLine struct {
	ProductID   int             `json:"productId"`
	VariantID   *int            `json:"variantId,omitempty"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name"`
	VariantName string          `json:"variantName,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type CartView struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (c *Client) Cart(ctx context.Context) (CartView, error) {
	var out CartView
	err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out)
	return out, err
}

func (c *Client) AddToCart(ctx context.Context, productID int, variantID *int, quantity int) (CartView, error) {
	in := struct {
		ProductID int  `json:"productId"`
		VariantID *int `json:"variantId,omitempty"`
		Quantity  int  `json:"quantity"`
	}{productID, variantID, quantity}
	var out CartView
	err := c.do(ctx, http.MethodPost, "/api/cart/items", in, &out)
	return out, err
}

func (c *Client) Addresses(ctx context.Context) ([]SavedAddress, error) {
	var out []SavedAddress
	err := c.do(ctx, http.MethodGet, "/api/addresses", nil, &out)
	return out, err
}

// MainAddressID returns the profile's default address, or nil when none is set.
func (c *Client) MainAddressID(ctx context.Context) (*int, error) {
	var out struct {
		MainAddressID *int `json:"mainAddressId"`
	}
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out.MainAddressID, err
}

// ShippingPolicy reads the store's current shipping rule.
func (c *Client) ShippingPolicy(ctx context.Context) (ShippingPolicy, error) {
	var out struct {
		FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
		ShippingFee           decimal.Decimal `json:"shippingFee"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &out); err != nil {
		return ShippingPolicy{}, err
	}
	return ShippingPolicy{FreeThreshold: out.FreeShippingThreshold, Fee: out.ShippingFee}, nil
}

func (c *Client) ValidateCoupon(ctx context.Context, code string, orderTotal decimal.Decimal) (CouponResult, error) {
	in := struct {
		Code       string          `json:"code"`
		OrderTotal decimal.Decimal `json:"orderTotal"`
	}{code, orderTotal}
	var out CouponResult
	err := c.do(ctx, http.MethodPost, "/api/coupons/validate", in, &out)
	return out, err
}

func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentSession, error) {
	var out PaymentSession
	err := c.do(ctx, http.MethodPost, "/api/payment/create", req, &out)
	return out, err
}

func (c *Client) PaymentStatus(ctx context.Context, merchantOID string) (PaymentStatus, error) {
	var out PaymentStatus
	err := c.do(ctx, http.MethodGet, "/api/payment/status/"+merchantOID, nil, &out)
	return out, err
}
