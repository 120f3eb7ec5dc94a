package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	getTokenPath    = "/odeme/api/get-token"
	iframeURLPrefix = "https://www.paytr.com/odeme/guvenli/"
)

var ErrGateway = errors.New("payment gateway error")

// BasketItem is one row of the basket the gateway shows to the shopper.
type BasketItem struct {
	Name     string
	Price    string
	Quantity int
}

type TokenRequest struct {
	MerchantOID string
	Email       string
	UserIP      string
	UserName    string
	UserAddress string
	UserPhone   string
	// Amount is in kuruş.
	Amount  int64
	Basket  []BasketItem
	OkURL   string
	FailURL string
}

// Gateway issues iframe tokens and authenticates the notifications that
// follow them.
type Gateway interface {
	RequestToken(ctx context.Context, req TokenRequest) (string, error)
	VerifyCallback(cb Callback) bool
}

type PayTRConfig struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
	TestMode     bool
	BaseURL      string
	Currency     string
	Timeout      time.Duration
}

// PayTRClient talks to the PayTR iframe API.
type PayTRClient struct {
	cfg    PayTRConfig
	client *http.Client
}

func NewPayTRClient(cfg PayTRConfig) *PayTRClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Currency == "" {
		cfg.Currency = "TL"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &PayTRClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func sign(message, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func encodeBasket(items []BasketItem) (string, error) {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{it.Name, it.Price, it.Quantity}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// form builds the get-token request body including the paytr_token signature.
func (c *PayTRClient) form(req TokenRequest) (url.Values, error) {
	basket, err := encodeBasket(req.Basket)
	if err != nil {
		return nil, fmt.Errorf("encode basket: %w", err)
	}
	amount := strconv.FormatInt(req.Amount, 10)
	noInstallment, maxInstallment := "0", "0"
	testMode := boolFlag(c.cfg.TestMode)

	hashStr := c.cfg.MerchantID + req.UserIP + req.MerchantOID + req.Email + amount + basket +
		noInstallment + maxInstallment + c.cfg.Currency + testMode

	v := url.Values{}
	v.Set("merchant_id", c.cfg.MerchantID)
	v.Set("user_ip", req.UserIP)
	v.Set("merchant_oid", req.MerchantOID)
	v.Set("email", req.Email)
	v.Set("payment_amount", amount)
	v.Set("paytr_token", sign(hashStr+c.cfg.MerchantSalt, c.cfg.MerchantKey))
	v.Set("user_basket", basket)
	v.Set("debug_on", testMode)
	v.Set("no_installment", noInstallment)
	v.Set("max_installment", maxInstallment)
	v.Set("user_name", req.UserName)
	v.Set("user_address", req.UserAddress)
	v.Set("user_phone", req.UserPhone)
	v.Set("merchant_ok_url", req.OkURL)
	v.Set("merchant_fail_url", req.FailURL)
	v.Set("timeout_limit", "30")
	v.Set("currency", c.cfg.Currency)
	v.Set("test_mode", testMode)
	v.Set("lang", "tr")
	return v, nil
}

type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

func (c *PayTRClient) RequestToken(ctx context.Context, req TokenRequest) (string, error) {
	form, err := c.form(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+getTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrGateway, res.StatusCode, strings.TrimSpace(string(body)))
	}
	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if out.Status != "success" || out.Token == "" {
		return "", fmt.Errorf("%w: %s", ErrGateway, out.Reason)
	}
	return out.Token, nil
}

// Callback is the server-to-server notification the gateway posts after
// the shopper finishes in the iframe.
type Callback struct {
	MerchantOID   string `form:"merchant_oid"`
	Status        string `form:"status"`
	TotalAmount   string `form:"total_amount"`
	Hash          string `form:"hash"`
	FailedReason  string `form:"failed_reason_msg"`
	FailedCode    string `form:"failed_reason_code"`
	TestMode      string `form:"test_mode"`
	PaymentType   string `form:"payment_type"`
	Currency      string `form:"currency"`
	PaymentAmount string `form:"payment_amount"`
}

// CallbackHash is the signature the gateway attaches to a notification.
func CallbackHash(cb Callback, key, salt string) string {
	return sign(cb.MerchantOID+salt+cb.Status+cb.TotalAmount, key)
}

// VerifyCallback reports whether cb was signed with the merchant credentials.
func (c *PayTRClient) VerifyCallback(cb Callback) bool {
	expected := CallbackHash(cb, c.cfg.MerchantKey, c.cfg.MerchantSalt)
	return hmac.Equal([]byte(expected), []byte(cb.Hash))
}

// IframeURL is where the storefront embeds the payment form for token.
func IframeURL(token string) string {
	return iframeURLPrefix + token
}
