package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j1vetr/hank-sub000/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PrefillsAddressAndWaitsForOrder(t *testing.T) {
	var created map[string]any
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t"}`))
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"productId":1,"quantity":2,"name":"Dog Bed","unitPrice":1500,"lineTotal":3000}],"itemCount":2,"subtotal":3000}`))
	})
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"freeShippingThreshold":2500,"shippingFee":200}`))
	})
	mux.HandleFunc("GET /api/addresses", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":2,"fullName":"Ayse Yilmaz","phone":"5551112233","address":"Ataturk Cd. 9","city":"Izmir","district":"Konak","postalCode":"35250"},` +
			`{"id":3,"fullName":"Ayse Yilmaz","phone":"5551112233","address":"Bagdat Cd. 1","city":"Istanbul","district":"Kadikoy","postalCode":"34710"}]`))
	})
	mux.HandleFunc("GET /api/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"email":"ayse@example.com","mainAddressId":3}`))
	})
	mux.HandleFunc("POST /api/coupons/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":true,"coupon":{"id":1,"code":"SAVE10","discountType":"percentage","discountValue":10}}`))
	})
	mux.HandleFunc("POST /api/payment/create", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.Write([]byte(`{"token":"tok","merchantOid":"oid9","iframeUrl":"https://www.paytr.com/odeme/guvenli/tok"}`))
	})
	mux.HandleFunc("GET /api/payment/status/oid9", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			w.Write([]byte(`{"status":"pending"}`))
			return
		}
		w.Write([]byte(`{"status":"completed","orderNumber":"ORD-20261018-0A1B2C"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), log, checkout.NewClient(srv.URL, time.Second), runOptions{
		email: "ayse@example.com", password: "pw", coupon: "SAVE10",
		form: checkout.FormData{CustomerEmail: "ayse@example.com", CustomerName: "Ayse"},
		wait: 5 * time.Second, interval: time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ayse", created["customerName"], "typed fields win over the saved address")
	assert.Equal(t, "Kadikoy", created["district"], "main address is preferred over the first saved one")
	assert.Equal(t, "Istanbul", created["city"])
	assert.Equal(t, "SAVE10", created["couponCode"])
	assert.EqualValues(t, 2, polls.Load())
}

func TestRun_EmptyCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t"}`))
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[],"itemCount":0,"subtotal":0}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), log, checkout.NewClient(srv.URL, time.Second), runOptions{email: "a@b.co", password: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart is empty")
}
