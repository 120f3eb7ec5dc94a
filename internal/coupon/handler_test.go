package coupon

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEndpoint(t *testing.T) {
	svc := NewService(NewInMemoryRepository([]Coupon{
		{ID: 1, Code: "SAVE10", DiscountType: Percentage, DiscountValue: d("10"), Active: true},
	}), nil, nil)
	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)

	req := httptest.NewRequest("POST", "/api/coupons/validate", strings.NewReader(`{"code":"SAVE10","orderTotal":1000}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var out Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.True(t, out.Valid)
	assert.True(t, out.Discount.Equal(d("100")))

	req = httptest.NewRequest("POST", "/api/coupons/validate", strings.NewReader(`{"code":"","orderTotal":1000}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	out = Result{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.False(t, out.Valid)
	assert.Equal(t, "invalid coupon code", out.Error)
}

func TestAdminCouponRoutes(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := fiber.New()
	NewHandler(NewService(repo, nil, nil)).RegisterAdminRoutes(app.Group("/api/admin"))

	req := httptest.NewRequest("POST", "/api/admin/coupons", strings.NewReader(`{"code":"summer","discountType":"fixed","discountValue":"75"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	req = httptest.NewRequest("PATCH", "/api/admin/coupons/1", strings.NewReader(`{"code":"summer","discountType":"percentage","discountValue":"15","active":false}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var got Coupon
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, Percentage, got.DiscountType)
	assert.False(t, got.Active)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/admin/coupons/influencers", nil))
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/admin/coupons/1", nil))
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)
	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/admin/coupons/1", nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
