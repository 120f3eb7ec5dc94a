package order

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) (*fiber.App, *Service) {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), nil, nil, nil)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	})
	h := NewHandler(svc)
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin"))
	return app, svc
}

func TestMyOrders(t *testing.T) {
	app, svc := setupApp(t)
	o, err := svc.Place(context.Background(), sampleOrder(1))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("X-User-ID", "1")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	var list []Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)

	req = httptest.NewRequest("GET", "/api/orders/"+o.OrderNumber, nil)
	req.Header.Set("X-User-ID", "2")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/orders", nil))
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestAdminOrderRoutes(t *testing.T) {
	app, svc := setupApp(t)
	o, err := svc.Place(context.Background(), sampleOrder(1))
	require.NoError(t, err)
	path := "/api/admin/orders/" + strconv.Itoa(o.ID)

	send := func(method, url, body string) (*Order, int) {
		req := httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		require.NoError(t, err)
		if res.StatusCode != fiber.StatusOK {
			return nil, res.StatusCode
		}
		var got Order
		require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
		return &got, res.StatusCode
	}

	_, code := send("PATCH", path+"/status", `{"status":"delivered"}`)
	assert.Equal(t, fiber.StatusConflict, code)

	got, code := send("PATCH", path+"/status", `{"status":"processing"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, StatusProcessing, got.Status)

	got, _ = send("PATCH", path+"/notes", `{"notes":"gift wrap"}`)
	assert.Equal(t, "gift wrap", got.Notes)

	_, code = send("PATCH", path+"/tracking", `{"trackingNumber":""}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	got, _ = send("PATCH", path+"/tracking", `{"trackingNumber":"YK123"}`)
	assert.Equal(t, StatusShipped, got.Status)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/admin/orders?status=shipped,delivered", nil))
	var list []Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Len(t, list, 1)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/admin/orders?status=lost", nil))
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	_, code = send("POST", path+"/cancel", "")
	assert.Equal(t, fiber.StatusConflict, code)

	_, code = send("GET", "/api/admin/orders/999", "")
	assert.Equal(t, fiber.StatusNotFound, code)
}
