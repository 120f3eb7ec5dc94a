package favorite

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeApp(seed map[int][]int) (*fiber.App, *InMemoryRepository) {
	catalog := product.NewService(product.NewInMemoryRepository([]product.Product{
		{ID: 12, Name: "Cat Sweater", Slug: "cat-sweater", Price: decimal.NewFromInt(260), Active: true},
		{ID: 13, Name: "Old Toy", Slug: "old-toy", Price: decimal.NewFromInt(10), Active: false},
	}))
	repo := NewInMemoryRepository(seed)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	})
	NewHandler(NewService(repo, catalog)).RegisterProtectedRoutes(app)
	return app, repo
}

func TestFavorites_AddListRemove(t *testing.T) {
	app, repo := makeApp(map[int][]int{1: {13}})

	req := httptest.NewRequest("POST", "/api/favorites", strings.NewReader(`{"productId":12}`))
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	req = httptest.NewRequest("POST", "/api/favorites", strings.NewReader(`{"productId":12}`))
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)

	// inactive product 13 is stored but hidden from the wishlist
	req = httptest.NewRequest("GET", "/api/favorites", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	var list []product.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, 12, list[0].ID)

	req = httptest.NewRequest("DELETE", "/api/favorites/12", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	ids, _ := repo.List(1)
	assert.Equal(t, []int{13}, ids)

	req = httptest.NewRequest("DELETE", "/api/favorites/12", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestFavorites_Unauthorized(t *testing.T) {
	app, _ := makeApp(nil)
	res, err := app.Test(httptest.NewRequest("GET", "/api/favorites", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
