package banner

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(repo Repository) *fiber.App {
	app := fiber.New()
	h := NewHandler(NewService(repo))
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin"))
	return app
}

func TestPublicList_ActiveOnlyOrdered(t *testing.T) {
	app := newApp(NewInMemoryRepository([]Banner{
		{ID: 1, Image: "/b/1.jpg", SortOrder: 1, Active: true},
		{ID: 2, Image: "/b/2.jpg", SortOrder: 5, Active: true},
		{ID: 3, Image: "/b/3.jpg", SortOrder: 9, Active: false},
	}))

	res, err := app.Test(httptest.NewRequest("GET", "/api/banners", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var items []Banner
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID)
	assert.Equal(t, 1, items[1].ID)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/banners?limit=1", nil))
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	assert.Len(t, items, 1)
}

func TestAdminCRUD(t *testing.T) {
	app := newApp(NewInMemoryRepository(nil))

	req := httptest.NewRequest("POST", "/api/admin/banners", strings.NewReader(`{"title":"Yaz","image":" /b/summer.jpg "}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var created Banner
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, "/b/summer.jpg", created.Image)
	assert.True(t, created.Active)

	req = httptest.NewRequest("POST", "/api/admin/banners", strings.NewReader(`{"title":"no image"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	req = httptest.NewRequest("PUT", "/api/admin/banners/1", strings.NewReader(`{"image":"/b/summer.jpg","active":false}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/banners", nil))
	var items []Banner
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	assert.Empty(t, items)

	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/admin/banners/1", nil))
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)
	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/admin/banners/1", nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
