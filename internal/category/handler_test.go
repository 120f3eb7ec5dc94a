package category

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

func TestCategoryList_SortedBySortOrder(t *testing.T) {
	repo := NewInMemoryRepository([]Category{
		{ID: 1, Name: "Toys", Slug: "toys", SortOrder: 2},
		{ID: 2, Name: "Food", Slug: "food", SortOrder: 1},
	})
	app := newApp(repo)

	res, err := app.Test(httptest.NewRequest("GET", "/api/categories", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var items []Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "food", items[0].Slug)
}

func TestCategoryAdminCRUD(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newApp(repo)

	req := httptest.NewRequest("POST", "/api/admin/categories", strings.NewReader(`{"name":"Kedi Maması"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var created Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, "kedi-mamasi", created.Slug)

	req = httptest.NewRequest("POST", "/api/admin/categories", strings.NewReader(`{"name":"kedi mamasi"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)

	req = httptest.NewRequest("POST", "/api/admin/categories", strings.NewReader(`{"name":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	req = httptest.NewRequest("PATCH", "/api/admin/categories/1", strings.NewReader(`{"name":"Cat Food","sortOrder":5}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	got, _ := repo.GetByID(1)
	assert.Equal(t, "cat-food", got.Slug)
	assert.Equal(t, 5, got.SortOrder)

	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/admin/categories/1", nil))
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)
	res, _ = app.Test(httptest.NewRequest("GET", "/api/categories/1", nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
