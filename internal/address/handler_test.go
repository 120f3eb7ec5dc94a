package address

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func makeAppWithAddressHandler(a *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	})
	a.RegisterProtectedRoutes(app)
	return app
}

func TestAddressRoutes(t *testing.T) {
	seed := map[int][]Address{
		42: {{ID: 1, Title: "Home", FullName: "Ada L", Phone: "555", Address: "1 Main St", City: "Istanbul", District: "Kadikoy"}},
	}
	repo := NewInMemoryRepository(seed)
	app := makeAppWithAddressHandler(NewHandler(NewService(repo)))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	if !routes["/api/addresses"] || !routes["/api/addresses/:id"] {
		t.Fatalf("expected address routes registered")
	}

	res, _ := app.Test(httptest.NewRequest("GET", "/api/addresses", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/addresses", nil)
	req.Header.Set("X-User-ID", "42")
	res, err := app.Test(req)
	if err != nil || res.StatusCode != fiber.StatusOK {
		t.Fatalf("list failed: %v %d", err, res.StatusCode)
	}
	var list []Address
	json.NewDecoder(res.Body).Decode(&list)
	if len(list) != 1 || list[0].City != "Istanbul" {
		t.Fatalf("unexpected list: %+v", list)
	}

	// another user sees nothing
	req = httptest.NewRequest("GET", "/api/addresses/1", nil)
	req.Header.Set("X-User-ID", "7")
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for foreign address, got %d", res.StatusCode)
	}
}

func TestAddressCreateUpdateDelete(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeAppWithAddressHandler(NewHandler(NewService(repo)))

	req := httptest.NewRequest("POST", "/api/addresses", strings.NewReader(`{"title":"Work","city":"Ankara"}`))
	req.Header.Set("X-User-ID", "5")
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on missing fields, got %d", res.StatusCode)
	}
	var verr struct {
		Errors []string `json:"errors"`
	}
	json.NewDecoder(res.Body).Decode(&verr)
	if len(verr.Errors) != 2 {
		t.Fatalf("expected address and district errors, got %v", verr.Errors)
	}

	body := `{"title":"Work","fullName":"Ada","phone":"1","address":"2 Side St","city":"Ankara","district":"Cankaya","postalCode":"06000"}`
	req = httptest.NewRequest("POST", "/api/addresses", strings.NewReader(body))
	req.Header.Set("X-User-ID", "5")
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var created Address
	json.NewDecoder(res.Body).Decode(&created)
	if created.ID == 0 || created.UserID != 5 {
		t.Fatalf("unexpected created address: %+v", created)
	}

	upd := strings.Replace(body, "Cankaya", "Yenimahalle", 1)
	req = httptest.NewRequest("PATCH", "/api/addresses/"+strconv.Itoa(created.ID), strings.NewReader(upd))
	req.Header.Set("X-User-ID", "5")
	req.Header.Set("Content-Type", "application/json")
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on update, got %d", res.StatusCode)
	}
	if a, _ := repo.Get(5, created.ID); a.District != "Yenimahalle" {
		t.Fatalf("update not persisted: %+v", a)
	}

	req = httptest.NewRequest("DELETE", "/api/addresses/"+strconv.Itoa(created.ID), nil)
	req.Header.Set("X-User-ID", "5")
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", res.StatusCode)
	}
	if _, err := repo.Get(5, created.ID); err != ErrNotFound {
		t.Fatalf("expected deleted, got %v", err)
	}
}
