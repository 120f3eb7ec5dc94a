package user

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// makeApp wires a bootstrap middleware that injects a jwt.Token into locals
// when X-User-ID (and optionally X-Role) is present, instead of running the
// full jwtware stack.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				claims := jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin", RequireAdmin))
	return app
}

func newTestHandler(seed []User) (*Handler, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	return NewHandler(NewService(repo, "boss@example.com"), "test-secret", time.Hour), repo
}

func TestProfileRoute_RegistrationAndAuth(t *testing.T) {
	addr := 99
	h, _ := newTestHandler([]User{{ID: 7, Email: "j@example.com", FirstName: "Jenny", LastName: "Test", Phone: "123", Role: RoleCustomer, MainAddressID: &addr}})
	app := makeApp(h)

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	for _, p := range []string{"/api/profile", "/api/auth/sign-in", "/api/auth/sign-up", "/api/admin/users"} {
		if !routes[p] {
			t.Fatalf("expected route %q to be registered", p)
		}
	}

	res, err := app.Test(httptest.NewRequest("GET", "/api/profile", nil))
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected unauthorized status, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("X-User-ID", "7")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("authorized profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 OK for authorized profile, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if !strings.Contains(body, "j@example.com") || !strings.Contains(body, "mainAddressId") {
		t.Fatalf("unexpected profile body: %s", body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("response body should not expose password field")
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	h, repo := newTestHandler(nil)
	app := makeApp(h)

	signUp := `{"email":"Boss@Example.com","password":"hunter22","firstName":"Ada","lastName":"Lovelace","phone":"555"}`
	req := httptest.NewRequest("POST", "/api/auth/sign-up", strings.NewReader(signUp))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}

	stored, err := repo.GetByEmail("boss@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.Role != RoleAdmin {
		t.Fatalf("admin email should get admin role, got %q", stored.Role)
	}
	if stored.Password == "hunter22" {
		t.Fatalf("password stored in plain text")
	}

	req = httptest.NewRequest("POST", "/api/auth/sign-up", strings.NewReader(signUp))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/auth/sign-in", strings.NewReader(`{"email":"boss@example.com","password":"hunter22"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on sign-in, got %d", res.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("expected token in response, err=%v", err)
	}
	parsed, err := jwt.Parse(out.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if role := parsed.Claims.(jwt.MapClaims)["role"]; role != RoleAdmin {
		t.Fatalf("expected admin role claim, got %v", role)
	}

	req = httptest.NewRequest("POST", "/api/auth/sign-in", strings.NewReader(`{"email":"boss@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", res.StatusCode)
	}
}

func TestSignUp_ValidationErrors(t *testing.T) {
	h, _ := newTestHandler(nil)
	app := makeApp(h)

	req := httptest.NewRequest("POST", "/api/auth/sign-up", strings.NewReader(`{"email":"nope","password":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var out struct {
		Errors []string `json:"errors"`
	}
	json.NewDecoder(res.Body).Decode(&out)
	if len(out.Errors) != 4 {
		t.Fatalf("expected 4 validation errors, got %v", out.Errors)
	}
}

func TestProfileUpdate(t *testing.T) {
	h, repo := newTestHandler([]User{{ID: 15, Email: "u15@example.com", FirstName: "Old", LastName: "Name", Phone: "000", Role: RoleCustomer, Password: "keep"}})
	app := makeApp(h)

	for _, method := range []string{"PUT", "PATCH"} {
		req := httptest.NewRequest(method, "/api/profile", strings.NewReader(`{"firstName":"New","phone":"999"}`))
		req.Header.Set("X-User-ID", "15")
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s update request failed: %v", method, err)
		}
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 OK on %s update, got %d", method, res.StatusCode)
		}
	}

	req := httptest.NewRequest("PATCH", "/api/profile", strings.NewReader(`{"mainAddressId":42}`))
	req.Header.Set("X-User-ID", "15")
	req.Header.Set("Content-Type", "application/json")
	if res, _ := app.Test(req); res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on main address update, got %d", res.StatusCode)
	}

	u, _ := repo.GetByID(15)
	if u.FirstName != "New" || u.LastName != "Name" || u.Phone != "999" {
		t.Fatalf("partial update not applied: %+v", u)
	}
	if u.MainAddressID == nil || *u.MainAddressID != 42 {
		t.Fatalf("mainAddressId not persisted: %+v", u)
	}
	if u.Password != "keep" {
		t.Fatalf("password should be untouched when not sent")
	}
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	h, repo := newTestHandler([]User{
		{ID: 1, Email: "admin@example.com", Role: RoleAdmin},
		{ID: 2, Email: "c@example.com", Role: RoleCustomer},
	})
	app := makeApp(h)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/admin/users", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/admin/users", nil)
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-Role", RoleCustomer)
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("PATCH", "/api/admin/users/2", strings.NewReader(`{"role":"admin"}`))
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", RoleAdmin)
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on role update, got %d", res.StatusCode)
	}
	if u, _ := repo.GetByID(2); u.Role != RoleAdmin {
		t.Fatalf("role not updated: %+v", u)
	}

	req = httptest.NewRequest("PATCH", "/api/admin/users/2", strings.NewReader(`{"role":"root"}`))
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", RoleAdmin)
	req.Header.Set("Content-Type", "application/json")
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on invalid role, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("DELETE", "/api/admin/users/1", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", RoleAdmin)
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("admin should not delete itself, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("DELETE", "/api/admin/users/2", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", RoleAdmin)
	if res, _ = app.Test(req); res.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", res.StatusCode)
	}
	if _, err := repo.GetByID(2); err != ErrNotFound {
		t.Fatalf("expected user to be deleted, got %v", err)
	}
}
