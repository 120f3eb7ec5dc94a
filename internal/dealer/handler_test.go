package dealer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentReply struct {
	to, name, reply string
}

type fakeMailer struct {
	sent []sentReply
	err  error
}

func (f *fakeMailer) QuoteAnswered(_ context.Context, to, name, reply string) error {
	f.sent = append(f.sent, sentReply{to, name, reply})
	return f.err
}

func setupApp(mailer QuoteMailer) *fiber.App {
	app := fiber.New()
	h := NewHandler(NewService(NewInMemoryRepository(), mailer, nil))
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]any{}
	if res.StatusCode != fiber.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&out)
	}
	return res.StatusCode, out
}

func TestDealerApplicationFlow(t *testing.T) {
	app := setupApp(nil)

	status, body := doJSON(t, app, "POST", "/api/dealers/apply",
		`{"companyName":"Pati Ltd","contactName":"Mert","email":"Mert@Pati.com","phone":"555","city":"Izmir","status":"approved"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "pending", body["status"], "clients cannot self-approve")
	assert.Equal(t, "mert@pati.com", body["email"])

	status, body = doJSON(t, app, "POST", "/api/dealers/apply", `{"companyName":"","email":"nope"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Len(t, body["errors"], 4)

	status, body = doJSON(t, app, "PATCH", "/api/admin/dealers/1", `{"status":"approved"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "approved", body["status"])

	status, _ = doJSON(t, app, "PATCH", "/api/admin/dealers/1", `{"status":"maybe"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	res, err := app.Test(httptest.NewRequest("GET", "/api/admin/dealers?status=approved", nil))
	require.NoError(t, err)
	var list []Application
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Len(t, list, 1)

	status, _ = doJSON(t, app, "DELETE", "/api/admin/dealers/1", "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = doJSON(t, app, "DELETE", "/api/admin/dealers/1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestQuoteReplyIsEmailed(t *testing.T) {
	mailer := &fakeMailer{}
	app := setupApp(mailer)

	status, body := doJSON(t, app, "POST", "/api/quotes",
		`{"name":"Elif","email":"elif@example.com","productId":7,"quantity":50,"message":"bulk price?"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "new", body["status"])

	status, _ = doJSON(t, app, "POST", "/api/admin/quotes/1/reply", `{"reply":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doJSON(t, app, "POST", "/api/admin/quotes/1/reply", `{"reply":"10% off above 40 units"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "answered", body["status"])
	assert.Equal(t, "10% off above 40 units", body["adminReply"])

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, sentReply{"elif@example.com", "Elif", "10% off above 40 units"}, mailer.sent[0])

	status, body = doJSON(t, app, "PATCH", "/api/admin/quotes/1", `{"status":"closed"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "closed", body["status"])

	status, _ = doJSON(t, app, "POST", "/api/admin/quotes/99/reply", `{"reply":"hi"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestReply_MailFailureKeepsReply(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo, &fakeMailer{err: errors.New("smtp down")}, nil)
	ctx := context.Background()

	q, err := svc.RequestQuote(ctx, Quote{Name: "A", Email: "a@example.com", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Quantity)

	_, err = svc.Reply(ctx, q.ID, "thanks")
	require.NoError(t, err)

	stored, err := repo.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteAnswered, stored.Status)
}
