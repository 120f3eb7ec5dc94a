package dealer

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/dealers/apply", h.apply)
	r.Post("/api/quotes", h.requestQuote)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/dealers", h.listApplications)
	r.Patch("/dealers/:id<int>", h.setApplicationStatus)
	r.Delete("/dealers/:id<int>", h.deleteApplication)

	r.Get("/quotes", h.listQuotes)
	r.Post("/quotes/:id<int>/reply", h.reply)
	r.Patch("/quotes/:id<int>", h.setQuoteStatus)
	r.Delete("/quotes/:id<int>", h.deleteQuote)
}

func (h *Handler) apply(c *fiber.Ctx) error {
	var payload Application
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	created, err := h.service.Apply(c.UserContext(), payload)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) listApplications(c *fiber.Ctx) error {
	items, err := h.service.ListApplications(c.UserContext(), Status(c.Query("status")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setApplicationStatus(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload statusRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	a, err := h.service.SetApplicationStatus(c.UserContext(), id, Status(payload.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) deleteApplication(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	if err := h.service.DeleteApplication(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) requestQuote(c *fiber.Ctx) error {
	var payload Quote
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	created, err := h.service.RequestQuote(c.UserContext(), payload)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) listQuotes(c *fiber.Ctx) error {
	items, err := h.service.ListQuotes(c.UserContext(), QuoteStatus(c.Query("status")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) reply(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload struct {
		Reply string `json:"reply"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	q, err := h.service.Reply(c.UserContext(), id, payload.Reply)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(q)
}

func (h *Handler) setQuoteStatus(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload statusRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	q, err := h.service.SetQuoteStatus(c.UserContext(), id, QuoteStatus(payload.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(q)
}

func (h *Handler) deleteQuote(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	if err := h.service.DeleteQuote(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func writeError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "validation failed", "errors": verr.Errors})
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrEmptyReply):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
