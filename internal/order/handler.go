package order

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/j1vetr/hank-sub000/internal/user"
)

// Handler exposes order history to customers and order management to admins.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/orders", h.listMine)
	r.Get("/api/orders/:orderNumber", h.getMine)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/:id<int>", h.get)
	r.Patch("/orders/:id<int>/status", h.setStatus)
	r.Patch("/orders/:id<int>/tracking", h.setTracking)
	r.Post("/orders/:id<int>/cancel", h.cancel)
	r.Patch("/orders/:id<int>/notes", h.setNotes)
}

func (h *Handler) listMine(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.service.ListForUser(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getMine(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	o, err := h.service.GetForUser(c.UserContext(), userID, c.Params("orderNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

// list accepts ?status=pending,processing.
func (h *Handler) list(c *fiber.Ctx) error {
	var statuses []Status
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, Status(s))
		}
	}
	orders, err := h.service.List(c.UserContext(), statuses)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	o, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) setStatus(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	o, err := h.service.SetStatus(c.UserContext(), id, Status(payload.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) setTracking(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload struct {
		TrackingNumber string `json:"trackingNumber"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	o, err := h.service.SetTracking(c.UserContext(), id, payload.TrackingNumber)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	o, err := h.service.Cancel(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) setNotes(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	o, err := h.service.SetNotes(c.UserContext(), id, payload.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrTrackingRequired), errors.Is(err, ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
