package banner

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/banners", h.listActive)
}

// RegisterAdminRoutes expects r to be the /api/admin group.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/banners", h.listAll)
	r.Post("/banners", h.create)
	r.Put("/banners/:id<int>", h.update)
	r.Delete("/banners/:id<int>", h.delete)
}

type bannerRequest struct {
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Link      *string `json:"link"`
	Alt       *string `json:"alt"`
	SortOrder int     `json:"sortOrder"`
	Active    *bool   `json:"active"`
}

func (p bannerRequest) toBanner() Banner {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return Banner{Title: p.Title, Image: p.Image, Link: p.Link, Alt: p.Alt, SortOrder: p.SortOrder, Active: active}
}

func (h *Handler) listActive(c *fiber.Ctx) error {
	items, err := h.service.Active(c.QueryInt("limit", defaultLimit))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) listAll(c *fiber.Ctx) error {
	items, err := h.service.All()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) create(c *fiber.Ctx) error {
	var payload bannerRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	created, err := h.service.Create(payload.toBanner())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var payload bannerRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	updated, err := h.service.Update(id, payload.toBanner())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	if err := h.service.Delete(id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrImageRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}
