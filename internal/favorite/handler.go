package favorite

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/j1vetr/hank-sub000/internal/user"
)

// Handler delegates favorite operations to the favorite service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/favorites", h.getFavorites)
	r.Post("/api/favorites", h.addFavorite)
	r.Delete("/api/favorites/:productId<int>", h.removeFavorite)
}

type favoriteRequest struct {
	ProductID int `json:"productId"`
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	ids, err := h.service.Add(userID, payload.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"productIds": ids})
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	productID, _ := strconv.Atoi(c.Params("productId"))

	ids, err := h.service.Remove(userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"productIds": ids})
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	products, err := h.service.List(userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrAlreadyFavorite):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFavorite), errors.Is(err, ErrNotFound), errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}
