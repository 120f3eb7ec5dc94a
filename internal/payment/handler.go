package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/j1vetr/hank-sub000/internal/coupon"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/j1vetr/hank-sub000/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts the gateway notification endpoint, which is
// authenticated by its hash rather than a user token.
func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/payment/callback", h.callback)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/api/payment/create", h.create)
	r.Get("/api/payment/status/:merchantOid", h.status)
}

func (h *Handler) create(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	var payload CreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	res, err := h.service.Create(c.UserContext(), userID, payload, c.IP())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) status(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	res, err := h.service.Status(c.UserContext(), userID, c.Params("merchantOid"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// callback answers with the plain "OK" the gateway waits for; anything else
// makes it retry.
func (h *Handler) callback(c *fiber.Ctx) error {
	var cb Callback
	if err := c.BodyParser(&cb); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid notification")
	}
	err := h.service.HandleCallback(c.UserContext(), cb)
	switch {
	case err == nil:
		return c.SendString("OK")
	case errors.Is(err, ErrBadHash):
		return c.Status(fiber.StatusBadRequest).SendString("bad hash")
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).SendString("unknown merchant_oid")
	default:
		h.service.Log.Error("payment callback failed", "merchant_oid", cb.MerchantOID, "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("error")
	}
}

func writeError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "validation failed", "errors": verr.Errors})
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, product.ErrUnavailable), errors.Is(err, product.ErrNotFound), errors.Is(err, product.ErrVariantNotFound):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "payment not found"})
	case errors.Is(err, ErrGateway):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "payment provider unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
