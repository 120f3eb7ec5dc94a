package coupon

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/coupons/validate", h.validate)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/coupons", h.list)
	r.Get("/coupons/influencers", h.influencers)
	r.Get("/coupons/:id<int>", h.get)
	r.Post("/coupons", h.create)
	r.Patch("/coupons/:id<int>", h.update)
	r.Put("/coupons/:id<int>", h.update)
	r.Delete("/coupons/:id<int>", h.delete)
}

type validateRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

type couponRequest struct {
	Code                string          `json:"code"`
	DiscountType        DiscountType    `json:"discountType"`
	DiscountValue       decimal.Decimal `json:"discountValue"`
	IsInfluencerCode    bool            `json:"isInfluencerCode"`
	InfluencerInstagram *string         `json:"influencerInstagram"`
	MinOrderTotal       decimal.Decimal `json:"minOrderTotal"`
	MaxUses             int             `json:"maxUses"`
	ValidFrom           *time.Time      `json:"validFrom"`
	ValidUntil          *time.Time      `json:"validUntil"`
	Active              *bool           `json:"active"`
}

func (p couponRequest) toCoupon() Coupon {
	return Coupon{
		Code:                p.Code,
		DiscountType:        p.DiscountType,
		DiscountValue:       p.DiscountValue,
		IsInfluencerCode:    p.IsInfluencerCode,
		InfluencerInstagram: p.InfluencerInstagram,
		MinOrderTotal:       p.MinOrderTotal,
		MaxUses:             p.MaxUses,
		ValidFrom:           p.ValidFrom,
		ValidUntil:          p.ValidUntil,
		Active:              p.Active == nil || *p.Active,
	}
}

func (h *Handler) validate(c *fiber.Ctx) error {
	var payload validateRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	if payload.Code == "" {
		return c.JSON(Result{Valid: false, Error: ErrInvalidCoupon.Error()})
	}
	res, err := h.service.Validate(c.UserContext(), payload.Code, payload.OrderTotal)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(res)
}

func (h *Handler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) influencers(c *fiber.Ctx) error {
	items, err := h.service.InfluencerReport(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	item, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}

func (h *Handler) create(c *fiber.Ctx) error {
	var payload couponRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	created, err := h.service.Create(c.UserContext(), payload.toCoupon())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var payload couponRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	updated, err := h.service.Update(c.UserContext(), id, payload.toCoupon())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrCodeExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrBadCoupon):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}
