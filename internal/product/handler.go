package product

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/products", h.getProducts)
	r.Get("/api/products/:id<int>", h.getProduct)
}

// RegisterAdminRoutes expects r to be the /api/admin group.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/products", h.adminList)
	r.Get("/products/:id<int>", h.adminGet)
	r.Post("/products", h.createProduct)
	r.Put("/products/:id<int>", h.updateProduct)
	r.Patch("/products/:id<int>", h.updateProduct)
	r.Delete("/products/:id<int>", h.deleteProduct)

	r.Get("/inventory", h.lowStock)
	r.Patch("/inventory/:id<int>", h.adjustStock)
}

type variantRequest struct {
	ID    int              `json:"id"`
	Name  string           `json:"name"`
	SKU   string           `json:"sku"`
	Price *decimal.Decimal `json:"price"`
	Stock int              `json:"stock"`
}

type productRequest struct {
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice"`
	CategoryID     *int             `json:"categoryId"`
	Images         []string         `json:"images"`
	Stock          int              `json:"stock"`
	Featured       bool             `json:"featured"`
	Active         *bool            `json:"active"`
	Variants       []variantRequest `json:"variants"`
}

func (p productRequest) toProduct() Product {
	out := Product{
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		CategoryID:     p.CategoryID,
		Images:         p.Images,
		Stock:          p.Stock,
		Featured:       p.Featured,
		Active:         p.Active == nil || *p.Active,
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, Variant{ID: v.ID, Name: v.Name, SKU: v.SKU, Price: v.Price, Stock: v.Stock})
	}
	return out
}

type stockRequest struct {
	VariantID *int `json:"variantId"`
	Delta     int  `json:"delta"`
}

func filterFromQuery(c *fiber.Ctx) Filter {
	var f Filter
	if v, err := strconv.Atoi(c.Query("category")); err == nil {
		f.CategoryID = &v
	}
	if v := c.Query("featured"); v != "" {
		b := v == "1" || v == "true"
		f.Featured = &b
	}
	f.Search = c.Query("q")
	return f
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	f := filterFromQuery(c)
	f.ActiveOnly = true
	products, err := h.service.List(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	p, err := h.service.GetActive(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) adminList(c *fiber.Ctx) error {
	products, err := h.service.List(filterFromQuery(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) adminGet(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	p, err := h.service.GetByID(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var payload productRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	created, err := h.service.Create(payload.toProduct())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var payload productRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	updated, err := h.service.Update(id, payload.toProduct())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	if err := h.service.Delete(id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) lowStock(c *fiber.Ctx) error {
	threshold := c.QueryInt("threshold", 5)
	rows, err := h.service.LowStock(threshold)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(rows)
}

func (h *Handler) adjustStock(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var payload stockRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}
	stock, err := h.service.AdjustStock(id, payload.VariantID, payload.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"productId": id, "variantId": payload.VariantID, "stock": stock})
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrSlugExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}
