package handlers

import (
	"inventory/internal/middleware"
	"inventory/internal/models"
	"inventory/internal/services"
	"inventory/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       newValidator(),
	}
}

// RegisterRoutes registers the product routes. Every route requires
// authRequired; writes are limited to admins.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	products := router.Group("/products", authRequired)
	products.Get("/", h.HandleListProducts)
	products.Get("/:id", h.HandleGetProduct)
	products.Post("/", adminOnly, h.HandleCreateProduct)
	products.Put("/:id", adminOnly, h.HandleUpdateProduct)
	products.Delete("/:id", adminOnly, h.HandleDeleteProduct)
}

// HandleListProducts returns one page of products matching the query string.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := services.ProductQuery{
		Category: models.Category(c.Query("category")),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", services.DefaultPageSize),
	}

	var err error
	if query.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return err
	}
	if query.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return err
	}

	page, err := h.productService.ListProducts(c.UserContext(), query)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"products":      page.Products,
		"totalPages":    page.TotalPages,
		"currentPage":   page.CurrentPage,
		"totalProducts": page.TotalProducts,
	})
}

func priceParam(c *fiber.Ctx, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, models.NewValidationError(name, name+" must be a number")
	}
	return &d, nil
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.productService.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleCreateProduct stores a new product owned by the calling admin.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req models.ProductInput
	if err := c.BodyParser(&req); err != nil {
		logger.Debug("invalid product body", "err", err)
		return errInvalidBody
	}
	if err := validateStruct(h.validate, req); err != nil {
		return err
	}

	product, err := h.productService.CreateProduct(c.UserContext(), identity.ID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleUpdateProduct applies the supplied fields to an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req models.ProductPatch
	if err := c.BodyParser(&req); err != nil {
		logger.Debug("invalid product body", "err", err)
		return errInvalidBody
	}
	if err := validateStruct(h.validate, req); err != nil {
		return err
	}

	product, err := h.productService.UpdateProduct(c.UserContext(), identity.ID, c.Params("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleDeleteProduct permanently removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := h.productService.DeleteProduct(c.UserContext(), identity.ID, c.Params("id")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}
