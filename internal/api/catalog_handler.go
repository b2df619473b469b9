package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/catalog"
	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/model"
)

// Catalog is the read-only product view served by the API.
type Catalog interface {
	catalog.Lister
	CoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error)
}

// CatalogHandler serves product and coverage lookups.
type CatalogHandler struct {
	logger  *zap.Logger
	products Catalog
}

func NewCatalogHandler(logger *zap.Logger, c Catalog) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{logger: logger, products: c}
}

// ListProducts lists products, optionally filtered by ?line=.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var line model.Line
	if raw := strings.TrimSpace(c.Query("line")); raw != "" {
		parsed, ok := model.ParseLine(raw)
		if !ok {
			return writeError(c, &rating.ValidationError{Field: "line", Message: "Unsupported line: " + raw})
		}
		line = parsed
	}

	products, err := h.products.ListProducts(c.UserContext(), line)
	if err != nil {
		h.logger.Error("api.list_products.failed", zap.Error(err))
		return writeError(c, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// CoverageOptions lists the coverage options of a product.
func (h *CatalogHandler) CoverageOptions(c *fiber.Ctx) error {
	opts, err := h.products.CoverageOptions(c.UserContext(), c.Params("productId"))
	if err != nil {
		h.logger.Error("api.coverage_options.failed", zap.Error(err))
		return writeError(c, err)
	}
	if opts == nil {
		opts = []model.CoverageOption{}
	}
	return c.Status(fiber.StatusOK).JSON(opts)
}
