package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/catalog"
	"github.com/clothify/backend/internal/metrics"
	"github.com/clothify/backend/internal/ranking"
	"github.com/clothify/backend/internal/search"
	"github.com/clothify/backend/internal/search/semantic"
	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/pkg/logger"
)

type CatalogHandler struct {
	catalog  *catalog.Source
	semantic *semantic.Searcher
}

func NewCatalogHandler(cat *catalog.Source, searcher *semantic.Searcher) *CatalogHandler {
	return &CatalogHandler{
		catalog:  cat,
		semantic: searcher,
	}
}

func (h *CatalogHandler) UpsertProduct(c *fiber.Ctx) error {
	var product models.Product

	if err := c.BodyParser(&product); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if product.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Product name is required",
		})
	}

	if err := h.catalog.Upsert(c.Context(), &product); err != nil {
		logger.Error("Failed to upsert product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store product",
		})
	}

	metrics.CatalogProducts.Set(float64(h.catalog.Size()))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     product.ID,
		"status": "stored",
	})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	product := h.catalog.Lookup(id)
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(product)
}

// ImportHTML ingests a scraped category page posted as the request body.
func (h *CatalogHandler) ImportHTML(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body is required",
		})
	}

	baseURL := c.Query("base_url")

	count, err := h.catalog.ImportHTML(c.Context(), bytes.NewReader(body), baseURL)
	if err != nil {
		logger.Error("Failed to import catalog page", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Failed to import page",
		})
	}

	metrics.CatalogProducts.Set(float64(h.catalog.Size()))

	return c.JSON(fiber.Map{
		"imported": count,
	})
}

func (h *CatalogHandler) Refresh(c *fiber.Ctx) error {
	if err := h.catalog.Refresh(c.Context()); err != nil {
		logger.Error("Failed to refresh catalog", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to refresh catalog",
		})
	}

	metrics.CatalogProducts.Set(float64(h.catalog.Size()))

	return c.JSON(fiber.Map{
		"products": h.catalog.Size(),
	})
}

// SearchProducts is the stateless search endpoint: lexical and semantic
// rankings fused, no session memory or personalization.
func (h *CatalogHandler) SearchProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	limit := c.QueryInt("limit", 10)
	products := h.catalog.Snapshot()

	lexical := search.Lexical(query, products, limit*3)
	semanticResults := h.semantic.Search(c.Context(), query, products, limit*3)

	fused := ranking.Fuse(lexical, semanticResults)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	return c.JSON(fiber.Map{
		"query":   query,
		"results": fused,
	})
}
