package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/internal/storage/sqlite"
	"github.com/clothify/backend/pkg/logger"
)

type ProfileHandler struct {
	db *sqlite.Client
}

func NewProfileHandler(db *sqlite.Client) *ProfileHandler {
	return &ProfileHandler{
		db: db,
	}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Params("id")

	profile, err := h.db.GetProfile(userID)
	if err != nil {
		logger.Error("Failed to load profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load profile",
		})
	}

	if profile == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}

	return c.JSON(profile)
}

func (h *ProfileHandler) SaveProfile(c *fiber.Ctx) error {
	userID := c.Params("id")

	var profile models.UserProfile
	if err := c.BodyParser(&profile); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	profile.ID = userID

	if err := h.db.SaveProfile(&profile); err != nil {
		logger.Error("Failed to save profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save profile",
		})
	}

	return c.JSON(fiber.Map{
		"status": "saved",
	})
}

// RecordPurchase appends to the purchase history the personalization scorer
// reads for price affinity.
func (h *ProfileHandler) RecordPurchase(c *fiber.Ctx) error {
	userID := c.Params("id")

	var purchase models.Purchase
	if err := c.BodyParser(&purchase); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if purchase.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "product_id is required",
		})
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}

	if err := h.db.AddPurchase(userID, purchase); err != nil {
		logger.Error("Failed to record purchase", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record purchase",
		})
	}

	return c.JSON(fiber.Map{
		"status": "recorded",
	})
}

func (h *ProfileHandler) RecordRating(c *fiber.Ctx) error {
	userID := c.Params("id")

	var rating models.ProductRating
	if err := c.BodyParser(&rating); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if rating.ProductID == "" || rating.Rating < 1 || rating.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "product_id and a rating from 1 to 5 are required",
		})
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}

	if err := h.db.AddRating(userID, rating); err != nil {
		logger.Error("Failed to record rating", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record rating",
		})
	}

	return c.JSON(fiber.Map{
		"status": "recorded",
	})
}
