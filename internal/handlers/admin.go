package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/models"
)

// AdminHandler serves admin dashboard endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns headline counts for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var (
		totalUsers      int64
		verifiedUsers   int64
		totalSellers    int64
		verifiedSellers int64
		totalCategories int64
	)

	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.User{}).Where("verified = ?", true).Count(&verifiedUsers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Seller{}).Count(&totalSellers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Seller{}).Where("verified = ?", true).Count(&verifiedSellers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Category{}).Count(&totalCategories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"users": fiber.Map{
				"total":    totalUsers,
				"verified": verifiedUsers,
			},
			"sellers": fiber.Map{
				"total":    totalSellers,
				"verified": verifiedSellers,
			},
			"categories": fiber.Map{
				"total": totalCategories,
			},
		},
	})
}
