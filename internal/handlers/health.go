package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler serves liveness endpoints.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Root is the API banner.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "FastCart API is running",
	})
}

// Check reports process and database health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "up"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "down"
	} else if err := sqlDB.PingContext(c.UserContext()); err != nil {
		dbStatus = "down"
	}

	status := fiber.StatusOK
	if dbStatus != "up" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"success":   dbStatus == "up",
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
