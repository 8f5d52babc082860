package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/config"
	"github.com/example/fastcart/internal/models"
	"github.com/example/fastcart/internal/utils"
)

const (
	userContextKey   = "currentUser"
	sellerContextKey = "currentSellerClaims"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserAuth validates the JWT and loads the matching user row into context.
func UserAuth(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "access denied, no token provided")
		}

		claims, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		id, err := claims.ActorID()
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "user not found")
			}
			return err
		}

		c.Locals(userContextKey, &user)
		return c.Next()
	}
}

// RequireAdmin allows only users holding the admin role. Must run after UserAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "admin privileges required")
		}
		return c.Next()
	}
}

// SellerAuth validates the JWT and requires the seller flag. The claims are
// trusted without a database round trip.
func SellerAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "access denied, no token provided")
		}

		claims, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		if !claims.IsSeller {
			return fiber.NewError(fiber.StatusForbidden, "seller access required")
		}

		c.Locals(sellerContextKey, claims)
		return c.Next()
	}
}

// CurrentUser extracts the authenticated user loaded by UserAuth.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	if user, ok := c.Locals(userContextKey).(*models.User); ok {
		return user, true
	}
	return nil, false
}

// CurrentSeller extracts the seller claims attached by SellerAuth.
func CurrentSeller(c *fiber.Ctx) (*utils.SessionClaims, bool) {
	if claims, ok := c.Locals(sellerContextKey).(*utils.SessionClaims); ok {
		return claims, true
	}
	return nil, false
}
