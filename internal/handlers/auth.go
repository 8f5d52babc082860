package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/config"
	"github.com/example/fastcart/internal/models"
	"github.com/example/fastcart/internal/otp"
	"github.com/example/fastcart/internal/utils"
)

// AuthHandler bundles dependencies for user authentication endpoints.
type AuthHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	manager *otp.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, manager *otp.Manager) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, manager: manager}
}

type registerUserRequest struct {
	Name     string `json:"name"`
	MobileNo string `json:"mobile_no"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account and dispatches a mobile OTP. The
// account is persisted even when OTP dispatch fails; the response carries
// an otp_sent flag so the client can retry verification later.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.MobileNo == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, mobile_no, email & password are required")
	}

	var existing models.User
	err := h.db.Where("email = ? OR mobile_no = ?", req.Email, req.MobileNo).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "you are already registered")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		MobileNo:     req.MobileNo,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	message := "user registered successfully & OTP sent"
	otpSent := true
	sid, err := h.manager.IssueRegistrationCode(c.UserContext(), req.MobileNo)
	if err != nil {
		log.Printf("[Auth] OTP dispatch for %s failed: %v", req.MobileNo, err)
		message = "user registered successfully but OTP sending failed"
		otpSent = false
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          message,
		"otp_sent":         otpSent,
		"verification_sid": sid,
		"user": fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"mobile_no": user.MobileNo,
			"email":     user.Email,
		},
	})
}

type verifyMobileOTPRequest struct {
	MobileNo string `json:"mobile_no"`
	OTP      string `json:"otp"`
}

// VerifyMobileOTP validates the registration code for a user. A user who
// is already verified gets a session token back without a code check.
func (h *AuthHandler) VerifyMobileOTP(c *fiber.Ctx) error {
	var req verifyMobileOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.MobileNo == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mobile number & OTP are required")
	}

	result, err := h.manager.VerifyRegistrationCode(c.UserContext(), req.MobileNo, req.OTP)
	if err != nil {
		if errors.Is(err, otp.ErrActorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "this mobile number is not registered")
		}
		if errors.Is(err, otp.ErrInvalidCode) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid OTP")
		}
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, utils.TokenPayload{
		ID:       result.Actor.ID,
		Name:     result.Actor.Name,
		Email:    result.Actor.Email,
		MobileNo: result.Actor.MobileNo,
		Role:     models.RoleUser,
	}, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	message := "OTP verified successfully"
	if result.AlreadyVerified {
		message = "already verified, login successful"
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"mobile_no": result.Actor.MobileNo,
		"token":     token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user by email and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "you are not registered, please sign up first")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid password")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, utils.TokenPayload{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		MobileNo: user.MobileNo,
		Role:     user.Role,
	}, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
		"token": token,
	})
}
