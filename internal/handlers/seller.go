package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/config"
	"github.com/example/fastcart/internal/middleware"
	"github.com/example/fastcart/internal/models"
	"github.com/example/fastcart/internal/otp"
	"github.com/example/fastcart/internal/services"
	"github.com/example/fastcart/internal/utils"
)

// SellerHandler bundles dependencies for merchant onboarding endpoints.
type SellerHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	manager *otp.Manager
	gst     *services.GSTService
}

// NewSellerHandler constructs a SellerHandler.
func NewSellerHandler(db *gorm.DB, cfg *config.Config, manager *otp.Manager, gst *services.GSTService) *SellerHandler {
	return &SellerHandler{db: db, cfg: cfg, manager: manager, gst: gst}
}

type registerSellerRequest struct {
	MobileNo string `json:"mobile_no"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a seller account and dispatches a mobile OTP. Like user
// registration, a dispatch failure does not roll the account back.
func (h *SellerHandler) Register(c *fiber.Ctx) error {
	var req registerSellerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.MobileNo == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mobile_no, email & password are required")
	}

	var existing models.Seller
	err := h.db.Where("email = ? OR mobile_no = ?", req.Email, req.MobileNo).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "seller already registered, please login")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	seller := models.Seller{
		MobileNo:     req.MobileNo,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	if err := h.db.Create(&seller).Error; err != nil {
		return err
	}

	message := "seller registered successfully & OTP sent"
	otpSent := true
	sid, err := h.manager.IssueRegistrationCode(c.UserContext(), req.MobileNo)
	if err != nil {
		log.Printf("[Seller] OTP dispatch for %s failed: %v", req.MobileNo, err)
		message = "seller registered successfully but OTP sending failed"
		otpSent = false
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          message,
		"otp_sent":         otpSent,
		"verification_sid": sid,
		"seller": fiber.Map{
			"id":        seller.ID,
			"mobile_no": seller.MobileNo,
			"email":     seller.Email,
		},
	})
}

// VerifyMobileOTP validates the registration code for a seller and hands
// back a session token on success.
func (h *SellerHandler) VerifyMobileOTP(c *fiber.Ctx) error {
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
		IsSeller: true,
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

// Login authenticates a seller by email and password.
func (h *SellerHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	var seller models.Seller
	if err := h.db.Where("email = ?", req.Email).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "you are not registered, please sign up first")
		}
		return err
	}

	if !utils.CheckPassword(seller.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid password")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, utils.TokenPayload{
		ID:       seller.ID,
		Name:     seller.OwnerName,
		Email:    seller.Email,
		MobileNo: seller.MobileNo,
		IsSeller: true,
	}, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"seller": fiber.Map{
			"id":        seller.ID,
			"email":     seller.Email,
			"mobile_no": seller.MobileNo,
			"verified":  seller.Verified,
		},
		"token": token,
	})
}

type gstVerifyRequest struct {
	GSTIN string `json:"gstin"`
}

// GSTVerify validates the authenticated seller's GSTIN against the tax
// registry and stores it on success. The seller is marked verified once the
// registry confirms the number is active.
func (h *SellerHandler) GSTVerify(c *fiber.Ctx) error {
	claims, ok := middleware.CurrentSeller(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "seller session required")
	}

	var req gstVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.GSTIN == "" {
		return fiber.NewError(fiber.StatusBadRequest, "gstin is required")
	}

	if !services.IsValidGSTIN(req.GSTIN) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid GSTIN format")
	}

	var seller models.Seller
	if err := h.db.Where("mobile_no = ?", claims.MobileNo).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "seller not found")
		}
		return err
	}

	result, err := h.gst.Validate(c.UserContext(), req.GSTIN)
	if err != nil {
		log.Printf("[Seller] GSTIN lookup for %s failed: %v", req.GSTIN, err)
		return fiber.NewError(fiber.StatusBadGateway, "GSTIN verification service unavailable")
	}

	if !result.Valid {
		return fiber.NewError(fiber.StatusBadRequest, "GSTIN verification failed")
	}

	updates := map[string]interface{}{
		"gstin":    req.GSTIN,
		"verified": true,
	}
	if err := h.db.Model(&seller).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "GSTIN verified successfully",
		"gstin":   req.GSTIN,
		"details": result,
	})
}
