package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/fastcart/internal/otp"
)

// PasswordResetHandler serves the forgot-password endpoints for one actor
// type. The user and seller routes each mount their own instance around
// the matching lifecycle manager.
type PasswordResetHandler struct {
	manager *otp.Manager
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(manager *otp.Manager) *PasswordResetHandler {
	return &PasswordResetHandler{manager: manager}
}

type forgetPasswordRequest struct {
	Email string `json:"email"`
}

// ForgetPassword issues a reset OTP to the account's email. Email delivery
// failure is non-fatal: the code is already persisted, the flag tells the
// client delivery did not happen.
func (h *PasswordResetHandler) ForgetPassword(c *fiber.Ctx) error {
	var req forgetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	issue, err := h.manager.IssueResetCode(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, otp.ErrActorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found, please register first")
		}
		return err
	}

	message := "forgot password OTP sent successfully"
	if !issue.EmailSent {
		message = "OTP generated but email delivery failed"
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    message,
		"to_email":   req.Email,
		"otp_sent":   issue.EmailSent,
		"expires_at": issue.ExpiresAt,
	})
}

type verifyForgetOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyForgetOTP checks a submitted reset code.
func (h *PasswordResetHandler) VerifyForgetOTP(c *fiber.Ctx) error {
	var req verifyForgetOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email & OTP are required")
	}

	outcome, err := h.manager.VerifyResetCode(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, otp.ErrActorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return err
	}

	switch outcome {
	case otp.OutcomeApproved:
		return c.JSON(fiber.Map{
			"success": true,
			"message": "OTP verified successfully, you can now reset your password",
		})
	case otp.OutcomeExpired:
		return fiber.NewError(fiber.StatusBadRequest, "OTP expired, please request a new one")
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid OTP")
	}
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// ResetPassword replaces the account password and clears any residual OTP
// state.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email & new password are required")
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	if err := h.manager.ResetPassword(c.UserContext(), req.Email, req.NewPassword); err != nil {
		if errors.Is(err, otp.ErrActorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset successfully, you can now login with your new password",
	})
}
