package models

import "time"

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered customer account.
type User struct {
	BaseModel
	Name         string `json:"name"`
	MobileNo     string `gorm:"uniqueIndex" json:"mobile_no"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"default:user" json:"role"`
	Verified     bool   `json:"verified"`

	// Pending password-reset code; cleared once consumed.
	ResetOTP          string     `gorm:"column:reset_otp" json:"-"`
	ResetOTPExpiresAt *time.Time `gorm:"column:reset_otp_expires_at" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
