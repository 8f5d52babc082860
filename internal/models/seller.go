package models

import "time"

// Seller represents a merchant account. Verified flips to true once the
// mobile OTP or GSTIN check succeeds.
type Seller struct {
	BaseModel
	MobileNo     string `gorm:"uniqueIndex" json:"mobile_no"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	GSTIN        string `json:"gstin,omitempty"`
	Verified     bool   `json:"verified"`

	// Pending password-reset code; cleared once consumed.
	ResetOTP          string     `gorm:"column:reset_otp" json:"-"`
	ResetOTPExpiresAt *time.Time `gorm:"column:reset_otp_expires_at" json:"-"`

	// Business profile, filled in after onboarding.
	BusinessName    string `json:"business_name,omitempty"`
	PanNumber       string `json:"pan_number,omitempty"`
	BusinessType    string `json:"business_type,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`
	StoreName       string `json:"store_name,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`
	BankAcNumber    string `json:"bank_ac_number,omitempty"`
	IFSC            string `json:"ifsc,omitempty"`

	PickupHouseNo  string `json:"pickup_house_no,omitempty"`
	PickupStreet   string `json:"pickup_street,omitempty"`
	PickupLandmark string `json:"pickup_landmark,omitempty"`
	PickupPincode  string `json:"pickup_pincode,omitempty"`
	PickupCity     string `json:"pickup_city,omitempty"`
	PickupState    string `json:"pickup_state,omitempty"`

	AgreementAccepted bool `json:"agreement_accepted"`
}
