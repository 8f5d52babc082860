package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/models"
)

// UserStore adapts the users table to the ActorStore interface.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*Actor, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrActorNotFound
		}
		return nil, err
	}
	return userActor(&user), nil
}

func (s *UserStore) ByMobile(ctx context.Context, mobileNo string) (*Actor, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("mobile_no = ?", mobileNo).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrActorNotFound
		}
		return nil, err
	}
	return userActor(&user), nil
}

func (s *UserStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("verified", true).Error
}

func (s *UserStore) SetResetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_otp":            code,
			"reset_otp_expires_at": expiresAt,
		}).Error
}

func (s *UserStore) ClearResetOTP(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_otp":            "",
			"reset_otp_expires_at": nil,
		}).Error
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func userActor(user *models.User) *Actor {
	return &Actor{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		MobileNo:          user.MobileNo,
		Verified:          user.Verified,
		ResetOTP:          user.ResetOTP,
		ResetOTPExpiresAt: user.ResetOTPExpiresAt,
	}
}

// SellerStore adapts the sellers table to the ActorStore interface.
type SellerStore struct {
	db *gorm.DB
}

// NewSellerStore constructs a SellerStore.
func NewSellerStore(db *gorm.DB) *SellerStore {
	return &SellerStore{db: db}
}

func (s *SellerStore) ByEmail(ctx context.Context, email string) (*Actor, error) {
	var seller models.Seller
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrActorNotFound
		}
		return nil, err
	}
	return sellerActor(&seller), nil
}

func (s *SellerStore) ByMobile(ctx context.Context, mobileNo string) (*Actor, error) {
	var seller models.Seller
	if err := s.db.WithContext(ctx).Where("mobile_no = ?", mobileNo).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrActorNotFound
		}
		return nil, err
	}
	return sellerActor(&seller), nil
}

func (s *SellerStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).
		Update("verified", true).Error
}

func (s *SellerStore) SetResetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_otp":            code,
			"reset_otp_expires_at": expiresAt,
		}).Error
}

func (s *SellerStore) ClearResetOTP(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_otp":            "",
			"reset_otp_expires_at": nil,
		}).Error
}

func (s *SellerStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func sellerActor(seller *models.Seller) *Actor {
	return &Actor{
		ID:                seller.ID,
		Name:              seller.OwnerName,
		Email:             seller.Email,
		MobileNo:          seller.MobileNo,
		Verified:          seller.Verified,
		ResetOTP:          seller.ResetOTP,
		ResetOTPExpiresAt: seller.ResetOTPExpiresAt,
	}
}
