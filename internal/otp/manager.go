package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/example/fastcart/internal/utils"
)

// Errors surfaced by the lifecycle manager. Handlers map these to HTTP statuses.
var (
	ErrActorNotFound = errors.New("actor not found")
	ErrInvalidCode   = errors.New("invalid otp code")
)

// Actor is the manager's view of a user or seller row.
type Actor struct {
	ID                uuid.UUID
	Name              string
	Email             string
	MobileNo          string
	Verified          bool
	ResetOTP          string
	ResetOTPExpiresAt *time.Time
}

// ActorStore is keyed lookup and partial update over the persistence layer.
type ActorStore interface {
	ByEmail(ctx context.Context, email string) (*Actor, error)
	ByMobile(ctx context.Context, mobileNo string) (*Actor, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetResetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	ClearResetOTP(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SMSChannel dispatches and checks registration codes. The provider owns
// code state for this path; nothing is stored locally.
type SMSChannel interface {
	Dispatch(ctx context.Context, mobileNo string) (string, error)
	Check(ctx context.Context, mobileNo, code string) (bool, error)
}

// EmailChannel delivers password-reset codes.
type EmailChannel interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Outcome is the tri-state result of a reset-code verification.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeExpired  Outcome = "expired"
)

// Manager issues, stores, verifies, and invalidates one-time codes for a
// single actor type. User and seller flows each get their own instance
// backed by the matching ActorStore.
type Manager struct {
	actors       ActorStore
	sms          SMSChannel
	email        EmailChannel
	cache        CacheStore
	fallbackCode string
	resetTTL     time.Duration
	actorLabel   string
	now          func() time.Time
}

// NewManager wires a lifecycle manager. fallbackCode may be empty to
// disable the provider-outage sentinel. actorLabel shows up in email copy
// and logs ("user" or "seller").
func NewManager(actors ActorStore, sms SMSChannel, email EmailChannel, cache CacheStore, fallbackCode string, resetTTL time.Duration, actorLabel string) *Manager {
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &Manager{
		actors:       actors,
		sms:          sms,
		email:        email,
		cache:        cache,
		fallbackCode: fallbackCode,
		resetTTL:     resetTTL,
		actorLabel:   actorLabel,
		now:          time.Now,
	}
}

// IssueRegistrationCode asks the SMS provider to dispatch a code to the
// given number and returns the provider's dispatch handle. A dispatch
// failure leaves the actor record untouched; the caller decides how to
// report it.
func (m *Manager) IssueRegistrationCode(ctx context.Context, mobileNo string) (string, error) {
	sid, err := m.sms.Dispatch(ctx, mobileNo)
	if err != nil {
		return "", fmt.Errorf("otp dispatch: %w", err)
	}
	return sid, nil
}

// VerifyResult describes how a registration verification concluded.
type VerifyResult struct {
	Actor           *Actor
	AlreadyVerified bool
	ViaFallback     bool
}

// VerifyRegistrationCode validates a registration code for the actor
// registered under mobileNo. Already-verified actors short-circuit without
// a code check (reverify-as-login). Otherwise the provider is asked first;
// if the provider call fails or rejects, the configured fallback sentinel
// is compared. At most one path marks the actor verified.
func (m *Manager) VerifyRegistrationCode(ctx context.Context, mobileNo, code string) (*VerifyResult, error) {
	actor, err := m.actors.ByMobile(ctx, mobileNo)
	if err != nil {
		return nil, err
	}

	if actor.Verified {
		return &VerifyResult{Actor: actor, AlreadyVerified: true}, nil
	}

	approved, err := m.sms.Check(ctx, mobileNo, code)
	if err == nil && approved {
		if err := m.actors.MarkVerified(ctx, actor.ID); err != nil {
			return nil, err
		}
		actor.Verified = true
		return &VerifyResult{Actor: actor}, nil
	}
	if err != nil {
		log.Printf("[OTP] %s verification check failed for %s: %v", m.actorLabel, mobileNo, err)
	}

	if m.fallbackCode != "" && subtle.ConstantTimeCompare([]byte(code), []byte(m.fallbackCode)) == 1 {
		if err := m.actors.MarkVerified(ctx, actor.ID); err != nil {
			return nil, err
		}
		actor.Verified = true
		return &VerifyResult{Actor: actor, ViaFallback: true}, nil
	}

	return nil, ErrInvalidCode
}

// ResetIssue reports the outcome of IssueResetCode.
type ResetIssue struct {
	Code      string
	ExpiresAt time.Time
	EmailSent bool
}

// IssueResetCode generates a 6-digit reset code for the actor registered
// under email, persists it with its expiry, mirrors it into the TTL cache,
// and dispatches it by email. Email failure is non-fatal: the code is
// already stored, so the caller just learns delivery did not happen.
func (m *Manager) IssueResetCode(ctx context.Context, email string) (*ResetIssue, error) {
	actor, err := m.actors.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate reset code: %w", err)
	}

	expiresAt := m.now().Add(m.resetTTL)
	if err := m.actors.SetResetOTP(ctx, actor.ID, code, expiresAt); err != nil {
		return nil, err
	}

	if err := m.cache.Put(ctx, email, code, m.resetTTL); err != nil {
		log.Printf("[OTP] cache write failed for %s: %v", email, err)
	}

	issue := &ResetIssue{Code: code, ExpiresAt: expiresAt, EmailSent: true}
	subject := fmt.Sprintf("OTP for Password Reset - FastCart %s", m.actorLabel)
	if err := m.email.Send(ctx, email, subject, resetEmailBody(actor.Name, code, m.resetTTL)); err != nil {
		log.Printf("[OTP] reset email to %s failed: %v", email, err)
		issue.EmailSent = false
	}

	return issue, nil
}

// VerifyResetCode checks a submitted reset code. The persisted record is
// authoritative: a mismatch against a live persisted code is invalid
// immediately. Only an absent or expired persisted record falls through to
// the cache. The matching store is cleared on success so a code verifies
// exactly once.
func (m *Manager) VerifyResetCode(ctx context.Context, email, code string) (Outcome, error) {
	actor, err := m.actors.ByEmail(ctx, email)
	if err != nil {
		return OutcomeInvalid, err
	}

	now := m.now()
	persistedExpired := false
	if actor.ResetOTP != "" {
		live := actor.ResetOTPExpiresAt != nil && actor.ResetOTPExpiresAt.After(now)
		if live {
			if subtle.ConstantTimeCompare([]byte(actor.ResetOTP), []byte(code)) == 1 {
				if err := m.actors.ClearResetOTP(ctx, actor.ID); err != nil {
					return OutcomeInvalid, err
				}
				_ = m.cache.Delete(ctx, email)
				return OutcomeApproved, nil
			}
			return OutcomeInvalid, nil
		}
		persistedExpired = true
	}

	cached, ok, err := m.cache.Get(ctx, email)
	if err != nil {
		log.Printf("[OTP] cache read failed for %s: %v", email, err)
	}
	if ok {
		if subtle.ConstantTimeCompare([]byte(cached), []byte(code)) == 1 {
			_ = m.cache.Delete(ctx, email)
			return OutcomeApproved, nil
		}
		return OutcomeInvalid, nil
	}

	if persistedExpired {
		return OutcomeExpired, nil
	}
	return OutcomeInvalid, nil
}

// ResetPassword replaces the actor's password and unconditionally clears
// any residual reset-code state. The endpoint is deliberately
// unauthenticated; it trusts the client flow that verified the code.
func (m *Manager) ResetPassword(ctx context.Context, email, newPassword string) error {
	actor, err := m.actors.ByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := m.actors.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return err
	}
	if err := m.actors.ClearResetOTP(ctx, actor.ID); err != nil {
		return err
	}
	_ = m.cache.Delete(ctx, email)
	return nil
}

// generateCode returns a uniformly random 6-digit code, leading zeros kept.
func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func resetEmailBody(name, code string, ttl time.Duration) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 24px;">
  <h2>FastCart Password Reset</h2>
  <p>Hello <b>%s</b>,</p>
  <p>We received a request to reset your FastCart account password.
  Use the OTP below to continue:</p>
  <p style="font-size: 26px; font-weight: bold; letter-spacing: 4px;">%s</p>
  <p>This OTP expires in %d minutes. If you didn't request a password reset,
  you can safely ignore this email.</p>
</div>`, name, code, int(ttl.Minutes()))
}
