package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/fastcart/internal/otp"
)

// stubActorStore holds a single in-memory account for endpoint tests.
type stubActorStore struct {
	actor        otp.Actor
	passwordHash string
}

func (s *stubActorStore) ByEmail(ctx context.Context, email string) (*otp.Actor, error) {
	if s.actor.Email != email {
		return nil, otp.ErrActorNotFound
	}
	copy := s.actor
	return &copy, nil
}

func (s *stubActorStore) ByMobile(ctx context.Context, mobileNo string) (*otp.Actor, error) {
	if s.actor.MobileNo != mobileNo {
		return nil, otp.ErrActorNotFound
	}
	copy := s.actor
	return &copy, nil
}

func (s *stubActorStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	s.actor.Verified = true
	return nil
}

func (s *stubActorStore) SetResetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	s.actor.ResetOTP = code
	t := expiresAt
	s.actor.ResetOTPExpiresAt = &t
	return nil
}

func (s *stubActorStore) ClearResetOTP(ctx context.Context, id uuid.UUID) error {
	s.actor.ResetOTP = ""
	s.actor.ResetOTPExpiresAt = nil
	return nil
}

func (s *stubActorStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.passwordHash = passwordHash
	return nil
}

type stubSMS struct{}

func (stubSMS) Dispatch(ctx context.Context, mobileNo string) (string, error) { return "VE1", nil }
func (stubSMS) Check(ctx context.Context, mobileNo, code string) (bool, error) {
	return false, nil
}

type stubEmail struct{ fail bool }

func (s stubEmail) Send(ctx context.Context, to, subject, html string) error {
	if s.fail {
		return fmt.Errorf("delivery failed")
	}
	return nil
}

func newResetTestApp(store *stubActorStore, email stubEmail) *fiber.App {
	manager := otp.NewManager(store, stubSMS{}, email, otp.NewMemoryStore(), "000000", 10*time.Minute, "user")
	handler := NewPasswordResetHandler(manager)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/forget/password", handler.ForgetPassword)
	app.Post("/verify/forget/password", handler.VerifyForgetOTP)
	app.Post("/reset/password", handler.ResetPassword)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]string) (int, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	return resp.StatusCode, payload
}

func testStore() *stubActorStore {
	return &stubActorStore{actor: otp.Actor{
		ID:       uuid.New(),
		Name:     "Asha",
		Email:    "asha@example.com",
		MobileNo: "+919876543210",
	}}
}

func TestForgetPassword_IssuesCode(t *testing.T) {
	store := testStore()
	app := newResetTestApp(store, stubEmail{})

	status, payload := postJSON(t, app, "/forget/password", map[string]string{"email": "asha@example.com"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, true, payload["otp_sent"])
	assert.Regexp(t, `^\d{6}$`, store.actor.ResetOTP)
}

func TestForgetPassword_EmailFailureStillSucceeds(t *testing.T) {
	store := testStore()
	app := newResetTestApp(store, stubEmail{fail: true})

	status, payload := postJSON(t, app, "/forget/password", map[string]string{"email": "asha@example.com"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, false, payload["otp_sent"])
	assert.NotEmpty(t, store.actor.ResetOTP, "code persisted despite delivery failure")
}

func TestForgetPassword_UnknownEmail(t *testing.T) {
	app := newResetTestApp(testStore(), stubEmail{})

	status, payload := postJSON(t, app, "/forget/password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, payload["success"])
}

func TestVerifyForgetOTP_FullFlow(t *testing.T) {
	store := testStore()
	app := newResetTestApp(store, stubEmail{})

	status, _ := postJSON(t, app, "/forget/password", map[string]string{"email": "asha@example.com"})
	require.Equal(t, fiber.StatusOK, status)
	code := store.actor.ResetOTP

	status, payload := postJSON(t, app, "/verify/forget/password", map[string]string{
		"email": "asha@example.com",
		"otp":   code,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, payload["success"])

	// The code is single-use.
	status, _ = postJSON(t, app, "/verify/forget/password", map[string]string{
		"email": "asha@example.com",
		"otp":   code,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestVerifyForgetOTP_WrongCode(t *testing.T) {
	store := testStore()
	app := newResetTestApp(store, stubEmail{})

	status, _ := postJSON(t, app, "/forget/password", map[string]string{"email": "asha@example.com"})
	require.Equal(t, fiber.StatusOK, status)

	status, payload := postJSON(t, app, "/verify/forget/password", map[string]string{
		"email": "asha@example.com",
		"otp":   "999999",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid OTP", payload["message"])
}

func TestVerifyForgetOTP_MissingFields(t *testing.T) {
	app := newResetTestApp(testStore(), stubEmail{})

	status, _ := postJSON(t, app, "/verify/forget/password", map[string]string{"email": "asha@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestResetPassword_UpdatesHash(t *testing.T) {
	store := testStore()
	app := newResetTestApp(store, stubEmail{})

	status, payload := postJSON(t, app, "/reset/password", map[string]string{
		"email":        "asha@example.com",
		"new_password": "fresh-password",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, payload["success"])
	assert.NotEmpty(t, store.passwordHash)
	assert.NotEqual(t, "fresh-password", store.passwordHash)
}

func TestResetPassword_TooShort(t *testing.T) {
	app := newResetTestApp(testStore(), stubEmail{})

	status, _ := postJSON(t, app, "/reset/password", map[string]string{
		"email":        "asha@example.com",
		"new_password": "abc",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
