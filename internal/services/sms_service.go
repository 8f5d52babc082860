package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioVerifyService talks to the Twilio Verify v2 REST API. It implements
// the otp.SMSChannel interface.
type TwilioVerifyService struct {
	accountSID string
	authToken  string
	verifySID  string
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

// NewTwilioVerifyService constructs a Twilio Verify client. When enabled is
// false every call fails fast so the fallback code path can take over.
func NewTwilioVerifyService(accountSID, authToken, verifySID string, enabled bool) *TwilioVerifyService {
	return &TwilioVerifyService{
		accountSID: accountSID,
		authToken:  authToken,
		verifySID:  verifySID,
		enabled:    enabled,
		baseURL:    "https://verify.twilio.com/v2",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ErrSMSDisabled is returned when the provider integration is switched off.
var ErrSMSDisabled = errors.New("sms provider is disabled")

type verificationResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Dispatch asks Twilio to send a verification code to mobileNo and returns
// the verification SID.
func (s *TwilioVerifyService) Dispatch(ctx context.Context, mobileNo string) (string, error) {
	if !s.enabled {
		return "", ErrSMSDisabled
	}

	form := url.Values{}
	form.Set("To", mobileNo)
	form.Set("Channel", "sms")

	body, err := s.post(ctx, fmt.Sprintf("%s/Services/%s/Verifications", s.baseURL, s.verifySID), form)
	if err != nil {
		return "", err
	}

	var result verificationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("twilio dispatch unmarshal: %w", err)
	}
	if result.SID == "" {
		return "", errors.New("twilio dispatch: empty verification sid")
	}
	return result.SID, nil
}

// Check submits a code for verification and reports whether Twilio approved it.
func (s *TwilioVerifyService) Check(ctx context.Context, mobileNo, code string) (bool, error) {
	if !s.enabled {
		return false, ErrSMSDisabled
	}

	form := url.Values{}
	form.Set("To", mobileNo)
	form.Set("Code", code)

	body, err := s.post(ctx, fmt.Sprintf("%s/Services/%s/VerificationCheck", s.baseURL, s.verifySID), form)
	if err != nil {
		return false, err
	}

	var result verificationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("twilio check unmarshal: %w", err)
	}
	return result.Status == "approved", nil
}

func (s *TwilioVerifyService) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("twilio: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
