package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(serverURL string) *TwilioVerifyService {
	svc := NewTwilioVerifyService("ACxxx", "token", "VAxxx", true)
	svc.baseURL = serverURL
	return svc
}

func TestTwilioDispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Services/VAxxx/Verifications", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ACxxx", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+919876543210", r.PostForm.Get("To"))
		assert.Equal(t, "sms", r.PostForm.Get("Channel"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"VE123","status":"pending"}`))
	}))
	defer server.Close()

	svc := newTestTwilio(server.URL)
	sid, err := svc.Dispatch(context.Background(), "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "VE123", sid)
}

func TestTwilioCheckApproved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Services/VAxxx/VerificationCheck", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "123456", r.PostForm.Get("Code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"VE123","status":"approved"}`))
	}))
	defer server.Close()

	svc := newTestTwilio(server.URL)
	approved, err := svc.Check(context.Background(), "+919876543210", "123456")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestTwilioCheckRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"VE123","status":"pending"}`))
	}))
	defer server.Close()

	svc := newTestTwilio(server.URL)
	approved, err := svc.Check(context.Background(), "+919876543210", "999999")
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestTwilioUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid parameter"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	svc := newTestTwilio(server.URL)
	_, err := svc.Dispatch(context.Background(), "not-a-number")
	assert.Error(t, err)
}

func TestTwilioDisabled(t *testing.T) {
	svc := NewTwilioVerifyService("", "", "", false)

	_, err := svc.Dispatch(context.Background(), "+919876543210")
	assert.ErrorIs(t, err, ErrSMSDisabled)

	_, err = svc.Check(context.Background(), "+919876543210", "000000")
	assert.ErrorIs(t, err, ErrSMSDisabled)
}
