package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeActorStore keeps a single actor in memory and records mutations.
type fakeActorStore struct {
	actor           *Actor
	passwordHash    string
	markVerifiedErr error
}

func newFakeActorStore(actor *Actor) *fakeActorStore {
	return &fakeActorStore{actor: actor}
}

func (s *fakeActorStore) ByEmail(ctx context.Context, email string) (*Actor, error) {
	if s.actor == nil || s.actor.Email != email {
		return nil, ErrActorNotFound
	}
	copy := *s.actor
	return &copy, nil
}

func (s *fakeActorStore) ByMobile(ctx context.Context, mobileNo string) (*Actor, error) {
	if s.actor == nil || s.actor.MobileNo != mobileNo {
		return nil, ErrActorNotFound
	}
	copy := *s.actor
	return &copy, nil
}

func (s *fakeActorStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	if s.markVerifiedErr != nil {
		return s.markVerifiedErr
	}
	s.actor.Verified = true
	return nil
}

func (s *fakeActorStore) SetResetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	s.actor.ResetOTP = code
	t := expiresAt
	s.actor.ResetOTPExpiresAt = &t
	return nil
}

func (s *fakeActorStore) ClearResetOTP(ctx context.Context, id uuid.UUID) error {
	s.actor.ResetOTP = ""
	s.actor.ResetOTPExpiresAt = nil
	return nil
}

func (s *fakeActorStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.passwordHash = passwordHash
	return nil
}

// fakeSMS scripts the provider's dispatch and check behavior.
type fakeSMS struct {
	dispatchSID string
	dispatchErr error
	checkOK     bool
	checkErr    error
	checkCalls  int
}

func (f *fakeSMS) Dispatch(ctx context.Context, mobileNo string) (string, error) {
	if f.dispatchErr != nil {
		return "", f.dispatchErr
	}
	return f.dispatchSID, nil
}

func (f *fakeSMS) Check(ctx context.Context, mobileNo, code string) (bool, error) {
	f.checkCalls++
	return f.checkOK, f.checkErr
}

// fakeEmail records sends and optionally fails.
type fakeEmail struct {
	sendErr  error
	sent     int
	lastTo   string
	lastHTML string
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, html string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent++
	f.lastTo = to
	f.lastHTML = html
	return nil
}

func testActor() *Actor {
	return &Actor{
		ID:       uuid.New(),
		Name:     "Asha",
		Email:    "asha@example.com",
		MobileNo: "+919876543210",
	}
}

func newTestManager(store *fakeActorStore, sms *fakeSMS, email *fakeEmail, at time.Time) (*Manager, *MemoryStore) {
	cache := NewMemoryStore()
	cache.now = func() time.Time { return at }
	m := NewManager(store, sms, email, cache, "000000", 10*time.Minute, "user")
	m.now = func() time.Time { return at }
	return m, cache
}

func TestVerifyRegistrationCode_ProviderApproves(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{checkOK: true}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	result, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "123456")
	require.NoError(t, err)
	assert.True(t, result.Actor.Verified)
	assert.False(t, result.AlreadyVerified)
	assert.False(t, result.ViaFallback)
	assert.True(t, store.actor.Verified)
}

func TestVerifyRegistrationCode_ProviderRejects(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{checkOK: false}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	_, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "111111")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, store.actor.Verified)
}

func TestVerifyRegistrationCode_FallbackWhenProviderDown(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{checkErr: errors.New("provider unreachable")}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	result, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "000000")
	require.NoError(t, err)
	assert.True(t, result.ViaFallback)
	assert.True(t, store.actor.Verified)
}

func TestVerifyRegistrationCode_FallbackRejectsWrongCode(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{checkErr: errors.New("provider unreachable")}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	_, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "999999")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, store.actor.Verified)
}

func TestVerifyRegistrationCode_FallbackDisabled(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{checkErr: errors.New("provider unreachable")}
	cache := NewMemoryStore()
	m := NewManager(store, sms, &fakeEmail{}, cache, "", 10*time.Minute, "user")

	_, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyRegistrationCode_AlreadyVerifiedShortCircuits(t *testing.T) {
	actor := testActor()
	actor.Verified = true
	store := newFakeActorStore(actor)
	sms := &fakeSMS{}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	result, err := m.VerifyRegistrationCode(context.Background(), "+919876543210", "garbage")
	require.NoError(t, err)
	assert.True(t, result.AlreadyVerified)
	assert.Equal(t, 0, sms.checkCalls, "provider must not be consulted for a verified actor")
}

func TestVerifyRegistrationCode_UnknownMobile(t *testing.T) {
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, time.Now())

	_, err := m.VerifyRegistrationCode(context.Background(), "+910000000000", "000000")
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestIssueResetCode_PersistsAndEmails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeActorStore(testActor())
	email := &fakeEmail{}
	m, _ := newTestManager(store, &fakeSMS{}, email, now)

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), issue.Code)
	assert.Equal(t, now.Add(10*time.Minute), issue.ExpiresAt)
	assert.True(t, issue.EmailSent)
	assert.Equal(t, issue.Code, store.actor.ResetOTP)
	require.NotNil(t, store.actor.ResetOTPExpiresAt)
	assert.Equal(t, issue.ExpiresAt, *store.actor.ResetOTPExpiresAt)
	assert.Equal(t, 1, email.sent)
	assert.Contains(t, email.lastHTML, issue.Code)
}

func TestIssueResetCode_EmailFailureIsNonFatal(t *testing.T) {
	store := newFakeActorStore(testActor())
	email := &fakeEmail{sendErr: errors.New("smtp down")}
	m, _ := newTestManager(store, &fakeSMS{}, email, time.Now())

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.False(t, issue.EmailSent)
	assert.Equal(t, issue.Code, store.actor.ResetOTP, "code stays usable even when delivery failed")
}

func TestIssueResetCode_UnknownEmail(t *testing.T) {
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, time.Now())

	_, err := m.IssueResetCode(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestVerifyResetCode_ApprovesOnceThenInvalid(t *testing.T) {
	now := time.Now()
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, now)

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	outcome, err := m.VerifyResetCode(context.Background(), "asha@example.com", issue.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)

	// Same code again: both stores were cleared on success.
	outcome, err = m.VerifyResetCode(context.Background(), "asha@example.com", issue.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, outcome)
}

func TestVerifyResetCode_MismatchOnLiveCodeIsInvalid(t *testing.T) {
	now := time.Now()
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, now)

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	outcome, err := m.VerifyResetCode(context.Background(), "asha@example.com", "999999")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Equal(t, issue.Code, store.actor.ResetOTP, "a failed attempt must not consume the code")
}

func TestVerifyResetCode_ExpiredCode(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeActorStore(testActor())
	email := &fakeEmail{}

	cache := NewMemoryStore()
	clock := start
	cache.now = func() time.Time { return clock }
	m := NewManager(store, &fakeSMS{}, email, cache, "000000", 10*time.Minute, "user")
	m.now = func() time.Time { return clock }

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	// Advance past the TTL: both the persisted record and the cache entry
	// are stale now.
	clock = start.Add(11 * time.Minute)

	outcome, err := m.VerifyResetCode(context.Background(), "asha@example.com", issue.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, outcome)
}

func TestVerifyResetCode_NoPendingCode(t *testing.T) {
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, time.Now())

	outcome, err := m.VerifyResetCode(context.Background(), "asha@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, outcome)
}

func TestVerifyResetCode_CacheCoversMissingPersistedRecord(t *testing.T) {
	now := time.Now()
	store := newFakeActorStore(testActor())
	m, cache := newTestManager(store, &fakeSMS{}, &fakeEmail{}, now)

	issue, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	// Simulate the persisted write being lost; the cache copy still verifies.
	store.actor.ResetOTP = ""
	store.actor.ResetOTPExpiresAt = nil

	outcome, err := m.VerifyResetCode(context.Background(), "asha@example.com", issue.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)

	_, ok, err := cache.Get(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "cache entry consumed on success")
}

func TestResetPassword_UpdatesHashAndClearsState(t *testing.T) {
	now := time.Now()
	store := newFakeActorStore(testActor())
	m, cache := newTestManager(store, &fakeSMS{}, &fakeEmail{}, now)

	_, err := m.IssueResetCode(context.Background(), "asha@example.com")
	require.NoError(t, err)

	err = m.ResetPassword(context.Background(), "asha@example.com", "new-password-123")
	require.NoError(t, err)

	assert.NotEmpty(t, store.passwordHash)
	assert.NotEqual(t, "new-password-123", store.passwordHash, "password must be stored hashed")
	assert.Empty(t, store.actor.ResetOTP)

	_, ok, err := cache.Get(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	store := newFakeActorStore(testActor())
	m, _ := newTestManager(store, &fakeSMS{}, &fakeEmail{}, time.Now())

	err := m.ResetPassword(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestGenerateCode_SixDigitsWithLeadingZeros(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestIssueRegistrationCode_DispatchFailure(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{dispatchErr: errors.New("twilio 500")}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	_, err := m.IssueRegistrationCode(context.Background(), "+919876543210")
	assert.Error(t, err)
}

func TestIssueRegistrationCode_ReturnsProviderSID(t *testing.T) {
	store := newFakeActorStore(testActor())
	sms := &fakeSMS{dispatchSID: "VE123"}
	m, _ := newTestManager(store, sms, &fakeEmail{}, time.Now())

	sid, err := m.IssueRegistrationCode(context.Background(), "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "VE123", sid)
}
