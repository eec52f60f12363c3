package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	gototp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/audit"
	"github.com/tegfinance/authcore/pkg/authflow"
	"github.com/tegfinance/authcore/pkg/lockout"
	"github.com/tegfinance/authcore/pkg/password"
	"github.com/tegfinance/authcore/pkg/reset"
	"github.com/tegfinance/authcore/pkg/session"
	"github.com/tegfinance/authcore/pkg/totp"
)

const bcryptTestCost = 4

type apiFixture struct {
	router   *chi.Mux
	accounts *account.InMemoryRepository
	audits   *audit.InMemoryRecorder
	notifier *captureNotifier
	acct     account.Account
}

type captureNotifier struct {
	token string
}

func (n *captureNotifier) SendResetToken(ctx context.Context, email, token string) error {
	n.token = token
	return nil
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	accounts := account.NewInMemoryRepository()
	hasher := password.NewBcryptHasher(bcryptTestCost)

	hash, err := hasher.Hash("correct-password")
	require.NoError(t, err)
	acct, err := accounts.Create(context.Background(), account.CreateAccountParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	active := func(id uuid.UUID) bool {
		a, err := accounts.GetByID(context.Background(), id)
		return err == nil && a.IsActive
	}
	sessions := session.NewManager(session.NewInMemoryRepository(active), time.Hour)
	codes := totp.NewService("", 0, totp.DefaultSkew)
	gateway := authflow.NewGateway(accounts, hasher, lockout.DefaultPolicy(), codes)
	notifier := &captureNotifier{}
	resets := reset.NewService(accounts, sessions, hasher, password.DefaultPolicy(), time.Hour, notifier)
	enroll := totp.NewEnrollment(accounts, codes)
	audits := audit.NewInMemoryRecorder()

	h := NewHandle(gateway, sessions, resets, enroll, audits, CookieConfig{
		Name:     "teg_session",
		HttpOnly: true,
	})

	router := chi.NewRouter()
	Routes(router, h)

	return &apiFixture{router: router, accounts: accounts, audits: audits, notifier: notifier, acct: acct}
}

func (f *apiFixture) post(t *testing.T, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "authcore-test/1.0")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "teg_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (f *apiFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "correct-password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return sessionCookie(t, rec)
}

func testCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := gototp.GenerateCodeCustom(secret, time.Now(), gototp.ValidateOpts{
		Period:    totp.DefaultPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("valid credentials set a session cookie", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "correct-password"}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		c := sessionCookie(t, rec)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])

		assert.Equal(t, []string{audit.ActionLogin}, f.audits.EventsFor(f.acct.ID))
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		f := newAPIFixture(t)
		wrongPw := f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "nope"}, nil)
		unknown := f.post(t, "/api/auth/login", LoginRequest{Username: "nobody", Password: "nope"}, nil)

		assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())
	})

	t.Run("lockout after repeated failures", func(t *testing.T) {
		f := newAPIFixture(t)
		var rec *httptest.ResponseRecorder
		for i := 0; i < 5; i++ {
			rec = f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "nope"}, nil)
		}
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, msgAccountLocked, decodeBody(t, rec)["error"])

		rec = f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "correct-password"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, msgAccountLocked, decodeBody(t, rec)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newAPIFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTwoFactorLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	secret := "JBSWY3DPEHPK3PXP"
	require.NoError(t, f.accounts.UpdateTOTP(context.Background(), f.acct.ID, &secret, true))

	rec := f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "correct-password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requires_2fa"])
	userID := body["user_id"].(string)
	assert.Empty(t, rec.Result().Cookies(), "no session before the second factor")

	t.Run("wrong code", func(t *testing.T) {
		rec := f.post(t, "/api/auth/verify-2fa", Verify2FARequest{UserID: userID, Code: "000000"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage user id", func(t *testing.T) {
		rec := f.post(t, "/api/auth/verify-2fa", Verify2FARequest{UserID: "not-a-uuid", Code: "000000"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid code establishes the session", func(t *testing.T) {
		rec := f.post(t, "/api/auth/verify-2fa", Verify2FARequest{UserID: userID, Code: testCode(t, secret)}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		sessionCookie(t, rec)
		assert.Contains(t, f.audits.EventsFor(f.acct.ID), audit.ActionLogin2FA)
	})
}

func TestLogoutEndpoints(t *testing.T) {
	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		f := newAPIFixture(t)
		c := f.login(t)

		rec := f.post(t, "/api/auth/logout", struct{}{}, c)
		require.Equal(t, http.StatusOK, rec.Code)

		cleared := rec.Result().Cookies()
		require.NotEmpty(t, cleared)
		assert.Empty(t, cleared[0].Value)

		rec = f.post(t, "/api/auth/logout-all", struct{}{}, c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked session must not authenticate")
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.post(t, "/api/auth/logout", struct{}{}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout-all revokes every session", func(t *testing.T) {
		f := newAPIFixture(t)
		first := f.login(t)
		second := f.login(t)

		rec := f.post(t, "/api/auth/logout-all", struct{}{}, first)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(2), decodeBody(t, rec)["sessions_revoked"])

		rec = f.post(t, "/api/auth/logout-all", struct{}{}, second)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout-all requires authentication", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.post(t, "/api/auth/logout-all", struct{}{}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	t.Run("forgot-password answers identically for any address", func(t *testing.T) {
		f := newAPIFixture(t)
		known := f.post(t, "/api/auth/forgot-password", ForgotPasswordRequest{Email: "alice@example.com"}, nil)
		unknown := f.post(t, "/api/auth/forgot-password", ForgotPasswordRequest{Email: "ghost@example.com"}, nil)

		assert.Equal(t, http.StatusOK, known.Code)
		assert.Equal(t, http.StatusOK, unknown.Code)
		assert.JSONEq(t, known.Body.String(), unknown.Body.String())
	})

	t.Run("reset-password roundtrip", func(t *testing.T) {
		f := newAPIFixture(t)
		existing := f.login(t)

		rec := f.post(t, "/api/auth/forgot-password", ForgotPasswordRequest{Email: "alice@example.com"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, f.notifier.token)

		rec = f.post(t, "/api/auth/reset-password", ResetPasswordRequest{Token: f.notifier.token, NewPassword: "brand-new-password"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, f.audits.EventsFor(f.acct.ID), audit.ActionPasswordReset)

		rec = f.post(t, "/api/auth/logout-all", struct{}{}, existing)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "reset must end existing sessions")

		rec = f.post(t, "/api/auth/login", LoginRequest{Username: "alice", Password: "brand-new-password"}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("short replacement password", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.post(t, "/api/auth/reset-password", ResetPasswordRequest{Token: "whatever", NewPassword: "short"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.post(t, "/api/auth/reset-password", ResetPasswordRequest{Token: "bogus", NewPassword: "brand-new-password"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTwoFactorManagementEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	c := f.login(t)

	rec := f.post(t, "/api/auth/setup-2fa", struct{}{}, c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	secret := body["secret"].(string)
	assert.NotEmpty(t, secret)
	assert.Contains(t, body["provisioning_uri"], "otpauth://totp/")
	assert.Contains(t, body["qr_code"], "data:image/png;base64,")

	t.Run("enable with a wrong code", func(t *testing.T) {
		rec := f.post(t, "/api/auth/enable-2fa", EnableTwoFARequest{Code: "000000"}, c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("enable with a valid code", func(t *testing.T) {
		rec := f.post(t, "/api/auth/enable-2fa", EnableTwoFARequest{Code: testCode(t, secret)}, c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, f.audits.EventsFor(f.acct.ID), audit.Action2FAEnabled)

		stored, err := f.accounts.GetByID(context.Background(), f.acct.ID)
		require.NoError(t, err)
		assert.True(t, stored.TOTPEnabled)
	})

	t.Run("disable clears the second factor", func(t *testing.T) {
		rec := f.post(t, "/api/auth/disable-2fa", struct{}{}, c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, f.audits.EventsFor(f.acct.ID), audit.Action2FADisabled)

		stored, err := f.accounts.GetByID(context.Background(), f.acct.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.TOTPSecret)
		assert.False(t, stored.TOTPEnabled)
	})

	t.Run("management endpoints require authentication", func(t *testing.T) {
		rec := f.post(t, "/api/auth/setup-2fa", struct{}{}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
