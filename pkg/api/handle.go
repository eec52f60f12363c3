package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/tegfinance/authcore/pkg/audit"
	"github.com/tegfinance/authcore/pkg/authflow"
	"github.com/tegfinance/authcore/pkg/errors"
	"github.com/tegfinance/authcore/pkg/reset"
	"github.com/tegfinance/authcore/pkg/session"
	"github.com/tegfinance/authcore/pkg/totp"
)

// Response messages. Credential failures share one message regardless of
// which part of the credential was wrong.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgAccountLocked      = "Account is temporarily locked. Try again later."
	msgInvalidCode        = "Invalid verification code"
	msgResetRequested     = "If the address is registered, a reset link has been sent"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Verify2FARequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type EnableTwoFARequest struct {
	Code string `json:"code"`
}

type accountInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// CookieConfig controls the session cookie the handlers set.
type CookieConfig struct {
	Name     string
	HttpOnly bool
	Secure   bool
}

// Handle exposes the authentication flows over HTTP.
type Handle struct {
	gateway  *authflow.Gateway
	sessions *session.Manager
	resets   *reset.Service
	enroll   *totp.Enrollment
	audits   audit.Recorder
	cookie   CookieConfig
}

func NewHandle(gateway *authflow.Gateway, sessions *session.Manager, resets *reset.Service, enroll *totp.Enrollment, audits audit.Recorder, cookie CookieConfig) *Handle {
	if audits == nil {
		audits = audit.NopRecorder{}
	}
	if cookie.Name == "" {
		cookie.Name = "teg_session"
	}
	return &Handle{
		gateway:  gateway,
		sessions: sessions,
		resets:   resets,
		enroll:   enroll,
		audits:   audits,
		cookie:   cookie,
	}
}

func (h *Handle) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Path:     "/",
		Value:    token,
		MaxAge:   int(h.sessions.Lifetime() / time.Second),
		HttpOnly: h.cookie.HttpOnly,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handle) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Path:     "/",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: h.cookie.HttpOnly,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handle) recordAudit(r *http.Request, accountID uuid.UUID, action string) {
	err := h.audits.Record(r.Context(), audit.Event{
		AccountID: accountID,
		Action:    action,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		slog.Error("failed to record audit event", "action", action, "error", err)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}

// renderServiceError maps a structured service error onto the wire.
func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == errors.ErrCodeInternal {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	renderError(w, r, errors.MapErrorCodeToHTTPStatus(code), errors.Message(err))
}

// Login authenticates a username and password.
// (POST /api/auth/login)
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	data := LoginRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	params := authflow.AuthenticateParams{}
	copier.Copy(&params, data)
	params.IPAddress = clientIP(r)
	params.UserAgent = r.UserAgent()

	res, err := h.gateway.Authenticate(r.Context(), params)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	switch res.Status {
	case authflow.StatusLocked:
		renderError(w, r, http.StatusUnauthorized, msgAccountLocked)

	case authflow.StatusTwoFactorRequired:
		render.JSON(w, r, map[string]any{
			"requires_2fa": true,
			"user_id":      res.Account.ID,
		})

	case authflow.StatusAuthenticated:
		h.establishSession(w, r, res, audit.ActionLogin)

	default:
		renderError(w, r, http.StatusUnauthorized, msgInvalidCredentials)
	}
}

// Verify2FA completes a login that is waiting on a one-time code.
// (POST /api/auth/verify-2fa)
func (h *Handle) Verify2FA(w http.ResponseWriter, r *http.Request) {
	data := Verify2FARequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	accountID, err := uuid.Parse(data.UserID)
	if err != nil {
		renderError(w, r, http.StatusUnauthorized, msgInvalidCode)
		return
	}

	res, err := h.gateway.CompleteSecondFactor(r.Context(), accountID, data.Code)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	if res.Status != authflow.StatusAuthenticated {
		renderError(w, r, http.StatusUnauthorized, msgInvalidCode)
		return
	}

	h.establishSession(w, r, res, audit.ActionLogin2FA)
}

func (h *Handle) establishSession(w http.ResponseWriter, r *http.Request, res authflow.Result, action string) {
	s, err := h.sessions.Issue(r.Context(), res.Account.ID, clientIP(r), r.UserAgent())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, s.Token)
	h.recordAudit(r, res.Account.ID, action)

	info := accountInfo{}
	copier.Copy(&info, res.Account)
	render.JSON(w, r, map[string]any{
		"success": true,
		"user":    info,
	})
}

// Logout ends the current session.
// (POST /api/auth/logout)
func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		if s, err := h.sessions.Resolve(r.Context(), cookie.Value); err == nil {
			h.recordAudit(r, s.AccountID, audit.ActionLogout)
		}
		if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			renderServiceError(w, r, err)
			return
		}
	}

	h.clearSessionCookie(w)
	render.JSON(w, r, map[string]any{"success": true})
}

// LogoutAll ends every session of the authenticated account.
// (POST /api/auth/logout-all)
func (h *Handle) LogoutAll(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())

	n, err := h.sessions.RevokeAll(r.Context(), s.AccountID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	h.recordAudit(r, s.AccountID, audit.ActionLogout)
	h.clearSessionCookie(w)
	render.JSON(w, r, map[string]any{
		"success":          true,
		"sessions_revoked": n,
	})
}

// ForgotPassword starts a password reset. The response is identical
// whether or not the address is registered.
// (POST /api/auth/forgot-password)
func (h *Handle) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	if err := h.resets.Request(r.Context(), data.Email); err != nil {
		// Still answer success; a storage fault must not distinguish
		// registered addresses from unknown ones.
		slog.Error("password reset request failed", "error", err)
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"message": msgResetRequested,
	})
}

// ResetPassword redeems a reset token for a new password.
// (POST /api/auth/reset-password)
func (h *Handle) ResetPassword(w http.ResponseWriter, r *http.Request) {
	data := ResetPasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	acct, err := h.resets.Redeem(r.Context(), data.Token, data.NewPassword)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	h.recordAudit(r, acct.ID, audit.ActionPasswordReset)
	render.JSON(w, r, map[string]any{"success": true})
}

// Setup2FA provisions a pending second-factor secret for the
// authenticated account.
// (POST /api/auth/setup-2fa)
func (h *Handle) Setup2FA(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())

	secret, uri, err := h.enroll.Setup(r.Context(), s.AccountID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	qr, err := totp.RenderQR(uri)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"secret":           secret,
		"provisioning_uri": uri,
		"qr_code":          qr,
	})
}

// Enable2FA activates the pending secret once a code verifies.
// (POST /api/auth/enable-2fa)
func (h *Handle) Enable2FA(w http.ResponseWriter, r *http.Request) {
	data := EnableTwoFARequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	s := SessionFromContext(r.Context())
	if err := h.enroll.Enable(r.Context(), s.AccountID, data.Code, time.Now()); err != nil {
		renderServiceError(w, r, err)
		return
	}

	h.recordAudit(r, s.AccountID, audit.Action2FAEnabled)
	render.JSON(w, r, map[string]any{"success": true})
}

// Disable2FA removes the second factor from the authenticated account.
// (POST /api/auth/disable-2fa)
func (h *Handle) Disable2FA(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())

	if err := h.enroll.Disable(r.Context(), s.AccountID); err != nil {
		renderServiceError(w, r, err)
		return
	}

	h.recordAudit(r, s.AccountID, audit.Action2FADisabled)
	render.JSON(w, r, map[string]any{"success": true})
}
