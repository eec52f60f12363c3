package api

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the authentication endpoints under /api/auth.
func Routes(r chi.Router, h *Handle) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/verify-2fa", h.Verify2FA)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Post("/logout-all", h.LogoutAll)
			r.Post("/setup-2fa", h.Setup2FA)
			r.Post("/enable-2fa", h.Enable2FA)
			r.Post("/disable-2fa", h.Disable2FA)
		})
	})
}
