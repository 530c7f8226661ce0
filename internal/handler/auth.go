package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/middleware"
	"github.com/nuklias/crm/internal/store"
	"github.com/nuklias/crm/internal/validate"
)

// CookieConfig controls how the session cookie is issued. In production the
// cookie is Secure and SameSite=None so the dashboard can run cross-origin;
// in development it stays Lax over plain HTTP.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	authenticator auth.Authenticator
	sessions      *store.SessionStore
	cookies       CookieConfig
	logger        *slog.Logger
}

func NewAuthHandler(a auth.Authenticator, ss *store.SessionStore, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authenticator: a, sessions: ss, cookies: cookies, logger: logger}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if !validate.Email(req.Email) {
		fields.Add("email", "Invalid email address")
	}
	if req.Password == "" {
		fields.Add("password", "Password is required")
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountDeactivated):
			respondError(w, http.StatusUnauthorized, "Authentication failed", "Account is deactivated")
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Authentication failed", "Invalid email or password")
		default:
			h.logger.Error("authenticate", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error", "")
		}
		return
	}

	sess, err := h.sessions.Create(principal.ID, req.RememberMe)
	if err != nil {
		h.logger.Error("create session", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create session", "")
		return
	}

	ttl := store.SessionTTL
	if req.RememberMe {
		ttl = store.ExtendedSessionTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})

	respondData(w, http.StatusOK, principal, "Login successful")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("destroy session", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to logout", "")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})

	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Message: "Logout successful"})
}

// Me returns the current principal. The route sits behind RequireAuth, so
// reaching here means the session already validated.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}
	respondData(w, http.StatusOK, principal, "")
}
