package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/store"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "crm_session"

// RequireAuth validates the session cookie and attaches the resolved
// principal to the request context. The owning user is re-checked on every
// request: a session referencing a soft-deleted or deactivated user is
// invalid even before it expires. Store failures are 500, never treated as
// unauthenticated.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in")
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil {
				logger.Error("session lookup", "error", err)
				writeAuthError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}
			if sess == nil {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in")
				return
			}

			u, err := users.GetByID(sess.UserID)
			if err != nil {
				logger.Error("session user lookup", "error", err)
				writeAuthError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}
			if u == nil || !u.IsActive {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in")
				return
			}

			u.PasswordHash = ""
			ctx := auth.WithPrincipal(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals whose role is not in the allowed set.
// There is no role hierarchy: admin-only routes must list RoleAdmin
// explicitly. Composes after RequireAuth.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in")
				return
			}
			if !slices.Contains(roles, u.Role) {
				writeAuthError(w, http.StatusForbidden, "Forbidden", "You do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": errMsg}
	if message != "" {
		body["message"] = message
	}
	json.NewEncoder(w).Encode(body)
}
