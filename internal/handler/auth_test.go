package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/database"
	"github.com/nuklias/crm/internal/middleware"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/password"
	"github.com/nuklias/crm/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.UserStore, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	ss := store.NewSessionStore(db)
	a := auth.NewEmailPasswordAuthenticator(us)
	h := NewAuthHandler(a, ss, CookieConfig{SameSite: http.SameSiteLaxMode}, discardLogger())
	return h, us, ss
}

func createHandlerUser(t *testing.T, us *store.UserStore, email, plaintext string, role model.Role) *model.User {
	t.Helper()
	hash, err := password.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := us.Create(store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	h, us, ss := setupAuthHandler(t)
	u := createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleMember)

	body := `{"email":"alice@example.com","password":"Sup3rSecret"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.MaxAge != int(store.SessionTTL.Seconds()) {
		t.Errorf("cookie max-age = %d, want %d", cookie.MaxAge, int(store.SessionTTL.Seconds()))
	}

	sess, err := ss.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("expected persisted session for cookie token, err %v", err)
	}
	if sess.UserID != u.ID {
		t.Errorf("session user = %q, want %q", sess.UserID, u.ID)
	}

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Message != "Login successful" {
		t.Errorf("message = %q", resp.Message)
	}
	if strings.Contains(string(resp.Data), "password") {
		t.Error("response data must not carry password material")
	}
}

func TestLoginRememberMe(t *testing.T) {
	h, us, _ := setupAuthHandler(t)
	createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleMember)

	body := `{"email":"alice@example.com","password":"Sup3rSecret","rememberMe":true}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if cookie.MaxAge != int(store.ExtendedSessionTTL.Seconds()) {
		t.Errorf("cookie max-age = %d, want %d", cookie.MaxAge, int(store.ExtendedSessionTTL.Seconds()))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, us, _ := setupAuthHandler(t)
	createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleMember)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"Sup3rSecret"}`,
	} {
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		var resp errorEnvelope
		json.Unmarshal(rec.Body.Bytes(), &resp)
		// Same message for unknown email and wrong password.
		if resp.Message != "Invalid email or password" {
			t.Errorf("message = %q, want generic credential error", resp.Message)
		}
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	h, us, _ := setupAuthHandler(t)
	u := createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleMember)
	inactive := false
	us.Update(u.ID, store.UpdateUserParams{IsActive: &inactive})

	body := `{"email":"alice@example.com","password":"Sup3rSecret"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var resp errorEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Account is deactivated" {
		t.Errorf("message = %q, want deactivation message", resp.Message)
	}
}

func TestLoginValidation(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	body := `{"email":"not-an-email","password":""}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "Validation error" {
		t.Errorf("error = %q", resp.Error)
	}
	if _, ok := resp.Details["email"]; !ok {
		t.Error("expected email detail")
	}
	if _, ok := resp.Details["password"]; !ok {
		t.Error("expected password detail")
	}
}

func TestLogout(t *testing.T) {
	h, us, ss := setupAuthHandler(t)
	u := createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleMember)
	sess, _ := ss.Create(u.ID, false)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got, _ := ss.GetByToken(sess.Token); got != nil {
		t.Error("expected session destroyed on logout")
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected cookie cleared with negative max-age")
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h, us, _ := setupAuthHandler(t)
	u := createHandlerUser(t, us, "alice@example.com", "Sup3rSecret", model.RoleAdmin)
	u.PasswordHash = ""

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), u))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data model.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != u.ID {
		t.Errorf("id = %q, want %q", resp.Data.ID, u.ID)
	}
	if resp.Data.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", resp.Data.Role)
	}
}

func TestMeUnauthenticated(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
