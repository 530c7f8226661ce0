package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/backup"
	"github.com/nuklias/crm/internal/email"
	"github.com/nuklias/crm/internal/handler"
	"github.com/nuklias/crm/internal/middleware"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/store"
)

// Config carries the environment-dependent server settings.
type Config struct {
	// Env is "production" or anything else for development behavior.
	Env string
	// ClientURL is the dashboard origin allowed to make credentialed
	// cross-origin requests.
	ClientURL string
}

type Server struct {
	db           *sql.DB
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	leadH        *handler.LeadHandler
	taskH        *handler.TaskHandler
	backupH      *handler.BackupHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	cfg          Config
	logger       *slog.Logger
}

func New(db *sql.DB, notifier email.Service, backupMgr *backup.Manager, cfg Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	leadStore := store.NewLeadStore(db)
	taskStore := store.NewTaskStore(db)

	authenticator := auth.NewEmailPasswordAuthenticator(userStore)

	cookies := handler.CookieConfig{SameSite: http.SameSiteLaxMode}
	if cfg.Env == "production" {
		cookies = handler.CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode}
	}

	return &Server{
		db:           db,
		authH:        handler.NewAuthHandler(authenticator, sessionStore, cookies, logger.With("component", "auth")),
		userH:        handler.NewUserHandler(userStore, logger.With("component", "users")),
		leadH:        handler.NewLeadHandler(leadStore, notifier, logger.With("component", "leads")),
		taskH:        handler.NewTaskHandler(taskStore, logger.With("component", "tasks")),
		backupH:      handler.NewBackupHandler(backupMgr, logger.With("component", "backup")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		cfg:          cfg,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /api/health", s.healthHandler)
	outerMux.Handle("POST /api/auth/login", s.rateLimitedLogin())

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore, s.logger.With("component", "session"))
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.cfg.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return middleware.RequestLogger(s.logger.With("component", "http"))(c.Handler(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedLogin() http.Handler {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return rl(http.HandlerFunc(s.authH.Login))
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Lead routes: any authenticated principal
	mux.HandleFunc("GET /api/leads", s.leadH.List)
	mux.HandleFunc("POST /api/leads", s.leadH.Create)
	mux.HandleFunc("GET /api/leads/{id}", s.leadH.Get)
	mux.HandleFunc("PUT /api/leads/{id}", s.leadH.Update)
	mux.HandleFunc("DELETE /api/leads/{id}", s.leadH.Delete)

	// Task routes: any authenticated principal
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Admin-only routes. No role hierarchy: the allowed set is explicit.
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	mux.Handle("GET /api/users", adminOnly(http.HandlerFunc(s.userH.List)))
	mux.Handle("POST /api/users", adminOnly(http.HandlerFunc(s.userH.Create)))
	mux.Handle("GET /api/users/{id}", adminOnly(http.HandlerFunc(s.userH.Get)))
	mux.Handle("PUT /api/users/{id}", adminOnly(http.HandlerFunc(s.userH.Update)))
	mux.Handle("DELETE /api/users/{id}", adminOnly(http.HandlerFunc(s.userH.Delete)))

	mux.Handle("GET /api/admin/backup", adminOnly(http.HandlerFunc(s.backupH.Status)))
	mux.Handle("POST /api/admin/backup/run", adminOnly(http.HandlerFunc(s.backupH.Run)))
}
