package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nuklias/crm/internal/backup"
	"github.com/nuklias/crm/internal/database"
	"github.com/nuklias/crm/internal/email"
	"github.com/nuklias/crm/internal/logging"
	"github.com/nuklias/crm/internal/server"
)

func main() {
	seed := flag.Bool("seed", false, "seed the initial admin and member accounts, then continue serving")
	flag.Parse()

	env := envOr("CRM_ENV", "development")
	logger := logging.Setup(os.Getenv("CRM_LOG_LEVEL"), env)

	port := envOr("CRM_PORT", "3000")
	dbPath := envOr("CRM_DB_PATH", "crm.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *seed {
		if err := database.Seed(db, logger.With("component", "seed")); err != nil {
			logger.Error("seed database", "error", err)
			os.Exit(1)
		}
	}

	var notifier email.Service
	if svc, err := email.NewService(email.Config{
		APIKey:    os.Getenv("RESEND_API_KEY"),
		FromEmail: os.Getenv("CRM_NOTIFY_FROM"),
		NotifyTo:  os.Getenv("CRM_NOTIFY_TO"),
	}); err == nil {
		notifier = svc
	} else {
		logger.Info("lead notifications disabled", "reason", err)
	}

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CRM_S3_ENDPOINT"),
			Bucket:    os.Getenv("CRM_S3_BUCKET"),
			Region:    envOr("CRM_S3_REGION", "auto"),
			AccessKey: os.Getenv("CRM_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CRM_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		ScheduleHour:  envInt("CRM_BACKUP_HOUR", 3),
		RetentionDays: envInt("CRM_BACKUP_RETENTION_DAYS", 30),
	}, db, logger.With("component", "backup"))

	srv := server.New(db, notifier, backupMgr, server.Config{
		Env:       env,
		ClientURL: envOr("CRM_CLIENT_URL", "http://localhost:5000"),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	// Periodic sweeps for expired sessions and stale rate-limit entries.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session sweep", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", port, "env", env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
