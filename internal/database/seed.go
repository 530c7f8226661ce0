package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nuklias/crm/internal/password"
)

// Seed creates the initial admin and a test member account. It is a no-op
// when any user already exists, so it is safe to run on every start.
func Seed(db *sql.DB, logger *slog.Logger) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logger.Info("seed skipped, users already exist", "count", count)
		return nil
	}

	seedUsers := []struct {
		email, plaintext, firstName, lastName, role string
	}{
		{"admin@nuklias.com", "Admin123!", "Admin", "User", "admin"},
		{"member@nuklias.com", "Member123!", "Test", "Member", "member"},
	}

	now := time.Now().UTC()
	for _, u := range seedUsers {
		hash, err := password.Hash(u.plaintext)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		_, err = db.Exec(
			`INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			uuid.NewString(), u.email, hash, u.firstName, u.lastName, u.role, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert seed user %s: %w", u.email, err)
		}
		logger.Info("seeded user", "email", u.email, "role", u.role)
	}

	logger.Warn("default seed passwords in use, change them after first login")
	return nil
}
