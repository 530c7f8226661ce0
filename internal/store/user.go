package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nuklias/crm/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already taken
// by a row, including a soft-deleted one.
var ErrDuplicateEmail = errors.New("email already exists")

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Avatar, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, password_hash, first_name, last_name, role, avatar, is_active, created_at, updated_at, deleted_at`

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         model.Role
}

func (s *UserStore) Create(p CreateUserParams) (*model.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Role, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the user, or nil if missing or soft-deleted.
func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the user including its password hash; the caller is the
// authentication strategy, which strips the hash before handing the principal
// on. Soft-deleted rows are invisible.
func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ? AND deleted_at IS NULL`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateUserParams carries the partial update set; nil fields are untouched.
// Email is immutable after creation and deliberately absent.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Role      *model.Role
	IsActive  *bool
	Avatar    *string
}

func (s *UserStore) Update(id string, p UpdateUserParams) (*model.User, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if p.FirstName != nil {
		set = append(set, "first_name = ?")
		args = append(args, *p.FirstName)
	}
	if p.LastName != nil {
		set = append(set, "last_name = ?")
		args = append(args, *p.LastName)
	}
	if p.Role != nil {
		set = append(set, "role = ?")
		args = append(args, *p.Role)
	}
	if p.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *p.IsActive)
	}
	if p.Avatar != nil {
		set = append(set, "avatar = ?")
		args = append(args, *p.Avatar)
	}

	args = append(args, id)
	result, err := s.db.Exec(
		`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = ? AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// SoftDelete marks the user deleted and forces is_active off. Returns false
// if the row was missing or already soft-deleted.
func (s *UserStore) SoftDelete(id string) (bool, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE users SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns non-deleted users ordered newest first, plus the total count.
func (s *UserStore) List(limit, offset int) ([]model.User, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}
