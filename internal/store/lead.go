package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nuklias/crm/internal/model"
)

type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

func scanLead(scanner interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	err := scanner.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Location, &l.Industry,
		&l.BusinessType, &l.Challenge, &l.Message, &l.Status, &l.Priority,
		&l.AssignedTo, &l.EstimatedValue, &l.Source,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const leadCols = `id, name, email, phone, location, industry, business_type, challenge, message, status, priority, assigned_to, estimated_value, source, created_at, updated_at, deleted_at`

// LeadFilters compose conjunctively onto the mandatory soft-delete
// exclusion. Zero-value fields are skipped.
type LeadFilters struct {
	Status     []string
	Priority   []string
	AssignedTo string
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time
}

func (f LeadFilters) where() (string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any

	if len(f.Status) > 0 {
		conditions = append(conditions, `status IN (`+placeholders(len(f.Status))+`)`)
		for _, s := range f.Status {
			args = append(args, s)
		}
	}
	if len(f.Priority) > 0 {
		conditions = append(conditions, `priority IN (`+placeholders(len(f.Priority))+`)`)
		for _, p := range f.Priority {
			args = append(args, p)
		}
	}
	if f.AssignedTo != "" {
		conditions = append(conditions, `assigned_to = ?`)
		args = append(args, f.AssignedTo)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		conditions = append(conditions, `(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	if f.StartDate != nil {
		conditions = append(conditions, `created_at >= ?`)
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conditions = append(conditions, `created_at <= ?`)
		args = append(args, f.EndDate.UTC())
	}

	return strings.Join(conditions, " AND "), args
}

// List returns non-deleted leads matching the filters, newest first, plus
// the total match count for pagination.
func (s *LeadStore) List(f LeadFilters, limit, offset int) ([]model.Lead, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := s.db.Query(
		`SELECT `+leadCols+` FROM leads WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, total, nil
}

// GetByID returns the lead, or nil if missing or soft-deleted.
func (s *LeadStore) GetByID(id string) (*model.Lead, error) {
	row := s.db.QueryRow(`SELECT `+leadCols+` FROM leads WHERE id = ? AND deleted_at IS NULL`, id)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

type CreateLeadParams struct {
	Name           string
	Email          string
	Phone          *string
	Location       string
	Industry       string
	BusinessType   string
	Challenge      string
	Message        string
	Status         model.LeadStatus
	Priority       model.Priority
	AssignedTo     *string
	EstimatedValue *int64
	Source         model.LeadSource
}

// Create inserts a lead. Empty status, priority, and source fall back to
// their enum defaults; timestamps are set here, never taken from input.
func (s *LeadStore) Create(p CreateLeadParams) (*model.Lead, error) {
	if p.Status == "" {
		p.Status = model.LeadStatusNew
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	if p.Source == "" {
		p.Source = model.LeadSourceManual
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO leads (id, name, email, phone, location, industry, business_type, challenge, message,
		                    status, priority, assigned_to, estimated_value, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Email, p.Phone, p.Location, p.Industry, p.BusinessType, p.Challenge, p.Message,
		p.Status, p.Priority, p.AssignedTo, p.EstimatedValue, p.Source, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}
	return s.GetByID(id)
}

// UpdateLeadParams carries the partial update set; nil fields are untouched.
type UpdateLeadParams struct {
	Name           *string
	Email          *string
	Phone          *string
	Location       *string
	Industry       *string
	BusinessType   *string
	Challenge      *string
	Message        *string
	Status         *model.LeadStatus
	Priority       *model.Priority
	AssignedTo     *string
	EstimatedValue *int64
}

// Update applies the supplied fields and advances updated_at. Returns nil
// when the lead is missing or soft-deleted; update never resurrects.
func (s *LeadStore) Update(id string, p UpdateLeadParams) (*model.Lead, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	appendField := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if p.Name != nil {
		appendField("name", *p.Name)
	}
	if p.Email != nil {
		appendField("email", *p.Email)
	}
	if p.Phone != nil {
		appendField("phone", *p.Phone)
	}
	if p.Location != nil {
		appendField("location", *p.Location)
	}
	if p.Industry != nil {
		appendField("industry", *p.Industry)
	}
	if p.BusinessType != nil {
		appendField("business_type", *p.BusinessType)
	}
	if p.Challenge != nil {
		appendField("challenge", *p.Challenge)
	}
	if p.Message != nil {
		appendField("message", *p.Message)
	}
	if p.Status != nil {
		appendField("status", *p.Status)
	}
	if p.Priority != nil {
		appendField("priority", *p.Priority)
	}
	if p.AssignedTo != nil {
		appendField("assigned_to", *p.AssignedTo)
	}
	if p.EstimatedValue != nil {
		appendField("estimated_value", *p.EstimatedValue)
	}

	args = append(args, id)
	result, err := s.db.Exec(
		`UPDATE leads SET `+strings.Join(set, ", ")+` WHERE id = ? AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
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

// SoftDelete marks the lead deleted. Returns false if already gone.
func (s *LeadStore) SoftDelete(id string) (bool, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE leads SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete lead: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
