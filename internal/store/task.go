package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nuklias/crm/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(
		&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.CreatedBy,
		&t.Status, &t.Priority, &t.DueDate, &t.CompletedAt, &t.RelatedLeadID,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, title, description, assigned_to, created_by, status, priority, due_date, completed_at, related_lead_id, created_at, updated_at, deleted_at`

// TaskFilters share the lead filter shape minus the date range.
type TaskFilters struct {
	Status     []string
	Priority   []string
	AssignedTo string
	Search     string
}

func (f TaskFilters) where() (string, []any) {
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
		conditions = append(conditions, `(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)`)
		args = append(args, pattern, pattern)
	}

	return strings.Join(conditions, " AND "), args
}

func (s *TaskStore) List(f TaskFilters, limit, offset int) ([]model.Task, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND deleted_at IS NULL`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

type CreateTaskParams struct {
	Title         string
	Description   *string
	AssignedTo    string
	Status        model.TaskStatus
	Priority      model.Priority
	DueDate       *time.Time
	RelatedLeadID *string
}

// Create inserts a task. createdBy is recorded immutably from the creating
// principal; status and priority default when empty.
func (s *TaskStore) Create(p CreateTaskParams, createdBy string) (*model.Task, error) {
	if p.Status == "" {
		p.Status = model.TaskStatusTodo
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, description, assigned_to, created_by, status, priority, due_date, related_lead_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Title, p.Description, p.AssignedTo, createdBy, p.Status, p.Priority, p.DueDate, p.RelatedLeadID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(id)
}

// UpdateTaskParams carries the partial update set; nil fields are untouched.
// created_by has no corresponding field: it never changes.
type UpdateTaskParams struct {
	Title         *string
	Description   *string
	AssignedTo    *string
	Status        *model.TaskStatus
	Priority      *model.Priority
	DueDate       *time.Time
	CompletedAt   *time.Time
	RelatedLeadID *string
}

func (s *TaskStore) Update(id string, p UpdateTaskParams) (*model.Task, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	appendField := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if p.Title != nil {
		appendField("title", *p.Title)
	}
	if p.Description != nil {
		appendField("description", *p.Description)
	}
	if p.AssignedTo != nil {
		appendField("assigned_to", *p.AssignedTo)
	}
	if p.Status != nil {
		appendField("status", *p.Status)
	}
	if p.Priority != nil {
		appendField("priority", *p.Priority)
	}
	if p.DueDate != nil {
		appendField("due_date", p.DueDate.UTC())
	}
	if p.CompletedAt != nil {
		appendField("completed_at", p.CompletedAt.UTC())
	}
	if p.RelatedLeadID != nil {
		appendField("related_lead_id", *p.RelatedLeadID)
	}

	args = append(args, id)
	result, err := s.db.Exec(
		`UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ? AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
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

func (s *TaskStore) SoftDelete(id string) (bool, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
