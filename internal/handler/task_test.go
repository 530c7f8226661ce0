package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/database"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/store"
)

func setupTaskHandler(t *testing.T) (*TaskHandler, *store.TaskStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ts := store.NewTaskStore(db)
	us := store.NewUserStore(db)
	return NewTaskHandler(ts, discardLogger()), ts, us
}

func taskHandlerUser(t *testing.T, us *store.UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(store.CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         model.RoleMember,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestTaskCreateRecordsCreator(t *testing.T) {
	h, _, us := setupTaskHandler(t)
	creator := taskHandlerUser(t, us, "creator@example.com")
	assignee := taskHandlerUser(t, us, "assignee@example.com")

	body := `{"title":"Call the prospect","assignedTo":"` + assignee.ID + `"}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	req = req.WithContext(auth.WithPrincipal(req.Context(), creator))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data model.Task `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.CreatedBy != creator.ID {
		t.Errorf("createdBy = %q, want %q", resp.Data.CreatedBy, creator.ID)
	}
	if resp.Data.AssignedTo != assignee.ID {
		t.Errorf("assignedTo = %q, want %q", resp.Data.AssignedTo, assignee.ID)
	}
	if resp.Data.Status != model.TaskStatusTodo {
		t.Errorf("status = %q, want todo", resp.Data.Status)
	}
	if resp.Data.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want medium", resp.Data.Priority)
	}
}

func TestTaskCreateWithoutPrincipal(t *testing.T) {
	h, _, _ := setupTaskHandler(t)

	body := `{"title":"Orphan task","assignedTo":"not-a-uuid"}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	h, _, us := setupTaskHandler(t)
	creator := taskHandlerUser(t, us, "creator@example.com")

	body := `{"title":"","assignedTo":"not-a-uuid","dueDate":"tomorrow"}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	req = req.WithContext(auth.WithPrincipal(req.Context(), creator))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"title", "assignedTo", "dueDate"} {
		if _, ok := resp.Details[field]; !ok {
			t.Errorf("expected %s detail", field)
		}
	}
}

func TestTaskUpdateHandler(t *testing.T) {
	h, ts, us := setupTaskHandler(t)
	creator := taskHandlerUser(t, us, "creator@example.com")

	task, _ := ts.Create(store.CreateTaskParams{
		Title:      "Send contract",
		AssignedTo: creator.ID,
	}, creator.ID)

	body := `{"status":"done","completedAt":"2026-08-30T12:00:00Z"}`
	req := httptest.NewRequest("PUT", "/api/tasks/"+task.ID, strings.NewReader(body))
	req.SetPathValue("id", task.ID)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data model.Task `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Status != model.TaskStatusDone {
		t.Errorf("status = %q, want done", resp.Data.Status)
	}
	if resp.Data.CompletedAt == nil {
		t.Error("expected completedAt set")
	}
	if resp.Data.CreatedBy != creator.ID {
		t.Error("expected createdBy unchanged")
	}
}

func TestTaskUpdateNotFound(t *testing.T) {
	h, _, _ := setupTaskHandler(t)

	req := httptest.NewRequest("PUT", "/api/tasks/missing", strings.NewReader(`{"status":"done"}`))
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTaskListFiltersByStatus(t *testing.T) {
	h, ts, us := setupTaskHandler(t)
	u := taskHandlerUser(t, us, "alice@example.com")

	ts.Create(store.CreateTaskParams{Title: "Open item", AssignedTo: u.ID}, u.ID)
	done, _ := ts.Create(store.CreateTaskParams{Title: "Closed item", AssignedTo: u.ID}, u.ID)
	doneStatus := model.TaskStatusDone
	ts.Update(done.ID, store.UpdateTaskParams{Status: &doneStatus})

	req := httptest.NewRequest("GET", "/api/tasks?status=done", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data       []model.Task `json:"data"`
		Pagination *pagination  `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pagination.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1 and 1", resp.Pagination.Total, len(resp.Data))
	}
	if resp.Data[0].Title != "Closed item" {
		t.Errorf("title = %q, want Closed item", resp.Data[0].Title)
	}
}

func TestTaskDeleteHandler(t *testing.T) {
	h, ts, us := setupTaskHandler(t)
	u := taskHandlerUser(t, us, "alice@example.com")

	task, _ := ts.Create(store.CreateTaskParams{Title: "Doomed", AssignedTo: u.ID}, u.ID)

	req := httptest.NewRequest("DELETE", "/api/tasks/"+task.ID, nil)
	req.SetPathValue("id", task.ID)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got, _ := ts.GetByID(task.ID); got != nil {
		t.Error("expected task invisible after delete")
	}
}
