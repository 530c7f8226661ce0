package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nuklias/crm/internal/auth"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/store"
	"github.com/nuklias/crm/internal/validate"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, logger: logger}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)
	q := r.URL.Query()

	filters := store.TaskFilters{
		Status:     splitCSV(q.Get("status")),
		Priority:   splitCSV(q.Get("priority")),
		AssignedTo: q.Get("assignedTo"),
		Search:     q.Get("search"),
	}

	tasks, total, err := h.tasks.List(filters, limit, offset)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch tasks", "")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	respondList(w, tasks, total, limit, offset)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get task", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch task", "")
		return
	}
	if task == nil {
		respondError(w, http.StatusNotFound, "Task not found", "")
		return
	}
	respondData(w, http.StatusOK, task, "")
}

type createTaskRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	AssignedTo    string  `json:"assignedTo"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"dueDate"`
	RelatedLeadID *string `json:"relatedLeadId"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "You must be logged in")
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if !validate.Length(req.Title, 1, 200) {
		fields.Add("title", "Title is required")
	}
	if req.Description != nil && !validate.Length(*req.Description, 0, 2000) {
		fields.Add("description", "Description must be at most 2000 characters")
	}
	if !validate.UUID(req.AssignedTo) {
		fields.Add("assignedTo", "Invalid user ID")
	}
	if req.Status != "" && !model.ValidTaskStatus(req.Status) {
		fields.Add("status", "Invalid status")
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		fields.Add("priority", "Invalid priority")
	}
	if req.RelatedLeadID != nil && !validate.UUID(*req.RelatedLeadID) {
		fields.Add("relatedLeadId", "Invalid lead ID")
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			fields.Add("dueDate", "Due date must be RFC3339 format")
		} else {
			dueDate = &t
		}
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	task, err := h.tasks.Create(store.CreateTaskParams{
		Title:         req.Title,
		Description:   req.Description,
		AssignedTo:    req.AssignedTo,
		Status:        model.TaskStatus(req.Status),
		Priority:      model.Priority(req.Priority),
		DueDate:       dueDate,
		RelatedLeadID: req.RelatedLeadID,
	}, principal.ID)
	if err != nil {
		h.logger.Error("create task", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create task", "")
		return
	}

	respondData(w, http.StatusCreated, task, "Task created successfully")
}

type updateTaskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	AssignedTo    *string `json:"assignedTo"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"dueDate"`
	CompletedAt   *string `json:"completedAt"`
	RelatedLeadID *string `json:"relatedLeadId"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if req.Title != nil && !validate.Length(*req.Title, 1, 200) {
		fields.Add("title", "Title must be 1-200 characters")
	}
	if req.Description != nil && !validate.Length(*req.Description, 0, 2000) {
		fields.Add("description", "Description must be at most 2000 characters")
	}
	if req.AssignedTo != nil && !validate.UUID(*req.AssignedTo) {
		fields.Add("assignedTo", "Invalid user ID")
	}
	if req.Status != nil && !model.ValidTaskStatus(*req.Status) {
		fields.Add("status", "Invalid status")
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		fields.Add("priority", "Invalid priority")
	}
	if req.RelatedLeadID != nil && !validate.UUID(*req.RelatedLeadID) {
		fields.Add("relatedLeadId", "Invalid lead ID")
	}

	params := store.UpdateTaskParams{
		Title:         req.Title,
		Description:   req.Description,
		AssignedTo:    req.AssignedTo,
		RelatedLeadID: req.RelatedLeadID,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		params.Priority = &priority
	}
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			fields.Add("dueDate", "Due date must be RFC3339 format")
		} else {
			params.DueDate = &t
		}
	}
	if req.CompletedAt != nil && *req.CompletedAt != "" {
		t, err := time.Parse(time.RFC3339, *req.CompletedAt)
		if err != nil {
			fields.Add("completedAt", "Completed at must be RFC3339 format")
		} else {
			params.CompletedAt = &t
		}
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	task, err := h.tasks.Update(r.PathValue("id"), params)
	if err != nil {
		h.logger.Error("update task", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update task", "")
		return
	}
	if task == nil {
		respondError(w, http.StatusNotFound, "Task not found", "")
		return
	}
	respondData(w, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.tasks.SoftDelete(r.PathValue("id"))
	if err != nil {
		h.logger.Error("delete task", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete task", "")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Task not found", "")
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Message: "Task deleted successfully"})
}
