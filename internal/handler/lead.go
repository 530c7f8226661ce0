package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nuklias/crm/internal/email"
	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/store"
	"github.com/nuklias/crm/internal/validate"
)

type LeadHandler struct {
	leads    *store.LeadStore
	notifier email.Service // nil when notifications are not configured
	logger   *slog.Logger
}

func NewLeadHandler(ls *store.LeadStore, notifier email.Service, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{leads: ls, notifier: notifier, logger: logger}
}

// splitCSV turns "a,b,c" into its parts, dropping empties.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseFlexibleTime accepts RFC3339 or a bare YYYY-MM-DD date.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)
	q := r.URL.Query()

	filters := store.LeadFilters{
		Status:     splitCSV(q.Get("status")),
		Priority:   splitCSV(q.Get("priority")),
		AssignedTo: q.Get("assignedTo"),
		Search:     q.Get("search"),
	}
	if v := q.Get("startDate"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Validation error", "startDate must be RFC3339 or YYYY-MM-DD")
			return
		}
		filters.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Validation error", "endDate must be RFC3339 or YYYY-MM-DD")
			return
		}
		filters.EndDate = &t
	}

	leads, total, err := h.leads.List(filters, limit, offset)
	if err != nil {
		h.logger.Error("list leads", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch leads", "")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	respondList(w, leads, total, limit, offset)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get lead", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch lead", "")
		return
	}
	if lead == nil {
		respondError(w, http.StatusNotFound, "Lead not found", "")
		return
	}
	respondData(w, http.StatusOK, lead, "")
}

type createLeadRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	Location       string  `json:"location"`
	Industry       string  `json:"industry"`
	BusinessType   string  `json:"businessType"`
	Challenge      string  `json:"challenge"`
	Message        string  `json:"message"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	AssignedTo     *string `json:"assignedTo"`
	EstimatedValue *int64  `json:"estimatedValue"`
	Source         string  `json:"source"`
}

func (h *LeadHandler) validateCreate(req *createLeadRequest) validate.FieldErrors {
	fields := validate.FieldErrors{}
	if !validate.Length(req.Name, 1, 100) {
		fields.Add("name", "Name is required")
	}
	if !validate.Email(req.Email) {
		fields.Add("email", "Invalid email address")
	}
	if !validate.Length(req.Location, 1, 100) {
		fields.Add("location", "Location is required")
	}
	if !validate.Length(req.Industry, 1, 100) {
		fields.Add("industry", "Industry is required")
	}
	if !validate.Length(req.BusinessType, 1, 200) {
		fields.Add("businessType", "Business type is required")
	}
	if !validate.Length(req.Challenge, 1, 500) {
		fields.Add("challenge", "Challenge is required")
	}
	if !validate.Length(req.Message, 10, 2000) {
		fields.Add("message", "Message must be at least 10 characters")
	}
	if req.Status != "" && !model.ValidLeadStatus(req.Status) {
		fields.Add("status", "Invalid status")
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		fields.Add("priority", "Invalid priority")
	}
	if req.Source != "" && !model.ValidLeadSource(req.Source) {
		fields.Add("source", "Invalid source")
	}
	if req.AssignedTo != nil && !validate.UUID(*req.AssignedTo) {
		fields.Add("assignedTo", "Invalid user ID")
	}
	if req.EstimatedValue != nil && *req.EstimatedValue <= 0 {
		fields.Add("estimatedValue", "Estimated value must be positive")
	}
	return fields
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	if fields := h.validateCreate(&req); !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	lead, err := h.leads.Create(store.CreateLeadParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Location:       req.Location,
		Industry:       req.Industry,
		BusinessType:   req.BusinessType,
		Challenge:      req.Challenge,
		Message:        req.Message,
		Status:         model.LeadStatus(req.Status),
		Priority:       model.Priority(req.Priority),
		AssignedTo:     req.AssignedTo,
		EstimatedValue: req.EstimatedValue,
		Source:         model.LeadSource(req.Source),
	})
	if err != nil {
		h.logger.Error("create lead", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create lead", "")
		return
	}

	if h.notifier != nil {
		// Best effort: a lost notification never fails the request.
		go func(l model.Lead) {
			if err := h.notifier.NotifyNewLead(&l); err != nil {
				h.logger.Error("notify new lead", "lead_id", l.ID, "error", err)
			}
		}(*lead)
	}

	respondData(w, http.StatusCreated, lead, "Lead created successfully")
}

type updateLeadRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Location       *string `json:"location"`
	Industry       *string `json:"industry"`
	BusinessType   *string `json:"businessType"`
	Challenge      *string `json:"challenge"`
	Message        *string `json:"message"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	AssignedTo     *string `json:"assignedTo"`
	EstimatedValue *int64  `json:"estimatedValue"`
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if req.Name != nil && !validate.Length(*req.Name, 1, 100) {
		fields.Add("name", "Name must be 1-100 characters")
	}
	if req.Email != nil && !validate.Email(*req.Email) {
		fields.Add("email", "Invalid email address")
	}
	if req.Location != nil && !validate.Length(*req.Location, 1, 100) {
		fields.Add("location", "Location must be 1-100 characters")
	}
	if req.Industry != nil && !validate.Length(*req.Industry, 1, 100) {
		fields.Add("industry", "Industry must be 1-100 characters")
	}
	if req.BusinessType != nil && !validate.Length(*req.BusinessType, 1, 200) {
		fields.Add("businessType", "Business type must be 1-200 characters")
	}
	if req.Challenge != nil && !validate.Length(*req.Challenge, 1, 500) {
		fields.Add("challenge", "Challenge must be 1-500 characters")
	}
	if req.Message != nil && !validate.Length(*req.Message, 10, 2000) {
		fields.Add("message", "Message must be at least 10 characters")
	}
	if req.Status != nil && !model.ValidLeadStatus(*req.Status) {
		fields.Add("status", "Invalid status")
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		fields.Add("priority", "Invalid priority")
	}
	if req.AssignedTo != nil && !validate.UUID(*req.AssignedTo) {
		fields.Add("assignedTo", "Invalid user ID")
	}
	if req.EstimatedValue != nil && *req.EstimatedValue <= 0 {
		fields.Add("estimatedValue", "Estimated value must be positive")
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	params := store.UpdateLeadParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Location:       req.Location,
		Industry:       req.Industry,
		BusinessType:   req.BusinessType,
		Challenge:      req.Challenge,
		Message:        req.Message,
		AssignedTo:     req.AssignedTo,
		EstimatedValue: req.EstimatedValue,
	}
	if req.Status != nil {
		status := model.LeadStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		params.Priority = &priority
	}

	lead, err := h.leads.Update(r.PathValue("id"), params)
	if err != nil {
		h.logger.Error("update lead", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update lead", "")
		return
	}
	if lead == nil {
		respondError(w, http.StatusNotFound, "Lead not found", "")
		return
	}
	respondData(w, http.StatusOK, lead, "Lead updated successfully")
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.leads.SoftDelete(r.PathValue("id"))
	if err != nil {
		h.logger.Error("delete lead", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete lead", "")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Lead not found", "")
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Message: "Lead deleted successfully"})
}
