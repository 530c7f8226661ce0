package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/password"
	"github.com/nuklias/crm/internal/store"
	"github.com/nuklias/crm/internal/validate"
)

// UserHandler serves the admin-only user management routes.
type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)

	users, total, err := h.users.List(limit, offset)
	if err != nil {
		h.logger.Error("list users", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch users", "")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondList(w, users, total, limit, offset)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch user", "")
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "User not found", "")
		return
	}
	respondData(w, http.StatusOK, u, "")
}

type createUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if !validate.Email(req.Email) {
		fields.Add("email", "Invalid email address")
	}
	if msg := validate.PasswordStrength(req.Password); msg != "" {
		fields.Add("password", msg)
	}
	if !validate.Length(req.FirstName, 1, 50) {
		fields.Add("firstName", "First name is required")
	}
	if !validate.Length(req.LastName, 1, 50) {
		fields.Add("lastName", "Last name is required")
	}
	if !model.ValidRole(req.Role) {
		fields.Add("role", "Role must be admin or member")
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}

	u, err := h.users.Create(store.CreateUserParams{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "Email already exists", "")
			return
		}
		h.logger.Error("create user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}

	respondData(w, http.StatusCreated, u, "User created successfully")
}

type updateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"isActive"`
	Avatar    *string `json:"avatar"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return
	}

	fields := validate.FieldErrors{}
	if req.FirstName != nil && !validate.Length(*req.FirstName, 1, 50) {
		fields.Add("firstName", "First name must be 1-50 characters")
	}
	if req.LastName != nil && !validate.Length(*req.LastName, 1, 50) {
		fields.Add("lastName", "Last name must be 1-50 characters")
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		fields.Add("role", "Role must be admin or member")
	}
	if !fields.Ok() {
		respondValidation(w, fields)
		return
	}

	params := store.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
		Avatar:    req.Avatar,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		params.Role = &role
	}

	u, err := h.users.Update(r.PathValue("id"), params)
	if err != nil {
		h.logger.Error("update user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update user", "")
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "User not found", "")
		return
	}
	respondData(w, http.StatusOK, u, "User updated successfully")
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.users.SoftDelete(r.PathValue("id"))
	if err != nil {
		h.logger.Error("delete user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete user", "")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "User not found", "")
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Message: "User deleted successfully"})
}
