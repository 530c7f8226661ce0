package handler

import (
	"log/slog"
	"net/http"

	"github.com/nuklias/crm/internal/backup"
)

// BackupHandler exposes the backup manager on admin routes.
type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.manager.Status(), "")
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		respondError(w, http.StatusBadRequest, "Backup not configured", "S3 credentials are missing")
		return
	}

	key, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		respondError(w, http.StatusInternalServerError, "Backup failed", "")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"key": key}, "Backup completed")
}
