package handlers

import (
	"encoding/json"
	"net/http"

	"studyhall-backend/internal/services"
	"studyhall-backend/internal/store"
)

// BackupHandler exposes whole-store export and import for moving data
// between deployments.
type BackupHandler struct {
	store store.Store
}

func NewBackupHandler(s store.Store) *BackupHandler {
	return &BackupHandler{store: s}
}

func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := store.ExportAll(r.Context(), h.store)
	if err != nil {
		handleServiceError(w, r, &services.StorageError{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	var data map[string]string
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := store.ImportAll(r.Context(), h.store, data); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Import complete"})
}
