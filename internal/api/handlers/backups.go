package handlers

import (
	"mileage-reimbursement-service/internal/api/dto"
	"mileage-reimbursement-service/internal/backup"
	"net/http"
)

type BackupHandler struct {
	Manager *backup.Manager
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Manager.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListBackupResponse{Backups: make([]dto.BackupResponse, 0, len(list))}
	for _, b := range list {
		res.Backups = append(res.Backups, toBackupResponse(b))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	info, err := h.Manager.Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toBackupResponse(info))
}

func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, err := h.Manager.Path(name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Delete(r.PathValue("name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
