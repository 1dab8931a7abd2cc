package http

import (
	"encoding/json"
	"net/http"

	"caption-core/internal/credentials"
	"caption-core/internal/errs"
)

// credentialsHandler exposes the Credential Store over HTTP for the
// host process (CLI, control plane) that owns the recognition-service
// API key lifecycle, since the core itself never prompts a user
// directly.
type credentialsHandler struct {
	store *credentials.Store
}

type verifyRequest struct {
	APIKey string `json:"apiKey"`
}

type infoResponse struct {
	Present    bool     `json:"present"`
	Scopes     []string `json:"scopes,omitempty"`
	VerifiedAt string   `json:"verifiedAt,omitempty"`
	ProjectID  string   `json:"projectId,omitempty"`
}

func (h *credentialsHandler) save(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	info, err := h.store.VerifyAndSave(r.Context(), req.APIKey)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeInfo(w, info)
}

func (h *credentialsHandler) info(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Info(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeInfo(w, info)
}

func (h *credentialsHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeInfo(w http.ResponseWriter, info *credentials.ServiceInfo) {
	resp := infoResponse{
		Present:   info.Present,
		Scopes:    info.Scopes,
		ProjectID: info.ProjectID,
	}
	if !info.VerifiedAt.IsZero() {
		resp.VerifiedAt = info.VerifiedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeStoreError maps errs.Kind onto an HTTP status, mirroring the
// status mapping the Credential Store already applies to the
// verification endpoint's responses.
func writeStoreError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case errs.KindInvalidInput:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindInvalidKey:
		status = http.StatusUnauthorized
	case errs.KindPermissionDenied:
		status = http.StatusForbidden
	case errs.KindRateLimited:
		status = http.StatusTooManyRequests
	case errs.KindServiceUnavailable:
		status = http.StatusBadGateway
	}

	writeError(w, status, err.Error())
}
