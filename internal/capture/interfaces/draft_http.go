package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"gd-invoice/internal/audit"
	"gd-invoice/internal/auth"
	billingapp "gd-invoice/internal/billing/application"
	"gd-invoice/internal/capture/application"
	capture "gd-invoice/internal/capture/domain"
	"gd-invoice/internal/capture/importer"
)

const maxImportBytes = 10 << 20

// DraftHandler exposes capture sessions under /api/v1/drafts.
type DraftHandler struct {
	service     *application.CaptureService
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewDraftHandler constructs a handler. auditLogger may be nil.
func NewDraftHandler(service *application.CaptureService, auditLogger audit.Logger, logger *log.Logger) (*DraftHandler, error) {
	if service == nil {
		return nil, errors.New("draft handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DraftHandler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP routes draft requests.
func (h *DraftHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/api/v1/drafts" && r.Method == http.MethodPost {
		h.handleOpen(w, r)
		return
	}
	if !strings.HasPrefix(path, "/api/v1/drafts/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.TrimPrefix(path, "/api/v1/drafts/"), "/")
	id := parts[0]
	if id == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			view, err := h.service.Get(id)
			respond(w, view, err)
			return
		case http.MethodDelete:
			if err := h.service.Discard(id); err != nil {
				respondError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	action := parts[1]
	if action == "header" && r.Method == http.MethodPut {
		h.handleHeader(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch action {
	case "fields":
		h.handleEdit(w, r, id)
	case "reset":
		h.handleReset(w, r, id)
	case "import":
		h.handleImport(w, r, id)
	case "recompute":
		view, err := h.service.Recompute(r.Context(), id)
		respond(w, view, err)
	case "apply":
		view, err := h.service.ApplySuggestions(r.Context(), id)
		respond(w, view, err)
	case "close":
		h.handleClose(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *DraftHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var header capture.Header
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, h.service.Open(header))
}

func (h *DraftHandler) handleHeader(w http.ResponseWriter, r *http.Request, id string) {
	var header capture.Header
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	view, err := h.service.UpdateHeader(id, header)
	respond(w, view, err)
}

func (h *DraftHandler) handleEdit(w http.ResponseWriter, r *http.Request, id string) {
	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	view, err := h.service.Edit(id, values)
	respond(w, view, err)
}

func (h *DraftHandler) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	view, err := h.service.Reset(id, req.Keys)
	respond(w, view, err)
}

func (h *DraftHandler) handleImport(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := importer.ReadDocument(http.MaxBytesReader(w, r.Body, maxImportBytes), r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, "unreadable document", http.StatusBadRequest)
		return
	}
	mapped := importer.MapCategorized(rows)
	view, err := h.service.Import(id, mapped)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
	h.logAudit(r, view.Header.UnitID, id, audit.ActionImport, map[string]any{
		"fields":  len(mapped.Values),
		"ignored": mapped.Ignored,
	})
}

func (h *DraftHandler) handleClose(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		AcceptMismatch bool `json:"accept_mismatch"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	rec, err := h.service.Close(r.Context(), id, auth.SubjectFromContext(r.Context()), req.AcceptMismatch)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
	h.logAudit(r, rec.UnitID, rec.ID, audit.ActionCloseMonth, map[string]any{
		"session_id":      id,
		"version":         rec.Version,
		"validation":      rec.Validation.Status,
		"accept_mismatch": req.AcceptMismatch,
	})
}

func (h *DraftHandler) logAudit(r *http.Request, unitID, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "draft",
		ResourceID:   resourceID,
		UnitID:       unitID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.logger.Printf("event=audit_failed action=%s error=%v", action, err)
	}
}

func respond(w http.ResponseWriter, view application.View, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrSessionNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, billingapp.ErrValidationMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
