package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"gd-invoice/internal/audit"
	"gd-invoice/internal/auth"
	billingapp "gd-invoice/internal/billing/application"
	billing "gd-invoice/internal/billing/domain"
	"gd-invoice/internal/capture/importer"
	"gd-invoice/internal/observability/metrics"
)

const maxImportBytes = 10 << 20

// InvoiceHandler handles invoice APIs.
type InvoiceHandler struct {
	service     *billingapp.InvoiceService
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewInvoiceHandler constructs a handler. auditLogger may be nil.
func NewInvoiceHandler(service *billingapp.InvoiceService, auditLogger audit.Logger, logger *log.Logger) (*InvoiceHandler, error) {
	if service == nil {
		return nil, errors.New("invoice handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &InvoiceHandler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles invoice routes under /api/v1/invoices.
func (h *InvoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/invoices/compute" && r.Method == http.MethodPost:
		h.handleCompute(w, r)
		return
	case path == "/api/v1/invoices/close" && r.Method == http.MethodPost:
		h.handleClose(w, r)
		return
	case path == "/api/v1/invoices/import" && r.Method == http.MethodPost:
		h.handleImport(w, r)
		return
	case path == "/api/v1/invoices" && r.Method == http.MethodGet:
		h.handleList(w, r)
		return
	case strings.HasPrefix(path, "/api/v1/invoices/"):
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/invoices/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *InvoiceHandler) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req billingapp.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res, err := h.service.Compute(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InvoiceHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	var req billingapp.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ClosedBy == "" {
		req.ClosedBy = auth.SubjectFromContext(r.Context())
	}
	rec, err := h.service.CloseMonth(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
	h.logAudit(r, rec.UnitID, rec.ID, audit.ActionCloseMonth, map[string]any{
		"month":           rec.ReferenceMonth.Format("2006-01"),
		"version":         rec.Version,
		"validation":      rec.Validation.Status,
		"accept_mismatch": req.AcceptMismatch,
	})
}

func (h *InvoiceHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	rows, err := importer.ReadDocument(http.MaxBytesReader(w, r.Body, maxImportBytes), r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, "unreadable document", http.StatusBadRequest)
		return
	}
	res := importer.MapCategorized(rows)
	resp := struct {
		Header  importer.Header    `json:"header"`
		Values  map[string]float64 `json:"values"`
		Ignored []string           `json:"ignored"`
	}{Header: res.Header, Values: res.Values, Ignored: res.Ignored}
	writeJSON(w, http.StatusOK, resp)
	h.logAudit(r, res.Header.UnitID, "", audit.ActionImport, map[string]any{
		"fields":  len(res.Values),
		"ignored": len(res.Ignored),
	})
}

func (h *InvoiceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUnit(r.Context(), r.URL.Query().Get("unit_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *InvoiceHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" || r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		rec, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "export.pdf":
			h.handleExport(w, r, id, "pdf", "application/pdf", BuildInvoicePDF)
			return
		case "export.xlsx":
			h.handleExport(w, r, id, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", BuildInvoiceXLSX)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *InvoiceHandler) handleExport(w http.ResponseWriter, r *http.Request, id, format, contentType string, build func(*billing.CycleRecord) ([]byte, error)) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := build(rec)
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("event=invoice_export_failed record_id=%s format=%s error=%v", id, format, err)
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, rec.UnitID, rec.ID, audit.ActionExport, map[string]any{"format": format})
}

func (h *InvoiceHandler) logAudit(r *http.Request, unitID, recordID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "cycle_record",
		ResourceID:   recordID,
		UnitID:       unitID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.logger.Printf("event=audit_failed action=%s error=%v", action, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, billingapp.ErrRecordNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, billingapp.ErrValidationMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
