package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"restobill/internal/audit"
	"restobill/internal/auth"
	"restobill/internal/ledger/application"
	"restobill/internal/observability/metrics"
)

// ExportHandler serves day report downloads.
type ExportHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(service *application.Service, auditLogger audit.Logger) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("export handler: nil service")
	}
	return &ExportHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes export requests.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/exports/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	format := ""
	switch strings.TrimPrefix(r.URL.Path, "/api/v1/exports/") {
	case "day.csv":
		format = "csv"
	case "day.pdf":
		format = "pdf"
	case "day.xlsx":
		format = "xlsx"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleDayExport(w, r, format)
}

func (h *ExportHandler) handleDayExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() { metrics.ObserveExport(format, result, time.Since(start)) }()

	date, err := parseDateQuery(r, "date")
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.service.DayReport(r.Context(), date)
	if err != nil {
		result = metrics.ResultError
		respondReportError(w, err)
		return
	}

	var payload []byte
	contentType := ""
	switch format {
	case "csv":
		payload, err = BuildDayReportCSV(report)
		contentType = "text/csv"
	case "pdf":
		payload, err = BuildDayReportPDF(report)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = BuildDayReportXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="day-report-`+report.Date+`.`+format+`"`)
	_, _ = w.Write(payload)
	h.logAudit(r, report.Date, format)
}

func (h *ExportHandler) logAudit(r *http.Request, date, format string) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{"date": date, "format": format})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "report.day.export",
		ResourceType: "day_report",
		ResourceID:   date,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
