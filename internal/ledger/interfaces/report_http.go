package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"restobill/internal/ledger/application"
	ledger "restobill/internal/ledger/domain"
)

// ReportHandler serves read-only reporting endpoints.
type ReportHandler struct {
	service *application.Service
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(service *application.Service) (*ReportHandler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	return &ReportHandler{service: service}, nil
}

// ServeHTTP routes report requests.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/reports/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch strings.TrimPrefix(r.URL.Path, "/api/v1/reports/") {
	case "day":
		h.handleDay(w, r)
	case "range":
		h.handleRange(w, r)
	case "compare":
		h.handleCompare(w, r)
	case "hourly":
		h.handleHourly(w, r)
	case "low-performers":
		h.handleLowPerformers(w, r)
	case "expenses/entities":
		h.handleEntityExpenses(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ReportHandler) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.service.DayReport(r.Context(), date)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, report)
}

func (h *ReportHandler) handleRange(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateQuery(r, "start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDateQuery(r, "end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	summary, err := h.service.RangeSummary(r.Context(), start, end)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, summary)
}

func (h *ReportHandler) handleCompare(w http.ResponseWriter, r *http.Request) {
	current, err := parsePeriodQuery(r, "current_start", "current_end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	baseline, err := parsePeriodQuery(r, "baseline_start", "baseline_end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmp, err := h.service.Compare(r.Context(), current, baseline)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, cmp)
}

func (h *ReportHandler) handleHourly(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	buckets, err := h.service.HourlyBreakdown(r.Context(), date)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, buckets)
}

func (h *ReportHandler) handleLowPerformers(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateQuery(r, "start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDateQuery(r, "end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n := 0
	if value := r.URL.Query().Get("n"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	report, err := h.service.LowPerformers(r.Context(), start, end, n)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, report)
}

func (h *ReportHandler) handleEntityExpenses(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	category := ledger.ExpenseCategory(r.URL.Query().Get("category"))
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}
	report, err := h.service.EntityExpenses(r.Context(), date, category)
	if err != nil {
		respondReportError(w, err)
		return
	}
	writeJSON(w, report)
}

func parseDateQuery(r *http.Request, key string) (ledger.Date, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return ledger.Date{}, errors.New(key + " is required")
	}
	date, err := ledger.ParseDate(value)
	if err != nil {
		return ledger.Date{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return date, nil
}

func parsePeriodQuery(r *http.Request, startKey, endKey string) (application.Period, error) {
	start, err := parseDateQuery(r, startKey)
	if err != nil {
		return application.Period{}, err
	}
	end, err := parseDateQuery(r, endKey)
	if err != nil {
		return application.Period{}, err
	}
	return application.Period{Start: start, End: end}, nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondReportError(w http.ResponseWriter, err error) {
	var sourceErr *application.SourceError
	if errors.As(err, &sourceErr) {
		http.Error(w, sourceErr.Error(), http.StatusBadGateway)
		return
	}
	switch {
	case errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidDateRange),
		errors.Is(err, ledger.ErrInvalidTopN),
		errors.Is(err, ledger.ErrInvalidRankKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
