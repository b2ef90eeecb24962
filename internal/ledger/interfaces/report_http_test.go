package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"restobill/internal/ledger/application"
	ledger "restobill/internal/ledger/domain"
	"restobill/internal/ledger/infrastructure/memory"
)

func testService(t *testing.T) (*application.Service, *memory.EventStore) {
	t.Helper()
	loc, err := ledger.LoadTimezone("Asia/Kolkata")
	if err != nil {
		t.Fatalf("timezone: %v", err)
	}
	shifts := []ledger.ShiftDefinition{
		{Name: "Morning", Start: mustTimeOfDay(t, "07:00"), End: mustTimeOfDay(t, "16:00")},
		{Name: "Night", Start: mustTimeOfDay(t, "16:00"), End: mustTimeOfDay(t, "02:00"), RollsOver: true},
		{Name: "Closed", Start: mustTimeOfDay(t, "02:00"), End: mustTimeOfDay(t, "07:00")},
	}
	schedule, err := ledger.NewSchedule(shifts)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	store := memory.NewEventStore()
	service, err := application.NewService(store, store, schedule, loc, ledger.Anchor{})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return service, store
}

func mustTimeOfDay(t *testing.T, value string) ledger.TimeOfDay {
	t.Helper()
	tod, err := ledger.ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("time of day %q: %v", value, err)
	}
	return tod
}

func seedOrder(t *testing.T, store *memory.EventStore, ts time.Time, amount string) {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("amount %q: %v", amount, err)
	}
	store.AddRevenue(ledger.RevenueEvent{
		ID:            ts.Format(time.RFC3339Nano),
		Amount:        value,
		Timestamp:     ts,
		PaymentMethod: ledger.PaymentCash,
		OrderChannel:  ledger.ChannelDineIn,
	})
}

func TestReportHandler_Day(t *testing.T) {
	service, store := testService(t)
	loc := service.Timezone()
	seedOrder(t, store, time.Date(2024, time.March, 1, 12, 0, 0, 0, loc).UTC(), "500")

	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/day?date=2024-03-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var report application.DayReport
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Date != "2024-03-01" || len(report.Shifts) != 3 {
		t.Fatalf("unexpected report %s with %d shifts", report.Date, len(report.Shifts))
	}
	if !report.Totals.RevenueTotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected revenue 500, got %s", report.Totals.RevenueTotal)
	}
}

func TestReportHandler_MissingDate(t *testing.T) {
	service, _ := testService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/day", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestReportHandler_BadDateRange(t *testing.T) {
	service, _ := testService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/range?start=2024-03-05&end=2024-03-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestReportHandler_MethodNotAllowed(t *testing.T) {
	service, _ := testService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/day?date=2024-03-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestReportHandler_UnknownPath(t *testing.T) {
	service, _ := testService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/unknown", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestExportHandler_CSV(t *testing.T) {
	service, store := testService(t)
	loc := service.Timezone()
	seedOrder(t, store, time.Date(2024, time.March, 1, 12, 0, 0, 0, loc).UTC(), "500")

	handler, err := NewExportHandler(service, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/day.csv?date=2024-03-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %s", got)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Morning") || !strings.Contains(body, "500.00") {
		t.Fatalf("unexpected csv body:\n%s", body)
	}
}

func TestExportHandler_PDFAndXLSXNonEmpty(t *testing.T) {
	service, store := testService(t)
	loc := service.Timezone()
	seedOrder(t, store, time.Date(2024, time.March, 1, 12, 0, 0, 0, loc).UTC(), "500")

	handler, err := NewExportHandler(service, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	for _, path := range []string{"/api/v1/exports/day.pdf?date=2024-03-01", "/api/v1/exports/day.xlsx?date=2024-03-01"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		if resp.Body.Len() == 0 {
			t.Fatalf("%s: empty body", path)
		}
	}
}

func TestExportHandler_UnknownFormat(t *testing.T) {
	service, _ := testService(t)
	handler, err := NewExportHandler(service, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/day.docx?date=2024-03-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
