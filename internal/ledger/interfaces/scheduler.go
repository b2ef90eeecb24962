package interfaces

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"restobill/internal/ledger/application"
	ledger "restobill/internal/ledger/domain"
	"restobill/internal/observability/metrics"
)

// DayCloseScheduler renders the previous business day's report to disk once
// per day at the configured local time, after the night shift has settled.
type DayCloseScheduler struct {
	service     *application.Service
	dailyAt     string
	storageRoot string
	clock       application.Clock
	logger      *log.Logger
}

// NewDayCloseScheduler constructs a scheduler.
func NewDayCloseScheduler(service *application.Service, dailyAt, storageRoot string, logger *log.Logger) *DayCloseScheduler {
	return &DayCloseScheduler{
		service:     service,
		dailyAt:     dailyAt,
		storageRoot: storageRoot,
		clock:       application.SystemClock{},
		logger:      logger,
	}
}

// Start begins the scheduler loop.
func (s *DayCloseScheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastRun ledger.Date
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now().In(s.service.Timezone())
			if !s.shouldRun(now) {
				continue
			}
			today := ledger.DateOf(now, s.service.Timezone())
			if today.Equal(lastRun) {
				continue
			}
			s.runOnce(ctx, today.AddDays(-1))
			lastRun = today
		}
	}
}

func (s *DayCloseScheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *DayCloseScheduler) runOnce(ctx context.Context, date ledger.Date) {
	report, err := s.service.DayReport(ctx, date)
	if err != nil {
		metrics.IncDayCloseRun(metrics.ResultError)
		if s.logger != nil {
			s.logger.Printf("day close error: date=%s err=%v", date, err)
		}
		return
	}
	if err := s.writeReport(report); err != nil {
		metrics.IncDayCloseRun(metrics.ResultError)
		if s.logger != nil {
			s.logger.Printf("day close write error: date=%s err=%v", date, err)
		}
		return
	}
	metrics.IncDayCloseRun(metrics.ResultSuccess)
	if s.logger != nil {
		s.logger.Printf("day close done: date=%s closing=%s", date, report.Totals.ClosingBalance.StringFixed(2))
	}
}

func (s *DayCloseScheduler) writeReport(report application.DayReport) error {
	dir := filepath.Join(s.storageRoot, report.Date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	csvData, err := BuildDayReportCSV(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "day-report.csv"), csvData, 0o644); err != nil {
		return err
	}
	pdfData, err := BuildDayReportPDF(report)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "day-report.pdf"), pdfData, 0o644)
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
