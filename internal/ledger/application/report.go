package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	ledger "restobill/internal/ledger/domain"
	"restobill/internal/observability/metrics"
)

const defaultTopN = 10

// Service is the reporting façade. It is the only component outer
// collaborators (HTTP layer, scheduler, CLI tooling) call directly. Every
// operation is a pure function of its arguments, the configured schedule and
// anchor, and the feed contents at call time; calls are safe concurrently.
type Service struct {
	revenue  RevenueSource
	expense  ExpenseSource
	chain    *ChainResolver
	schedule ledger.Schedule
	loc      *time.Location
	anchor   ledger.Anchor
	topN     int
	rankKey  ledger.RankKey
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithTopN overrides the default item ranking size.
func WithTopN(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithRankKey overrides the ordering used for per-shift top items.
func WithRankKey(key ledger.RankKey) ServiceOption {
	return func(s *Service) {
		if key != "" {
			s.rankKey = key
		}
	}
}

// NewService constructs the reporting façade.
func NewService(revenue RevenueSource, expense ExpenseSource, schedule ledger.Schedule, loc *time.Location, anchor ledger.Anchor, opts ...ServiceOption) (*Service, error) {
	if revenue == nil {
		return nil, errors.New("report service: nil revenue source")
	}
	if expense == nil {
		return nil, errors.New("report service: nil expense source")
	}
	if loc == nil {
		return nil, errors.New("report service: nil location")
	}
	chain, err := NewChainResolver(revenue, expense)
	if err != nil {
		return nil, err
	}
	service := &Service{
		revenue:  revenue,
		expense:  expense,
		chain:    chain,
		schedule: schedule,
		loc:      loc,
		anchor:   anchor,
		topN:     defaultTopN,
		rankKey:  ledger.RankByRevenue,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Timezone returns the configured business timezone.
func (s *Service) Timezone() *time.Location { return s.loc }

// Schedule returns the configured shift schedule.
func (s *Service) Schedule() ledger.Schedule { return s.schedule }

// DayReport is the per-shift financial summary of one business date.
type DayReport struct {
	Date     string              `json:"date"`
	Timezone string              `json:"timezone"`
	Shifts   []ledger.LedgerEntry `json:"shifts"`
	Totals   DayTotals           `json:"totals"`
}

// DayTotals sums all shift entries of one date.
type DayTotals struct {
	RevenueTotal   decimal.Decimal `json:"revenue_total"`
	ExpenseTotal   decimal.Decimal `json:"expense_total"`
	Profit         decimal.Decimal `json:"profit"`
	OrderCount     int             `json:"order_count"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// DayReport builds the full day report: every shift of the date with chained
// balances and top items, plus daily totals.
func (s *Service) DayReport(ctx context.Context, date ledger.Date) (report DayReport, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport("day", resultLabel(err), time.Since(start)) }()

	entries, err := s.chain.ResolveBalances(ctx, []ledger.Date{date}, s.loc, s.schedule, s.anchor,
		ChainOptions{TopN: s.topN, RankKey: s.rankKey})
	if err != nil {
		return DayReport{}, err
	}

	report = DayReport{Date: date.String(), Timezone: s.loc.String(), Shifts: entries}
	for _, entry := range entries {
		report.Totals.RevenueTotal = report.Totals.RevenueTotal.Add(entry.RevenueTotal)
		report.Totals.ExpenseTotal = report.Totals.ExpenseTotal.Add(entry.ExpenseTotal)
		report.Totals.Profit = report.Totals.Profit.Add(entry.Profit)
		report.Totals.OrderCount += entry.OrderCount
	}
	report.Totals.OpeningBalance = entries[0].OpeningBalance
	report.Totals.ClosingBalance = entries[len(entries)-1].ClosingBalance
	if report.Totals.OrderCount > 0 {
		report.Totals.AvgOrderValue = report.Totals.RevenueTotal.
			Div(decimal.NewFromInt(int64(report.Totals.OrderCount))).Round(2)
	}
	return report, nil
}

// DaySummary is one day's line in a range summary.
type DaySummary struct {
	Date         string          `json:"date"`
	DayName      string          `json:"day_name"`
	RevenueTotal decimal.Decimal `json:"revenue_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Profit       decimal.Decimal `json:"profit"`
	OrderCount   int             `json:"order_count"`
}

// RangeTotals aggregates a whole summary range.
type RangeTotals struct {
	RevenueTotal    decimal.Decimal `json:"revenue_total"`
	ExpenseTotal    decimal.Decimal `json:"expense_total"`
	Profit          decimal.Decimal `json:"profit"`
	OrderCount      int             `json:"order_count"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`
	AvgDailyOrders  decimal.Decimal `json:"avg_daily_orders"`
}

// RangeSummary is the multi-day report.
type RangeSummary struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Days      []DaySummary `json:"days"`
	Totals    RangeTotals  `json:"totals"`
	BestDay   *DaySummary  `json:"best_day,omitempty"`
}

// RangeSummary builds per-day totals, grand totals and the best day for an
// inclusive date range. Days are aggregated in parallel; each (date, shift)
// span is an independent unit of work.
func (s *Service) RangeSummary(ctx context.Context, start, end ledger.Date) (summary RangeSummary, err error) {
	began := time.Now()
	defer func() { metrics.ObserveReport("range", resultLabel(err), time.Since(began)) }()

	dates, err := ledger.DatesBetween(start, end)
	if err != nil {
		return RangeSummary{}, err
	}

	days := make([]DaySummary, len(dates))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, date := range dates {
		i, date := i, date
		group.Go(func() error {
			span := s.schedule.DaySpan(date, s.loc)
			revenues, expenses, err := queryWindow(groupCtx, s.revenue, s.expense, span)
			if err != nil {
				return err
			}
			totals := ledger.Aggregate(span, revenues, expenses)
			days[i] = DaySummary{
				Date:         date.String(),
				DayName:      date.Weekday().String(),
				RevenueTotal: totals.RevenueTotal,
				ExpenseTotal: totals.ExpenseTotal,
				Profit:       totals.Profit,
				OrderCount:   totals.OrderCount,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return RangeSummary{}, err
	}

	summary = RangeSummary{StartDate: start.String(), EndDate: end.String(), Days: days}
	var best *DaySummary
	for i := range days {
		day := &days[i]
		summary.Totals.RevenueTotal = summary.Totals.RevenueTotal.Add(day.RevenueTotal)
		summary.Totals.ExpenseTotal = summary.Totals.ExpenseTotal.Add(day.ExpenseTotal)
		summary.Totals.Profit = summary.Totals.Profit.Add(day.Profit)
		summary.Totals.OrderCount += day.OrderCount
		// Strictly greater keeps the earliest date on revenue ties.
		if best == nil || day.RevenueTotal.GreaterThan(best.RevenueTotal) {
			best = day
		}
	}
	dayCount := decimal.NewFromInt(int64(len(days)))
	summary.Totals.AvgDailyRevenue = summary.Totals.RevenueTotal.Div(dayCount).Round(2)
	summary.Totals.AvgDailyOrders = decimal.NewFromInt(int64(summary.Totals.OrderCount)).Div(dayCount).Round(2)
	if best != nil {
		copied := *best
		summary.BestDay = &copied
	}
	return summary, nil
}

// Period is an inclusive date range.
type Period struct {
	Start ledger.Date
	End   ledger.Date
}

// PeriodTotals is one side of a comparison.
type PeriodTotals struct {
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	RevenueTotal decimal.Decimal `json:"revenue_total"`
	OrderCount   int             `json:"order_count"`
}

// Comparison reports deltas between a current and a baseline period.
// Percentage changes are nil, not an error, when the baseline value is zero.
type Comparison struct {
	Current             PeriodTotals     `json:"current"`
	Baseline            PeriodTotals     `json:"baseline"`
	RevenueDelta        decimal.Decimal  `json:"revenue_delta"`
	RevenuePctChange    *decimal.Decimal `json:"revenue_pct_change,omitempty"`
	OrderCountDelta     int              `json:"order_count_delta"`
	OrderCountPctChange *decimal.Decimal `json:"order_count_pct_change,omitempty"`
}

// Compare computes revenue and order-count deltas of a current period against
// a baseline period.
func (s *Service) Compare(ctx context.Context, current, baseline Period) (cmp Comparison, err error) {
	began := time.Now()
	defer func() { metrics.ObserveReport("compare", resultLabel(err), time.Since(began)) }()

	var currentTotals, baselineTotals PeriodTotals
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		currentTotals, err = s.periodTotals(groupCtx, current)
		return err
	})
	group.Go(func() error {
		var err error
		baselineTotals, err = s.periodTotals(groupCtx, baseline)
		return err
	})
	if err := group.Wait(); err != nil {
		return Comparison{}, err
	}

	cmp = Comparison{
		Current:         currentTotals,
		Baseline:        baselineTotals,
		RevenueDelta:    currentTotals.RevenueTotal.Sub(baselineTotals.RevenueTotal),
		OrderCountDelta: currentTotals.OrderCount - baselineTotals.OrderCount,
	}
	if !baselineTotals.RevenueTotal.IsZero() {
		pct := cmp.RevenueDelta.Div(baselineTotals.RevenueTotal).Mul(decimal.NewFromInt(100)).Round(2)
		cmp.RevenuePctChange = &pct
	}
	if baselineTotals.OrderCount != 0 {
		pct := decimal.NewFromInt(int64(cmp.OrderCountDelta)).
			Div(decimal.NewFromInt(int64(baselineTotals.OrderCount))).
			Mul(decimal.NewFromInt(100)).Round(2)
		cmp.OrderCountPctChange = &pct
	}
	return cmp, nil
}

func (s *Service) periodTotals(ctx context.Context, period Period) (PeriodTotals, error) {
	if period.Start.IsZero() || period.End.IsZero() || period.End.Before(period.Start) {
		return PeriodTotals{}, fmt.Errorf("%w: %s..%s", ledger.ErrInvalidDateRange, period.Start, period.End)
	}
	span := ledger.Window{
		ShiftName: "period",
		Start:     s.schedule.DaySpan(period.Start, s.loc).Start,
		End:       s.schedule.DaySpan(period.End, s.loc).End,
	}
	revenues, expenses, err := queryWindow(ctx, s.revenue, s.expense, span)
	if err != nil {
		return PeriodTotals{}, err
	}
	totals := ledger.Aggregate(span, revenues, expenses)
	return PeriodTotals{
		StartDate:    period.Start.String(),
		EndDate:      period.End.String(),
		RevenueTotal: totals.RevenueTotal,
		OrderCount:   totals.OrderCount,
	}, nil
}

// HourBucket is one clock hour of a date's hourly breakdown.
type HourBucket struct {
	HourStart  time.Time       `json:"hour_start"`
	Hour       int             `json:"hour"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// HourlyBreakdown returns one zero-filled bucket per local clock hour across
// the whole span of the date's shifts, in chronological order.
func (s *Service) HourlyBreakdown(ctx context.Context, date ledger.Date) (buckets []HourBucket, err error) {
	began := time.Now()
	defer func() { metrics.ObserveReport("hourly", resultLabel(err), time.Since(began)) }()

	span := s.schedule.DaySpan(date, s.loc)
	revenues, err := s.revenue.QueryRevenue(ctx, span)
	if err != nil {
		return nil, &SourceError{Source: "revenue", Err: err}
	}

	for cursor := truncateHour(span.Start, s.loc); cursor.Before(span.End); {
		next := nextHour(cursor, s.loc)
		bucket := HourBucket{HourStart: cursor.In(s.loc), Hour: cursor.In(s.loc).Hour()}
		window := ledger.Window{Start: cursor, End: next}
		for _, event := range revenues {
			if !span.Contains(event.Timestamp) || !window.Contains(event.Timestamp) {
				continue
			}
			bucket.OrderCount++
			bucket.Revenue = bucket.Revenue.Add(event.Amount)
		}
		buckets = append(buckets, bucket)
		cursor = next
	}
	return buckets, nil
}

// LowPerformersReport lists the weakest-selling items across a range.
type LowPerformersReport struct {
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Items     []ledger.ItemSales `json:"items"`
}

// LowPerformers ranks items ascending by sold quantity across the range.
func (s *Service) LowPerformers(ctx context.Context, start, end ledger.Date, n int) (report LowPerformersReport, err error) {
	began := time.Now()
	defer func() { metrics.ObserveReport("low_performers", resultLabel(err), time.Since(began)) }()

	if n <= 0 {
		n = s.topN
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return LowPerformersReport{}, fmt.Errorf("%w: %s..%s", ledger.ErrInvalidDateRange, start, end)
	}
	span := ledger.Window{
		ShiftName: "period",
		Start:     s.schedule.DaySpan(start, s.loc).Start,
		End:       s.schedule.DaySpan(end, s.loc).End,
	}
	revenues, err := s.revenue.QueryRevenue(ctx, span)
	if err != nil {
		return LowPerformersReport{}, &SourceError{Source: "revenue", Err: err}
	}
	items, err := ledger.RankItemsAscending(span, revenues, n)
	if err != nil {
		return LowPerformersReport{}, err
	}
	return LowPerformersReport{StartDate: start.String(), EndDate: end.String(), Items: items}, nil
}

// EntityExpense aggregates the expenses attributed to one entity.
type EntityExpense struct {
	Entity     string          `json:"entity"`
	EntityName string          `json:"entity_name,omitempty"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
}

// EntityExpenseReport breaks a date's expenses of one category down by
// attributed entity and sub-category.
type EntityExpenseReport struct {
	Date          string                       `json:"date"`
	Category      ledger.ExpenseCategory       `json:"category"`
	Total         decimal.Decimal              `json:"total"`
	Entities      []EntityExpense              `json:"entities"`
	SubCategories map[string]ledger.GroupTotal `json:"sub_categories,omitempty"`
}

// EntityExpenses groups one date's expenses of a category by their attributed
// worker or material entity. The entity reference stays opaque to the engine.
func (s *Service) EntityExpenses(ctx context.Context, date ledger.Date, category ledger.ExpenseCategory) (report EntityExpenseReport, err error) {
	began := time.Now()
	defer func() { metrics.ObserveReport("entity_expenses", resultLabel(err), time.Since(began)) }()

	span := s.schedule.DaySpan(date, s.loc)
	expenses, err := s.expense.QueryExpenses(ctx, span)
	if err != nil {
		return EntityExpenseReport{}, &SourceError{Source: "expense", Err: err}
	}

	report = EntityExpenseReport{Date: date.String(), Category: category}
	byEntity := make(map[string]*EntityExpense)
	subCategories := make(map[string]ledger.GroupTotal)
	for _, event := range expenses {
		if !span.Contains(event.Timestamp) || event.Category != category {
			continue
		}
		report.Total = report.Total.Add(event.Amount)
		entity := byEntity[event.Entity]
		if entity == nil {
			entity = &EntityExpense{Entity: event.Entity, EntityName: event.EntityName}
			byEntity[event.Entity] = entity
		}
		entity.Count++
		entity.Total = entity.Total.Add(event.Amount)
		if event.SubCategory != "" {
			group := subCategories[event.SubCategory]
			group.Count++
			group.Total = group.Total.Add(event.Amount)
			subCategories[event.SubCategory] = group
		}
	}
	for _, entity := range byEntity {
		report.Entities = append(report.Entities, *entity)
	}
	sort.Slice(report.Entities, func(i, j int) bool {
		if !report.Entities[i].Total.Equal(report.Entities[j].Total) {
			return report.Entities[i].Total.GreaterThan(report.Entities[j].Total)
		}
		return report.Entities[i].Entity < report.Entities[j].Entity
	})
	if len(subCategories) > 0 {
		report.SubCategories = subCategories
	}
	return report, nil
}

func truncateHour(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc).UTC()
}

func nextHour(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour()+1, 0, 0, 0, loc).UTC()
}

func resultLabel(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
