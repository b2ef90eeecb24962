package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ledger "restobill/internal/ledger/domain"
	"restobill/internal/ledger/infrastructure/memory"
)

func money(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func testSchedule(t *testing.T) ledger.Schedule {
	t.Helper()
	shifts := []ledger.ShiftDefinition{
		{Name: "Morning", Start: mustTimeOfDay(t, "07:00"), End: mustTimeOfDay(t, "16:00")},
		{Name: "Night", Start: mustTimeOfDay(t, "16:00"), End: mustTimeOfDay(t, "02:00"), RollsOver: true},
		{Name: "Closed", Start: mustTimeOfDay(t, "02:00"), End: mustTimeOfDay(t, "07:00")},
	}
	schedule, err := ledger.NewSchedule(shifts)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return schedule
}

func mustTimeOfDay(t *testing.T, value string) ledger.TimeOfDay {
	t.Helper()
	tod, err := ledger.ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("time of day %q: %v", value, err)
	}
	return tod
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := ledger.LoadTimezone("Asia/Kolkata")
	if err != nil {
		t.Fatalf("timezone: %v", err)
	}
	return loc
}

func localTime(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc).UTC()
}

func revenueAt(t *testing.T, ts time.Time, amount string) ledger.RevenueEvent {
	t.Helper()
	return ledger.RevenueEvent{
		ID:            ts.Format(time.RFC3339),
		Amount:        money(t, amount),
		Timestamp:     ts,
		PaymentMethod: ledger.PaymentCash,
		OrderChannel:  ledger.ChannelDineIn,
	}
}

func expenseAt(t *testing.T, ts time.Time, amount string) ledger.ExpenseEvent {
	t.Helper()
	return ledger.ExpenseEvent{
		ID:        "exp-" + ts.Format(time.RFC3339),
		Amount:    money(t, amount),
		Timestamp: ts,
		Category:  ledger.ExpenseMaterial,
	}
}

func TestResolveBalances_ChainsAcrossShiftsAndDays(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()

	// Day one: 500 revenue in the morning, 300 at night, 200 expense at night.
	store.AddRevenue(
		revenueAt(t, localTime(loc, 2024, time.March, 1, 12, 0), "500"),
		revenueAt(t, localTime(loc, 2024, time.March, 1, 20, 0), "300"),
	)
	store.AddExpense(expenseAt(t, localTime(loc, 2024, time.March, 1, 21, 0), "200"))
	// Day two: 150 revenue after midnight, still day one's night shift.
	store.AddRevenue(revenueAt(t, localTime(loc, 2024, time.March, 2, 1, 30), "150"))
	// Day two morning: 400 revenue.
	store.AddRevenue(revenueAt(t, localTime(loc, 2024, time.March, 2, 11, 0), "400"))

	resolver, err := NewChainResolver(store, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	dates := []ledger.Date{
		{Year: 2024, Month: time.March, Day: 1},
		{Year: 2024, Month: time.March, Day: 2},
	}
	anchor := ledger.Anchor{
		Instant: localTime(loc, 2024, time.March, 1, 7, 0),
		Balance: money(t, "1000"),
	}
	entries, err := resolver.ResolveBalances(context.Background(), dates, loc, testSchedule(t), anchor, ChainOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}

	morning := entries[0]
	if morning.Window.ShiftName != "Morning" {
		t.Fatalf("expected Morning first, got %s", morning.Window.ShiftName)
	}
	if !morning.OpeningBalance.Equal(money(t, "1000")) {
		t.Fatalf("expected opening 1000, got %s", morning.OpeningBalance)
	}
	if !morning.ClosingBalance.Equal(money(t, "1500")) {
		t.Fatalf("expected morning closing 1500, got %s", morning.ClosingBalance)
	}

	night := entries[1]
	if night.Window.ShiftName != "Night" {
		t.Fatalf("expected Night second, got %s", night.Window.ShiftName)
	}
	// 300 + 150 revenue, 200 expense: the post-midnight order belongs here.
	if !night.RevenueTotal.Equal(money(t, "450")) {
		t.Fatalf("expected night revenue 450, got %s", night.RevenueTotal)
	}
	if !night.OpeningBalance.Equal(money(t, "1500")) {
		t.Fatalf("expected night opening 1500, got %s", night.OpeningBalance)
	}
	if !night.ClosingBalance.Equal(money(t, "1750")) {
		t.Fatalf("expected night closing 1750, got %s", night.ClosingBalance)
	}

	// Day boundary: day two's first shift opens with day one's last closing.
	if entries[3].Window.ShiftName != "Morning" || entries[3].OrderCount != 1 {
		t.Fatalf("expected day two morning with one order, got %s/%d", entries[3].Window.ShiftName, entries[3].OrderCount)
	}
	if !entries[3].OpeningBalance.Equal(entries[2].ClosingBalance) {
		t.Fatalf("day boundary opening %s != prior closing %s", entries[3].OpeningBalance, entries[2].ClosingBalance)
	}
	last := entries[len(entries)-1]
	if !last.ClosingBalance.Equal(money(t, "2150")) {
		t.Fatalf("expected final closing 2150, got %s", last.ClosingBalance)
	}
}

func TestResolveBalances_OpeningBeforeAnchorUsesAnchorBalance(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()
	resolver, err := NewChainResolver(store, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	anchor := ledger.Anchor{
		Instant: localTime(loc, 2024, time.June, 1, 7, 0),
		Balance: money(t, "250"),
	}
	entries, err := resolver.ResolveBalances(context.Background(),
		[]ledger.Date{{Year: 2024, Month: time.June, Day: 1}}, loc, testSchedule(t), anchor, ChainOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !entries[0].OpeningBalance.Equal(money(t, "250")) {
		t.Fatalf("expected anchor balance 250, got %s", entries[0].OpeningBalance)
	}
}

func TestResolveBalances_ReplaysProfitSinceAnchor(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()
	// Profit accumulated before the requested date.
	store.AddRevenue(revenueAt(t, localTime(loc, 2024, time.June, 1, 12, 0), "900"))
	store.AddExpense(expenseAt(t, localTime(loc, 2024, time.June, 1, 13, 0), "100"))

	resolver, err := NewChainResolver(store, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	anchor := ledger.Anchor{
		Instant: localTime(loc, 2024, time.June, 1, 7, 0),
		Balance: money(t, "0"),
	}
	entries, err := resolver.ResolveBalances(context.Background(),
		[]ledger.Date{{Year: 2024, Month: time.June, Day: 2}}, loc, testSchedule(t), anchor, ChainOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !entries[0].OpeningBalance.Equal(money(t, "800")) {
		t.Fatalf("expected opening 800, got %s", entries[0].OpeningBalance)
	}
}

func TestResolveBalances_Idempotent(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()
	store.AddRevenue(revenueAt(t, localTime(loc, 2024, time.March, 1, 12, 0), "123.45"))
	store.AddExpense(expenseAt(t, localTime(loc, 2024, time.March, 1, 20, 0), "23.45"))

	resolver, err := NewChainResolver(store, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	dates := []ledger.Date{{Year: 2024, Month: time.March, Day: 1}}
	first, err := resolver.ResolveBalances(context.Background(), dates, loc, testSchedule(t), ledger.Anchor{}, ChainOptions{})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := resolver.ResolveBalances(context.Background(), dates, loc, testSchedule(t), ledger.Anchor{}, ChainOptions{})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	for i := range first {
		if !first[i].ClosingBalance.Equal(second[i].ClosingBalance) {
			t.Fatalf("run drift at %d: %s vs %s", i, first[i].ClosingBalance, second[i].ClosingBalance)
		}
	}
}

func TestResolveBalances_RejectsUnorderedDates(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()
	resolver, err := NewChainResolver(store, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	dates := []ledger.Date{
		{Year: 2024, Month: time.March, Day: 2},
		{Year: 2024, Month: time.March, Day: 1},
	}
	if _, err := resolver.ResolveBalances(context.Background(), dates, loc, testSchedule(t), ledger.Anchor{}, ChainOptions{}); !errors.Is(err, ledger.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

type failingRevenue struct{ err error }

func (f failingRevenue) QueryRevenue(context.Context, ledger.Window) ([]ledger.RevenueEvent, error) {
	return nil, f.err
}

func TestResolveBalances_FeedFailurePropagates(t *testing.T) {
	loc := kolkata(t)
	store := memory.NewEventStore()
	feedErr := errors.New("connection refused")
	resolver, err := NewChainResolver(failingRevenue{err: feedErr}, store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	_, err = resolver.ResolveBalances(context.Background(),
		[]ledger.Date{{Year: 2024, Month: time.March, Day: 1}}, loc, testSchedule(t), ledger.Anchor{}, ChainOptions{})
	if err == nil {
		t.Fatal("expected feed failure, got report")
	}
	var sourceErr *SourceError
	if !errors.As(err, &sourceErr) || sourceErr.Source != "revenue" {
		t.Fatalf("expected revenue SourceError, got %v", err)
	}
	if !errors.Is(err, feedErr) {
		t.Fatalf("expected wrapped feed error, got %v", err)
	}
}
