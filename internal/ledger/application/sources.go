package application

import (
	"context"
	"fmt"
	"time"

	ledger "restobill/internal/ledger/domain"
)

// RevenueSource supplies revenue events for a window: every event with a
// timestamp in the half-open range, no duplicates, stable under repeated
// calls for closed windows. Read consistency within one call is the
// collaborator's contract.
type RevenueSource interface {
	QueryRevenue(ctx context.Context, window ledger.Window) ([]ledger.RevenueEvent, error)
}

// ExpenseSource supplies expense events for a window under the same contract.
type ExpenseSource interface {
	QueryExpenses(ctx context.Context, window ledger.Window) ([]ledger.ExpenseEvent, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// SourceError wraps an event-feed failure. The engine never retries and
// never renders a failed feed as a zero-valued report; the error propagates
// to the caller unchanged.
type SourceError struct {
	Source string
	Err    error
}

// Error implements error.
func (e *SourceError) Error() string {
	return fmt.Sprintf("ledger: %s feed: %v", e.Source, e.Err)
}

// Unwrap exposes the underlying feed error.
func (e *SourceError) Unwrap() error { return e.Err }

func queryWindow(ctx context.Context, revenue RevenueSource, expense ExpenseSource, window ledger.Window) ([]ledger.RevenueEvent, []ledger.ExpenseEvent, error) {
	revenues, err := revenue.QueryRevenue(ctx, window)
	if err != nil {
		return nil, nil, &SourceError{Source: "revenue", Err: err}
	}
	expenses, err := expense.QueryExpenses(ctx, window)
	if err != nil {
		return nil, nil, &SourceError{Source: "expense", Err: err}
	}
	return revenues, expenses, nil
}
