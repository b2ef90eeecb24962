package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	ledger "restobill/internal/ledger/domain"
)

// ChainResolver composes the window resolver and the aggregator across
// consecutive shifts and days into gapless opening/closing balances. It holds
// no mutable cross-call state: recomputing the same range twice from an
// unchanged feed yields identical output.
type ChainResolver struct {
	revenue RevenueSource
	expense ExpenseSource
}

// NewChainResolver constructs a resolver.
func NewChainResolver(revenue RevenueSource, expense ExpenseSource) (*ChainResolver, error) {
	if revenue == nil {
		return nil, errors.New("chain resolver: nil revenue source")
	}
	if expense == nil {
		return nil, errors.New("chain resolver: nil expense source")
	}
	return &ChainResolver{revenue: revenue, expense: expense}, nil
}

// ChainOptions controls optional per-shift enrichment.
type ChainOptions struct {
	// TopN > 0 fills TopItems on every entry using RankKey.
	TopN    int
	RankKey ledger.RankKey
}

// ResolveBalances returns one LedgerEntry per shift across the requested
// dates in chronological order. The first entry opens with the anchor balance
// plus the profit accumulated between the anchor instant and the first
// window; every later entry opens with its predecessor's closing balance.
//
// Shift windows are aggregated in parallel (each is an independent pure
// computation); balances chain afterwards in order.
func (r *ChainResolver) ResolveBalances(ctx context.Context, dates []ledger.Date, loc *time.Location, schedule ledger.Schedule, anchor ledger.Anchor, opts ChainOptions) ([]ledger.LedgerEntry, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no dates", ledger.ErrInvalidDateRange)
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, fmt.Errorf("%w: dates out of order at %s", ledger.ErrInvalidDateRange, dates[i])
		}
	}

	var windows []ledger.Window
	for _, date := range dates {
		windows = append(windows, schedule.ResolveDay(date, loc)...)
	}

	entries := make([]ledger.LedgerEntry, len(windows))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, window := range windows {
		i, window := i, window
		group.Go(func() error {
			revenues, expenses, err := queryWindow(groupCtx, r.revenue, r.expense, window)
			if err != nil {
				return err
			}
			entries[i].ShiftTotals = ledger.Aggregate(window, revenues, expenses)
			if opts.TopN > 0 {
				top, err := ledger.RankItems(window, revenues, opts.TopN, opts.RankKey)
				if err != nil {
					return err
				}
				entries[i].TopItems = top
			}
			return nil
		})
	}

	opening, err := r.openingBalance(ctx, windows[0].Start, anchor)
	if err != nil {
		return nil, err
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].OpeningBalance = opening
		entries[i].ClosingBalance = opening.Add(entries[i].Profit)
		opening = entries[i].ClosingBalance
	}
	return entries, nil
}

// openingBalance derives the balance at an instant by replaying all profit
// between the epoch anchor and that instant. By partition additivity this is
// exactly the closing balance a shift-by-shift recomputation would produce.
func (r *ChainResolver) openingBalance(ctx context.Context, at time.Time, anchor ledger.Anchor) (decimal.Decimal, error) {
	if !at.After(anchor.Instant) {
		return anchor.Balance, nil
	}
	prelude := ledger.Window{ShiftName: "prelude", Start: anchor.Instant, End: at}
	revenues, expenses, err := queryWindow(ctx, r.revenue, r.expense, prelude)
	if err != nil {
		return anchor.Balance, err
	}
	totals := ledger.Aggregate(prelude, revenues, expenses)
	return anchor.Balance.Add(totals.Profit), nil
}
