package memory

import (
	"context"
	"sort"
	"sync"

	ledger "restobill/internal/ledger/domain"
)

// EventStore is an in-memory event feed for demo/testing. It implements both
// the revenue and expense source interfaces. Events are served sorted by
// timestamp; window filtering follows the half-open convention.
type EventStore struct {
	mu       sync.RWMutex
	revenues []ledger.RevenueEvent
	expenses []ledger.ExpenseEvent
}

// NewEventStore constructs an empty store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// AddRevenue records revenue events.
func (s *EventStore) AddRevenue(events ...ledger.RevenueEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenues = append(s.revenues, events...)
	sort.SliceStable(s.revenues, func(i, j int) bool {
		return s.revenues[i].Timestamp.Before(s.revenues[j].Timestamp)
	})
}

// AddExpense records expense events.
func (s *EventStore) AddExpense(events ...ledger.ExpenseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, events...)
	sort.SliceStable(s.expenses, func(i, j int) bool {
		return s.expenses[i].Timestamp.Before(s.expenses[j].Timestamp)
	})
}

// QueryRevenue returns revenue events inside the window.
func (s *EventStore) QueryRevenue(ctx context.Context, window ledger.Window) ([]ledger.RevenueEvent, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ledger.RevenueEvent
	for _, event := range s.revenues {
		if window.Contains(event.Timestamp) {
			result = append(result, event)
		}
	}
	return result, nil
}

// QueryExpenses returns expense events inside the window.
func (s *EventStore) QueryExpenses(ctx context.Context, window ledger.Window) ([]ledger.ExpenseEvent, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ledger.ExpenseEvent
	for _, event := range s.expenses {
		if window.Contains(event.Timestamp) {
			result = append(result, event)
		}
	}
	return result, nil
}
