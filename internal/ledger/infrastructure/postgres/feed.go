package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "restobill/internal/ledger/domain"
	"restobill/internal/observability/metrics"
)

const (
	defaultOrdersTable     = "orders"
	defaultOrderItemsTable = "order_items"
	defaultExpensesTable   = "expenses"
)

// RevenueFeed reads settled orders from the billing database. The feed is
// read-only; reversals live in the same table as negative-amount rows and
// come back like any other event.
type RevenueFeed struct {
	db         *sql.DB
	orders     string
	orderItems string
}

// RevenueFeedOption configures the feed.
type RevenueFeedOption func(*RevenueFeed)

// WithOrdersTable overrides the orders table name.
func WithOrdersTable(name string) RevenueFeedOption {
	return func(f *RevenueFeed) {
		if name != "" {
			f.orders = name
		}
	}
}

// WithOrderItemsTable overrides the order items table name.
func WithOrderItemsTable(name string) RevenueFeedOption {
	return func(f *RevenueFeed) {
		if name != "" {
			f.orderItems = name
		}
	}
}

// NewRevenueFeed constructs a feed.
func NewRevenueFeed(db *sql.DB, opts ...RevenueFeedOption) (*RevenueFeed, error) {
	if db == nil {
		return nil, errors.New("revenue feed: nil db")
	}
	feed := &RevenueFeed{db: db, orders: defaultOrdersTable, orderItems: defaultOrderItemsTable}
	for _, opt := range opts {
		opt(feed)
	}
	return feed, nil
}

// QueryRevenue returns all orders whose timestamp falls inside the half-open
// window, with their line items attached.
func (f *RevenueFeed) QueryRevenue(ctx context.Context, window ledger.Window) ([]ledger.RevenueEvent, error) {
	if f == nil || f.db == nil {
		return nil, errors.New("revenue feed: nil db")
	}
	rows, err := f.db.QueryContext(ctx, `
SELECT id, amount, created_at, payment_type, order_type
FROM `+f.orders+`
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC`, window.Start, window.End)
	if err != nil {
		metrics.IncFeedQuery("revenue", metrics.ResultError)
		return nil, err
	}
	defer rows.Close()

	var events []ledger.RevenueEvent
	index := make(map[string]int)
	for rows.Next() {
		var event ledger.RevenueEvent
		var payment, channel sql.NullString
		if err := rows.Scan(&event.ID, &event.Amount, &event.Timestamp, &payment, &channel); err != nil {
			metrics.IncFeedQuery("revenue", metrics.ResultError)
			return nil, err
		}
		event.Timestamp = event.Timestamp.UTC()
		if payment.Valid {
			event.PaymentMethod = ledger.PaymentMethod(payment.String)
		}
		if channel.Valid {
			event.OrderChannel = ledger.OrderChannel(channel.String)
		}
		index[event.ID] = len(events)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		metrics.IncFeedQuery("revenue", metrics.ResultError)
		return nil, err
	}

	if len(events) > 0 {
		if err := f.attachItems(ctx, window, events, index); err != nil {
			metrics.IncFeedQuery("revenue", metrics.ResultError)
			return nil, err
		}
	}
	metrics.IncFeedQuery("revenue", metrics.ResultSuccess)
	return events, nil
}

func (f *RevenueFeed) attachItems(ctx context.Context, window ledger.Window, events []ledger.RevenueEvent, index map[string]int) error {
	rows, err := f.db.QueryContext(ctx, `
SELECT i.order_id, i.item_id, i.item_name, i.category, i.quantity, i.unit_price, i.extended_price
FROM `+f.orderItems+` i
JOIN `+f.orders+` o ON o.id = i.order_id
WHERE o.created_at >= $1 AND o.created_at < $2
ORDER BY i.order_id, i.item_id`, window.Start, window.End)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item ledger.LineItem
		var category sql.NullString
		if err := rows.Scan(&orderID, &item.ItemID, &item.ItemName, &category, &item.Quantity, &item.UnitPrice, &item.ExtendedPrice); err != nil {
			return err
		}
		if category.Valid {
			item.Category = category.String
		}
		if at, ok := index[orderID]; ok {
			events[at].LineItems = append(events[at].LineItems, item)
		}
	}
	return rows.Err()
}

// ExpenseFeed reads expense records from the billing database.
type ExpenseFeed struct {
	db       *sql.DB
	expenses string
}

// ExpenseFeedOption configures the feed.
type ExpenseFeedOption func(*ExpenseFeed)

// WithExpensesTable overrides the expenses table name.
func WithExpensesTable(name string) ExpenseFeedOption {
	return func(f *ExpenseFeed) {
		if name != "" {
			f.expenses = name
		}
	}
}

// NewExpenseFeed constructs a feed.
func NewExpenseFeed(db *sql.DB, opts ...ExpenseFeedOption) (*ExpenseFeed, error) {
	if db == nil {
		return nil, errors.New("expense feed: nil db")
	}
	feed := &ExpenseFeed{db: db, expenses: defaultExpensesTable}
	for _, opt := range opts {
		opt(feed)
	}
	return feed, nil
}

// QueryExpenses returns all expenses whose timestamp falls inside the
// half-open window.
func (f *ExpenseFeed) QueryExpenses(ctx context.Context, window ledger.Window) ([]ledger.ExpenseEvent, error) {
	if f == nil || f.db == nil {
		return nil, errors.New("expense feed: nil db")
	}
	rows, err := f.db.QueryContext(ctx, `
SELECT id, amount, created_at, category, sub_category, entity_id, entity_name
FROM `+f.expenses+`
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC`, window.Start, window.End)
	if err != nil {
		metrics.IncFeedQuery("expense", metrics.ResultError)
		return nil, err
	}
	defer rows.Close()

	var events []ledger.ExpenseEvent
	for rows.Next() {
		var event ledger.ExpenseEvent
		var subCategory, entity, entityName sql.NullString
		if err := rows.Scan(&event.ID, &event.Amount, &event.Timestamp, &event.Category, &subCategory, &entity, &entityName); err != nil {
			metrics.IncFeedQuery("expense", metrics.ResultError)
			return nil, err
		}
		event.Timestamp = event.Timestamp.UTC()
		if subCategory.Valid {
			event.SubCategory = subCategory.String
		}
		if entity.Valid {
			event.Entity = entity.String
		}
		if entityName.Valid {
			event.EntityName = entityName.String
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		metrics.IncFeedQuery("expense", metrics.ResultError)
		return nil, err
	}
	metrics.IncFeedQuery("expense", metrics.ResultSuccess)
	return events, nil
}
