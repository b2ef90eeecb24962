package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RankKey selects the ordering for item rankings.
type RankKey string

const (
	RankByRevenue  RankKey = "revenue"
	RankByQuantity RankKey = "quantity"
)

// ParseRankKey validates a ranking key string.
func ParseRankKey(value string) (RankKey, error) {
	switch RankKey(value) {
	case RankByRevenue, RankByQuantity:
		return RankKey(value), nil
	case "":
		return RankByRevenue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRankKey, value)
	}
}

// GroupTotal is one bucket of a dimensional breakdown.
type GroupTotal struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ItemSales aggregates all line items of one dish inside a window.
type ItemSales struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Category string          `json:"category"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Orders   int             `json:"orders"`
}

// CategoryShare is the revenue contribution of one dish category.
type CategoryShare struct {
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Share       decimal.Decimal `json:"share"`
	UniqueItems int             `json:"unique_items"`
}

// ShiftTotals is the scalar and dimensional aggregate of one window.
// Breakdown maps omit groups with no events in the window.
type ShiftTotals struct {
	Window            Window                         `json:"window"`
	RevenueTotal      decimal.Decimal                `json:"revenue_total"`
	ExpenseTotal      decimal.Decimal                `json:"expense_total"`
	Profit            decimal.Decimal                `json:"profit"`
	OrderCount        int                            `json:"order_count"`
	AvgOrderValue     decimal.Decimal                `json:"avg_order_value"`
	PaymentBreakdown  map[PaymentMethod]GroupTotal   `json:"payment_breakdown,omitempty"`
	ChannelBreakdown  map[OrderChannel]GroupTotal    `json:"channel_breakdown,omitempty"`
	ExpenseByCategory map[ExpenseCategory]GroupTotal `json:"expense_breakdown,omitempty"`
	ItemCategories    []CategoryShare                `json:"item_categories,omitempty"`
	TopItems          []ItemSales                    `json:"top_items,omitempty"`
}

// Aggregate computes totals and breakdowns for one window from the two event
// feeds. It is a pure function: events outside the half-open window are
// ignored, so a caller may pass a superset feed, and concurrent calls are
// safe. All monetary sums are exact decimal arithmetic.
func Aggregate(window Window, revenues []RevenueEvent, expenses []ExpenseEvent) ShiftTotals {
	totals := ShiftTotals{Window: window}

	payments := make(map[PaymentMethod]GroupTotal)
	channels := make(map[OrderChannel]GroupTotal)
	categories := make(map[string]*categoryAccum)
	for _, event := range revenues {
		if !window.Contains(event.Timestamp) {
			continue
		}
		totals.RevenueTotal = totals.RevenueTotal.Add(event.Amount)
		totals.OrderCount++

		pay := payments[event.PaymentMethod]
		pay.Count++
		pay.Total = pay.Total.Add(event.Amount)
		payments[event.PaymentMethod] = pay

		ch := channels[event.OrderChannel]
		ch.Count++
		ch.Total = ch.Total.Add(event.Amount)
		channels[event.OrderChannel] = ch

		for _, item := range event.LineItems {
			accum := categories[item.Category]
			if accum == nil {
				accum = &categoryAccum{items: make(map[string]struct{})}
				categories[item.Category] = accum
			}
			accum.quantity += item.Quantity
			accum.revenue = accum.revenue.Add(item.ExtendedPrice)
			accum.items[item.ItemID] = struct{}{}
		}
	}

	expenseGroups := make(map[ExpenseCategory]GroupTotal)
	for _, event := range expenses {
		if !window.Contains(event.Timestamp) {
			continue
		}
		totals.ExpenseTotal = totals.ExpenseTotal.Add(event.Amount)
		group := expenseGroups[event.Category]
		group.Count++
		group.Total = group.Total.Add(event.Amount)
		expenseGroups[event.Category] = group
	}

	totals.Profit = totals.RevenueTotal.Sub(totals.ExpenseTotal)
	if totals.OrderCount > 0 {
		totals.AvgOrderValue = totals.RevenueTotal.Div(decimal.NewFromInt(int64(totals.OrderCount))).Round(2)
	}
	if len(payments) > 0 {
		totals.PaymentBreakdown = payments
	}
	if len(channels) > 0 {
		totals.ChannelBreakdown = channels
	}
	if len(expenseGroups) > 0 {
		totals.ExpenseByCategory = expenseGroups
	}
	totals.ItemCategories = categoryShares(categories, totals.RevenueTotal)
	return totals
}

type categoryAccum struct {
	quantity int64
	revenue  decimal.Decimal
	items    map[string]struct{}
}

func categoryShares(accums map[string]*categoryAccum, revenueTotal decimal.Decimal) []CategoryShare {
	if len(accums) == 0 {
		return nil
	}
	shares := make([]CategoryShare, 0, len(accums))
	for category, accum := range accums {
		shares = append(shares, CategoryShare{
			Category:    category,
			Quantity:    accum.quantity,
			Revenue:     accum.revenue,
			Share:       Percent(accum.revenue, revenueTotal),
			UniqueItems: len(accum.items),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].Revenue.Equal(shares[j].Revenue) {
			return shares[i].Revenue.GreaterThan(shares[j].Revenue)
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// Percent returns part/whole as a percentage rounded to two places, or zero
// when the whole is zero. Never a division error.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// RankItems flattens the line items of all revenue events inside the window,
// groups them by item id, and returns the first n groups ordered descending
// by the rank key. Ties order ascending by item id. Items whose aggregated
// quantity is zero are excluded.
func RankItems(window Window, revenues []RevenueEvent, n int, key RankKey) ([]ItemSales, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopN, n)
	}
	if key != RankByRevenue && key != RankByQuantity {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRankKey, key)
	}

	items := collectItems(window, revenues)
	sort.Slice(items, func(i, j int) bool {
		if key == RankByQuantity {
			if items[i].Quantity != items[j].Quantity {
				return items[i].Quantity > items[j].Quantity
			}
		} else if !items[i].Revenue.Equal(items[j].Revenue) {
			return items[i].Revenue.GreaterThan(items[j].Revenue)
		}
		return items[i].ItemID < items[j].ItemID
	})
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

// RankItemsAscending returns the n weakest sellers inside the window, ordered
// ascending by sold quantity with revenue as tie-break, then item id.
func RankItemsAscending(window Window, revenues []RevenueEvent, n int) ([]ItemSales, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopN, n)
	}

	items := collectItems(window, revenues)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity < items[j].Quantity
		}
		if !items[i].Revenue.Equal(items[j].Revenue) {
			return items[i].Revenue.LessThan(items[j].Revenue)
		}
		return items[i].ItemID < items[j].ItemID
	})
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

func collectItems(window Window, revenues []RevenueEvent) []ItemSales {
	accum := make(map[string]*ItemSales)
	for _, event := range revenues {
		if !window.Contains(event.Timestamp) {
			continue
		}
		seen := make(map[string]struct{}, len(event.LineItems))
		for _, item := range event.LineItems {
			sales := accum[item.ItemID]
			if sales == nil {
				sales = &ItemSales{ItemID: item.ItemID, ItemName: item.ItemName, Category: item.Category}
				accum[item.ItemID] = sales
			}
			sales.Quantity += item.Quantity
			sales.Revenue = sales.Revenue.Add(item.ExtendedPrice)
			if _, ok := seen[item.ItemID]; !ok {
				sales.Orders++
				seen[item.ItemID] = struct{}{}
			}
		}
	}
	items := make([]ItemSales, 0, len(accum))
	for _, sales := range accum {
		if sales.Quantity == 0 {
			continue
		}
		items = append(items, *sales)
	}
	return items
}
