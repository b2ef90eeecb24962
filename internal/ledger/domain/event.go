package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how an order was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// OrderChannel identifies how an order reached the kitchen.
type OrderChannel string

const (
	ChannelDineIn   OrderChannel = "dine_in"
	ChannelTakeaway OrderChannel = "takeaway"
	ChannelDelivery OrderChannel = "delivery"
)

// ExpenseCategory classifies an expense event.
type ExpenseCategory string

const (
	ExpenseWorker   ExpenseCategory = "worker"
	ExpenseMaterial ExpenseCategory = "material"
	ExpenseOther    ExpenseCategory = "other"
)

// LineItem is one dish position on a captured order.
type LineItem struct {
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Category      string          `json:"category"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ExtendedPrice decimal.Decimal `json:"extended_price"`
}

// RevenueEvent is an immutable fact produced by order capture. Reversals, if
// the feed emits them, appear as additional events with negative amounts; the
// engine never mutates or deletes facts.
type RevenueEvent struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	OrderChannel  OrderChannel    `json:"order_channel"`
	LineItems     []LineItem      `json:"line_items"`
}

// ExpenseEvent is an immutable expense fact. Entity is an opaque worker or
// material reference attributed by the expense capture collaborator.
type ExpenseEvent struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Category    ExpenseCategory `json:"category"`
	SubCategory string          `json:"sub_category,omitempty"`
	Entity      string          `json:"entity,omitempty"`
	EntityName  string          `json:"entity_name,omitempty"`
}
