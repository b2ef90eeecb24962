package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one shift's full financial summary with the chained cash
// balance. ClosingBalance = OpeningBalance + Profit is the sole balance rule;
// nothing else derives a balance.
type LedgerEntry struct {
	ShiftTotals
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// Anchor is the epoch before which no balance history is assumed. The zero
// Anchor (zero instant, zero balance) is equivalent to anchoring at the
// earliest event with a zero starting balance.
type Anchor struct {
	Instant time.Time       `json:"instant"`
	Balance decimal.Decimal `json:"balance"`
}
