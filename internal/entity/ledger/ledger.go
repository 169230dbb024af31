package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// AmountScale is the number of fractional digits kept for money.
const AmountScale = 4

// MaxAmount bounds a single transaction amount (exclusive).
var MaxAmount = decimal.New(1, 14)

// AmountFits reports whether the amount has at most AmountScale fractional digits
// and stays below MaxAmount.
func AmountFits(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(AmountScale)) && amount.LessThan(MaxAmount)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

type Category struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Kind      Kind      `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is one recorded money movement. CategoryIcon is a copy taken at
// creation time and is not refreshed when the category changes.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         Kind            `json:"type"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	CategoryIcon string          `json:"categoryIcon"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewTransaction is the write request for a transaction.
type NewTransaction struct {
	Amount      decimal.Decimal
	Kind        Kind
	Date        time.Time
	Category    string
	Description string
}

type HistoryTransaction struct {
	Transaction
	FormattedAmount string `json:"formattedAmount"`
}

type MonthAggregate struct {
	UserID  string
	Year    int
	Month   int
	Day     int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

type YearAggregate struct {
	UserID  string
	Year    int
	Month   int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// HistoryPoint is one bar of the history chart. Day is zero for year series.
type HistoryPoint struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Day     int             `json:"day,omitempty"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type CategoryStat struct {
	Category     string          `json:"category"`
	CategoryIcon string          `json:"categoryIcon"`
	Kind         Kind            `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
}

type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// PeriodKey holds the UTC calendar components used to address aggregate rows.
// Month is zero based.
type PeriodKey struct {
	Year  int
	Month int
	Day   int
}

func PeriodOf(t time.Time) PeriodKey {
	u := t.UTC()
	return PeriodKey{
		Year:  u.Year(),
		Month: int(u.Month()) - 1,
		Day:   u.Day(),
	}
}

// Split returns the income and expense deltas for an amount of the given kind.
func Split(kind Kind, amount decimal.Decimal) (income, expense decimal.Decimal) {
	if kind == Income {
		return amount, decimal.Zero
	}
	return decimal.Zero, amount
}

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a committed ledger write. It is what downstream caches react to.
type Change struct {
	UserID        string     `json:"userId"`
	Kind          ChangeKind `json:"kind"`
	TransactionID uuid.UUID  `json:"transactionId"`
	At            time.Time  `json:"at"`
}
