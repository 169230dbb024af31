package budget

import (
	"github.com/shopspring/decimal"
	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"max.ks1230/budget-tracker/internal/entity/currency"
)

// NewFormatter returns a display formatter for amounts in the given currency,
// printed with the currency's locale. Unknown codes fall back to USD.
func NewFormatter(code string) func(decimal.Decimal) string {
	cur, ok := currency.Lookup(code)
	if !ok {
		cur, _ = currency.Lookup(currency.USD)
	}

	unit, err := xcurrency.ParseISO(cur.Code)
	if err != nil {
		unit = xcurrency.USD
	}
	printer := message.NewPrinter(language.Make(cur.Locale))

	return func(amount decimal.Decimal) string {
		return printer.Sprint(xcurrency.Symbol(unit.Amount(amount.InexactFloat64())))
	}
}
