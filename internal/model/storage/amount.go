package storage

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"max.ks1230/budget-tracker/internal/entity/ledger"
)

// amountCodec maps money onto the column type of the driver. Postgres keeps
// NUMERIC. Sqlite keeps integer units of 10^-AmountScale because its NUMERIC
// affinity stores fractions as floats.
type amountCodec struct {
	minorUnits bool
}

func (c amountCodec) value(amount decimal.Decimal) interface{} {
	if c.minorUnits {
		return amount.Shift(ledger.AmountScale).IntPart()
	}
	return amount
}

func (c amountCodec) dest(dst *decimal.Decimal) sql.Scanner {
	return &amountScanner{dst: dst, minorUnits: c.minorUnits}
}

type amountScanner struct {
	dst        *decimal.Decimal
	minorUnits bool
}

func (a *amountScanner) Scan(src interface{}) error {
	var v decimal.Decimal
	if err := v.Scan(src); err != nil {
		return err
	}
	if a.minorUnits {
		v = v.Shift(-ledger.AmountScale)
	}
	*a.dst = v
	return nil
}
