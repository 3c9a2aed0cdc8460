// Package currency renders ledger amounts for display.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Default is the ledger's single currency.
const Default = money.EUR

// Format renders amount in the given ISO 4217 currency, e.g. "€1,234.56".
// Values are rounded half away from zero to the currency's minor unit.
func Format(amount decimal.Decimal, code string) string {
	// money.New never returns a nil currency, unlike GetCurrency.
	cur := money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// EUR formats amount in the default currency.
func EUR(amount decimal.Decimal) string {
	return Format(amount, Default)
}
