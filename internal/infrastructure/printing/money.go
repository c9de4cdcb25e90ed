package printing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter formats amounts for one locale and currency
type MoneyFormatter struct {
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	scale   int
}

// NewMoneyFormatter parses a BCP 47 locale and an ISO 4217 code, falling
// back to pt-BR and BRL when either is invalid
func NewMoneyFormatter(locale, code string) *MoneyFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		unit = currency.BRL
	}
	p := message.NewPrinter(tag)
	scale, _ := currency.Standard.Rounding(unit)
	return &MoneyFormatter{
		printer: p,
		unit:    unit,
		symbol:  p.Sprint(currency.NarrowSymbol(unit)),
		scale:   scale,
	}
}

// Format renders amount with the currency symbol, e.g. "R$ 1.234,56"
func (f *MoneyFormatter) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + f.symbol + " " + f.Number(amount)
}

// Number renders amount without a symbol using locale separators
func (f *MoneyFormatter) Number(amount decimal.Decimal) string {
	v, _ := amount.Round(int32(f.scale)).Float64()
	return f.printer.Sprint(number.Decimal(v, number.Scale(f.scale)))
}

// Currency returns the ISO code
func (f *MoneyFormatter) Currency() string {
	return f.unit.String()
}
