package client

import (
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatCurrency renders an amount for display. Precision is dynamic:
// amounts under one unit keep two to four fraction digits so small per-gram
// prices don't collapse to zero, larger amounts get the usual zero to two.
// Unknown currency codes and unparseable amounts fall back to the raw input.
func FormatCurrency(amount, code string, lang language.Tag) string {
	num, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return amount
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount
	}

	minDigits, maxDigits := 0, 2
	if num < 1 {
		minDigits, maxDigits = 2, 4
	}

	p := message.NewPrinter(lang)
	return p.Sprintf("%v%v",
		currency.Symbol(unit),
		number.Decimal(num,
			number.MinFractionDigits(minDigits),
			number.MaxFractionDigits(maxDigits),
		),
	)
}
