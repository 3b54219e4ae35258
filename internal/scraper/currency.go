package scraper

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultLocale   = "en-US"
	DefaultCurrency = "USD"
)

// CurrencyFormatter renders amounts as grouped currency text for one locale.
// The zero value formats as en-US dollars.
type CurrencyFormatter struct {
	printer *message.Printer
	unit    currency.Unit
}

func NewCurrencyFormatter(locale string, code string) (CurrencyFormatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	if strings.TrimSpace(code) == "" {
		code = DefaultCurrency
	}

	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return CurrencyFormatter{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return CurrencyFormatter{}, fmt.Errorf("parse currency %q: %w", code, err)
	}

	return CurrencyFormatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

func (f CurrencyFormatter) Format(amount float64) string {
	if f.printer == nil {
		f = CurrencyFormatter{printer: message.NewPrinter(language.AmericanEnglish), unit: currency.USD}
	}
	symbol := f.printer.Sprint(currency.NarrowSymbol(f.unit))
	return symbol + f.printer.Sprint(number.Decimal(amount, number.Scale(2)))
}
