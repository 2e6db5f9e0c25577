package parse

import (
	"fmt"
	"strings"
	"unicode"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

// Matcher is one strategy for locating a column in a frame
type Matcher interface {
	// Locate returns the index of the matching column
	Locate(f Frame) (int, bool)
	String() string
}

// ByName matches the first candidate header name present in the frame
type ByName []string

// Locate implements Matcher
func (p ByName) Locate(f Frame) (int, bool) {
	for _, name := range p {
		for i, h := range f.Header {
			if h == name {
				return i, true
			}
		}
	}
	return -1, false
}

func (p ByName) String() string {
	return fmt.Sprintf("names %q", []string(p))
}

// ByContent matches the first column where any cell satisfies Match
type ByContent struct {
	Label string
	Match func(cell string) bool
}

// Locate implements Matcher
func (p ByContent) Locate(f Frame) (int, bool) {
	for c := range f.Header {
		for r := range f.Rows {
			if p.Match(f.Cell(r, c)) {
				return c, true
			}
		}
	}
	return -1, false
}

func (p ByContent) String() string {
	return "content " + p.Label
}

// Column names a logical column and the matchers that find it, in priority order
type Column struct {
	Name     string
	Matchers []Matcher
}

// Locate evaluates the matchers in order; the first match wins
func (c Column) Locate(f Frame) (int, error) {
	for _, p := range c.Matchers {
		if i, ok := p.Locate(f); ok {
			return i, nil
		}
	}

	tried := make([]string, len(c.Matchers))
	for i, p := range c.Matchers {
		tried[i] = p.String()
	}
	return -1, exrate.NewSchemaError(fmt.Sprintf("cannot locate %s column (tried %s; header %q)",
		c.Name, strings.Join(tried, ", "), f.Header))
}

// CurrencyColumn finds the column naming the observed currency
func CurrencyColumn(table currency.Table) Column {
	return Column{
		Name:     "currency",
		Matchers: []Matcher{
			ByName{"SERIES_CODE", "Currency code", "currency", "Currency", "CurrencyCode"},
			ByContent{Label: "known currency codes", Match: containsCode(table)},
		},
	}
}

// DateColumn finds the observation date column
func DateColumn() Column {
	return Column{
		Name:     "date",
		Matchers: []Matcher{ByName{"TIME_PERIOD", "Date", "date", "DATE", "Period", "Effective_Date"}},
	}
}

// ValueColumn finds the observed rate column
func ValueColumn() Column {
	return Column{
		Name:     "value",
		Matchers: []Matcher{ByName{"OBS_VALUE", "Rate", "rate", "Exchange_Rate", "Value", "value"}},
	}
}

// containsCode reports cells holding a table code as a whole token,
// e.g. "USD" or "RER_USD_ILS"
func containsCode(table currency.Table) func(string) bool {
	return func(cell string) bool {
		tokens := strings.FieldsFunc(cell, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		for _, tok := range tokens {
			if table.Contains(currency.Code(strings.ToUpper(tok))) {
				return true
			}
		}
		return false
	}
}
