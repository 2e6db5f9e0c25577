// Package currency holds the fixed set of currency codes quoted by the
// Bank of Israel and the mapping from each code to its SDMX series.
package currency

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Code is a 3-letter ISO-4217 currency code
type Code string

// Home is the currency the source feed quotes every other currency against
const Home Code = "ILS"

// ErrUnknownCode is returned when a code is neither the home currency nor in the table
var ErrUnknownCode = errors.New("unknown currency code")

var seriesPattern = regexp.MustCompile(`^RER_([A-Z]{3})_ILS$`)

// Entry maps one currency to the series identifier that carries its rate against Home
type Entry struct {
	Code   Code
	Series string
}

// Table is an immutable, ordered lookup of the currencies a source can quote.
// The zero value is an empty table.
type Table struct {
	entries []Entry
	index   map[Code]int
}

// NewTable builds a table from entries. Order is preserved and defines the
// canonical order of every selection made against the table.
func NewTable(entries ...Entry) (Table, error) {
	t := Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[Code]int, len(entries)),
	}
	for _, e := range entries {
		code := Normalize(string(e.Code))
		if len(code) != 3 {
			return Table{}, fmt.Errorf("invalid currency code %q", e.Code)
		}
		if code == Home {
			return Table{}, fmt.Errorf("home currency %s cannot be a table entry", Home)
		}
		if _, dup := t.index[code]; dup {
			return Table{}, fmt.Errorf("duplicate currency code %s", code)
		}
		t.index[code] = len(t.entries)
		t.entries = append(t.entries, Entry{Code: code, Series: e.Series})
	}
	return t, nil
}

// Default returns the Bank of Israel representative exchange rate table
func Default() Table {
	codes := []Code{"USD", "EUR", "GBP", "CHF", "JPY", "CAD", "AUD", "NOK", "SEK", "DKK"}
	entries := make([]Entry, 0, len(codes))
	for _, c := range codes {
		entries = append(entries, Entry{Code: c, Series: SeriesFor(c)})
	}
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// SeriesFor returns the BOI series identifier of a code, e.g. RER_USD_ILS
func SeriesFor(c Code) string {
	return fmt.Sprintf("RER_%s_%s", c, Home)
}

// Normalize upper-cases and trims a user supplied code
func Normalize(s string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(s)))
}

// Entries returns a copy of the table entries in table order
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Codes returns the table codes in table order
func (t Table) Codes() []Code {
	out := make([]Code, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Code)
	}
	return out
}

// Contains reports whether c is a table currency. Home is not a table currency.
func (t Table) Contains(c Code) bool {
	_, ok := t.index[c]
	return ok
}

// Known reports whether c is a table currency or Home
func (t Table) Known(c Code) bool {
	return c == Home || t.Contains(c)
}

// Series returns the series identifier for c
func (t Table) Series(c Code) (string, bool) {
	i, ok := t.index[c]
	if !ok {
		return "", false
	}
	return t.entries[i].Series, true
}

// FromSeries resolves a feed cell to a currency. It accepts a series
// identifier or a bare table code.
func (t Table) FromSeries(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	for _, e := range t.entries {
		if e.Series == s {
			return e.Code, true
		}
	}
	if m := seriesPattern.FindStringSubmatch(s); m != nil {
		c := Code(m[1])
		return c, t.Contains(c)
	}
	c := Normalize(s)
	return c, t.Contains(c)
}

// Canonical validates codes against the table, drops duplicates and returns
// them in table order. When allowHome is set the home currency is accepted
// and sorted first.
func (t Table) Canonical(codes []Code, allowHome bool) ([]Code, error) {
	seen := make(map[Code]bool, len(codes))
	for _, raw := range codes {
		c := Normalize(string(raw))
		switch {
		case c == Home && allowHome:
		case t.Contains(c):
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, raw)
		}
		seen[c] = true
	}

	out := make([]Code, 0, len(seen))
	if seen[Home] {
		out = append(out, Home)
	}
	for _, e := range t.entries {
		if seen[e.Code] {
			out = append(out, e.Code)
		}
	}
	return out, nil
}

// SeriesIDs returns the series identifiers of codes, in the given order
func (t Table) SeriesIDs(codes []Code) ([]string, error) {
	ids := make([]string, 0, len(codes))
	for _, c := range codes {
		s, ok := t.Series(c)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, c)
		}
		ids = append(ids, s)
	}
	return ids, nil
}

// ParseList splits a comma separated list such as "usd, EUR" into codes
func ParseList(s string) []Code {
	var out []Code
	for _, part := range strings.Split(s, ",") {
		if c := Normalize(part); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Strings converts codes to plain strings
func Strings(codes []Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
