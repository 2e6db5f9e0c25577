// Package report summarizes result tables and serializes them for export.
package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

// NotAvailable is shown in place of a metric that cannot be derived
const NotAvailable = "N/A"

// Metric is an integer summary value that may be unavailable
type Metric struct {
	Value     int
	Available bool
}

func (m Metric) String() string {
	if !m.Available {
		return NotAvailable
	}
	return strconv.Itoa(m.Value)
}

// Snapshot is the latest home-currency rate of one selected currency
type Snapshot struct {
	Currency  currency.Code
	Date      time.Time
	Rate      decimal.Decimal
	Available bool
}

// Label returns the pair label, e.g. USD/ILS
func (s Snapshot) Label() string {
	return string(s.Currency) + "/" + string(currency.Home)
}

// Value returns the rate with four decimals, or NotAvailable
func (s Snapshot) Value() string {
	if !s.Available {
		return NotAvailable
	}
	return s.Rate.StringFixed(4)
}

// Summary holds the aggregates shown next to a result table
type Summary struct {
	Records    int
	Currencies int
	DaySpan    Metric
	LatestDate time.Time
	Latest     []Snapshot
}

// Summarize computes the aggregates of t. It never fails: metrics that
// cannot be derived from an empty table are marked unavailable.
func Summarize(t exrate.ResultTable, selected []currency.Code) Summary {
	s := Summary{
		Records:    t.Len(),
		Currencies: len(selected),
		Latest:     make([]Snapshot, 0, len(selected)),
	}

	if dates := t.Dates(); len(dates) > 0 {
		first, last := dates[0], dates[len(dates)-1]
		s.DaySpan = Metric{
			Value:     int(last.Sub(first).Hours()/24) + 1,
			Available: true,
		}
	}

	latest, ok := t.Latest()
	if ok {
		s.LatestDate = latest
	}

	for _, c := range selected {
		snap := Snapshot{Currency: c, Date: latest}
		if ok {
			if r, found := t.Lookup(latest, currency.Home, c); found {
				snap.Rate = r.Rate
				snap.Available = true
			}
		}
		s.Latest = append(s.Latest, snap)
	}

	return s
}
