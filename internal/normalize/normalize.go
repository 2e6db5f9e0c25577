// Package normalize turns observations quoted against the home currency into
// a dense table of cross rates for every requested base currency.
package normalize

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

// DivisionPrecision is the number of decimal places kept by derived rates
const DivisionPrecision = 16

var one = decimal.NewFromInt(1)

// Params selects what the engine emits
type Params struct {
	// Selected are the source currencies the user asked for; Home is always added
	Selected []currency.Code
	// Bases are the denominators of the output, Home and/or table currencies
	Bases []currency.Code
	// Start and End bound the observation dates, inclusive. A zero value is unbounded.
	Start time.Time
	End   time.Time
}

// Engine derives cross-rate tables from a fixed currency table
type Engine struct {
	Table currency.Table
}

// New creates an engine over table
func New(table currency.Table) *Engine {
	return &Engine{Table: table}
}

// quotes holds the rate of each currency against Home on one date
type quotes map[currency.Code]decimal.Decimal

// Build derives the result table. It does not modify obs and its output
// depends only on its inputs, never on map iteration order.
func (e *Engine) Build(obs []exrate.RawObservation, p Params) (exrate.ResultTable, error) {
	selected, err := e.Table.Canonical(p.Selected, false)
	if err != nil {
		return exrate.ResultTable{}, validation(err)
	}
	if len(selected) == 0 {
		return exrate.ResultTable{}, exrate.NewValidationError("no source currencies selected")
	}

	bases, err := e.Table.Canonical(p.Bases, true)
	if err != nil {
		return exrate.ResultTable{}, validation(err)
	}
	if len(bases) == 0 {
		return exrate.ResultTable{}, exrate.NewValidationError("no base currencies selected")
	}

	dates, byDate := group(obs, selected, p.Start, p.End)
	if len(dates) == 0 {
		return exrate.ResultTable{}, exrate.NewNoDataError("no observations for the selected currencies and dates")
	}

	sources := append([]currency.Code{currency.Home}, selected...)

	var records []exrate.CrossRateRecord
	for _, date := range dates {
		for _, base := range bases {
			records = append(records, crossRates(date, base, byDate[date], sources)...)
		}
	}

	return exrate.NewResultTable(records), nil
}

// group indexes valid observations of the selected currencies by date.
// The first valid observation of a (date, currency) pair wins.
func group(obs []exrate.RawObservation, selected []currency.Code, start, end time.Time) ([]time.Time, map[time.Time]quotes) {
	wanted := make(map[currency.Code]bool, len(selected))
	for _, c := range selected {
		wanted[c] = true
	}

	byDate := make(map[time.Time]quotes)
	var dates []time.Time
	for _, o := range obs {
		if !o.Valid || !wanted[o.Currency] {
			continue
		}
		date := exrate.CalendarDate(o.Period)
		if !start.IsZero() && date.Before(exrate.CalendarDate(start)) {
			continue
		}
		if !end.IsZero() && date.After(exrate.CalendarDate(end)) {
			continue
		}

		q, ok := byDate[date]
		if !ok {
			q = make(quotes)
			byDate[date] = q
			dates = append(dates, date)
		}
		if _, seen := q[o.Currency]; !seen {
			q[o.Currency] = o.Value
		}
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates, byDate
}

// crossRates emits the records of one (date, base) pair. Pairs with a missing
// observation are skipped, never defaulted.
func crossRates(date time.Time, base currency.Code, q quotes, sources []currency.Code) []exrate.CrossRateRecord {
	out := []exrate.CrossRateRecord{
		{Date: date, Base: base, Source: base, Rate: one},
	}

	if base == currency.Home {
		for _, s := range sources {
			if s == base {
				continue
			}
			if rate, ok := q[s]; ok {
				out = append(out, exrate.CrossRateRecord{Date: date, Base: base, Source: s, Rate: rate})
			}
		}
		return out
	}

	baseRate, ok := q[base]
	if !ok {
		return out
	}

	for _, s := range sources {
		if s == base {
			continue
		}

		var rate decimal.Decimal
		if s == currency.Home {
			rate = one.DivRound(baseRate, DivisionPrecision)
		} else {
			sourceRate, ok := q[s]
			if !ok {
				continue
			}
			rate = sourceRate.DivRound(baseRate, DivisionPrecision)
		}
		out = append(out, exrate.CrossRateRecord{Date: date, Base: base, Source: s, Rate: rate})
	}
	return out
}

func validation(err error) error {
	if errors.Is(err, currency.ErrUnknownCode) {
		return exrate.NewValidationError(err.Error())
	}
	return err
}
