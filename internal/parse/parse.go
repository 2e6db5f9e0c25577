// Package parse decodes raw rate source payloads into observations.
package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01"}

// Parse decodes a payload and maps each row to a RawObservation.
// Rows whose currency cell names no table currency keep an empty Currency.
func Parse(p exrate.Payload, table currency.Table) ([]exrate.RawObservation, error) {
	frame, err := Decode(p)
	if err != nil {
		return nil, err
	}
	return Observations(frame, table)
}

// Observations maps an already decoded frame to observations
func Observations(f Frame, table currency.Table) ([]exrate.RawObservation, error) {
	currencyCol, err := CurrencyColumn(table).Locate(f)
	if err != nil {
		return nil, err
	}
	dateCol, err := DateColumn().Locate(f)
	if err != nil {
		return nil, err
	}
	valueCol, err := ValueColumn().Locate(f)
	if err != nil {
		return nil, err
	}

	observations := make([]exrate.RawObservation, 0, len(f.Rows))
	for r := range f.Rows {
		period, err := f.Date(r, dateCol)
		if err != nil {
			// +2: one for the header, one for 1-based rows
			return nil, exrate.NewDataFormatError(fmt.Sprintf("row %d", r+2), err)
		}

		series := f.Cell(r, currencyCol)
		obs := exrate.RawObservation{
			Period:     period,
			SeriesCode: series,
		}
		if code, ok := table.FromSeries(series); ok {
			obs.Currency = code
		}
		obs.Value, obs.Valid = ParseRate(f.Cell(r, valueCol))

		observations = append(observations, obs)
	}

	return observations, nil
}

// ParseDate parses an observation period into a UTC calendar date
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return exrate.CalendarDate(t), nil
		}
	}

	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q: %w", s, err)
	}
	return exrate.CalendarDate(t), nil
}

// ParseRate parses a rate cell. ok is false for blank, non-numeric or
// non-positive values.
func ParseRate(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
