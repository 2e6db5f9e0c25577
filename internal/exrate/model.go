package exrate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"boirates/internal/currency"
)

// DisplayDateLayout is the day/month/year text layout used for presentation only
const DisplayDateLayout = "02/01/2006"

// Mode selects between a date range request and the latest daily snapshot
type Mode string

const (
	// ModeRange requests every observation between a start and an end date
	ModeRange Mode = "range"
	// ModeDaily requests the latest published snapshot only
	ModeDaily Mode = "daily"
)

// RawObservation is one row of the source feed
type RawObservation struct {
	Period     time.Time
	SeriesCode string
	Currency   currency.Code
	Value      decimal.Decimal
	// Valid is false when the value cell was absent or non-numeric
	Valid bool
}

// CrossRateRecord is one normalized (date, base, source, rate) entry
type CrossRateRecord struct {
	Date   time.Time
	Base   currency.Code
	Source currency.Code
	Rate   decimal.Decimal
}

// EffectiveDate returns the record date as day/month/year text
func (r CrossRateRecord) EffectiveDate() string {
	return r.Date.Format(DisplayDateLayout)
}

// Less orders records by date, then base, then source
func (r CrossRateRecord) Less(o CrossRateRecord) bool {
	if !r.Date.Equal(o.Date) {
		return r.Date.Before(o.Date)
	}
	if r.Base != o.Base {
		return r.Base < o.Base
	}
	return r.Source < o.Source
}

// ResultTable is an immutable, sorted sequence of cross-rate records
type ResultTable struct {
	records []CrossRateRecord
}

// NewResultTable copies records, sorts them by (date, base, source) and wraps them
func NewResultTable(records []CrossRateRecord) ResultTable {
	rs := make([]CrossRateRecord, len(records))
	copy(rs, records)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Less(rs[j])
	})
	return ResultTable{records: rs}
}

// Len returns the number of records
func (t ResultTable) Len() int {
	return len(t.records)
}

// At returns the i-th record
func (t ResultTable) At(i int) CrossRateRecord {
	return t.records[i]
}

// Records returns a copy of all records
func (t ResultTable) Records() []CrossRateRecord {
	out := make([]CrossRateRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Head returns a copy of at most n leading records
func (t ResultTable) Head(n int) []CrossRateRecord {
	if n > len(t.records) {
		n = len(t.records)
	}
	if n < 0 {
		n = 0
	}
	out := make([]CrossRateRecord, n)
	copy(out, t.records[:n])
	return out
}

// Dates returns the distinct record dates in ascending order
func (t ResultTable) Dates() []time.Time {
	var dates []time.Time
	for _, r := range t.records {
		if n := len(dates); n == 0 || !dates[n-1].Equal(r.Date) {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// Latest returns the most recent record date; ok is false for an empty table
func (t ResultTable) Latest() (time.Time, bool) {
	if len(t.records) == 0 {
		return time.Time{}, false
	}
	return t.records[len(t.records)-1].Date, true
}

// Lookup returns the record for a (date, base, source) triple
func (t ResultTable) Lookup(date time.Time, base, source currency.Code) (CrossRateRecord, bool) {
	key := CrossRateRecord{Date: date, Base: base, Source: source}
	i := sort.Search(len(t.records), func(i int) bool {
		return !t.records[i].Less(key)
	})
	if i < len(t.records) {
		r := t.records[i]
		if r.Date.Equal(date) && r.Base == base && r.Source == source {
			return r, true
		}
	}
	return CrossRateRecord{}, false
}

// CalendarDate truncates t to a UTC calendar date
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
