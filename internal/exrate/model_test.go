package exrate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"boirates/internal/currency"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(date time.Time, base, source currency.Code, rate string) CrossRateRecord {
	return CrossRateRecord{Date: date, Base: base, Source: source, Rate: decimal.RequireFromString(rate)}
}

func TestNewResultTable_SortsChronologically(t *testing.T) {
	assert := require.New(t)

	// 02/01/2024 sorts before 10/12/2023 as text, but not as a date
	table := NewResultTable([]CrossRateRecord{
		rec(day(2024, 1, 2), "USD", "ILS", "0.27"),
		rec(day(2024, 1, 2), "ILS", "USD", "3.7"),
		rec(day(2023, 12, 10), "ILS", "USD", "3.6"),
		rec(day(2024, 1, 2), "ILS", "EUR", "4.0"),
	})

	assert.Equal(4, table.Len())
	assert.Equal("10/12/2023", table.At(0).EffectiveDate())
	assert.Equal(currency.Code("EUR"), table.At(1).Source)
	assert.Equal(currency.Code("USD"), table.At(2).Source)
	assert.Equal(currency.Code("USD"), table.At(3).Base)

	for i := 1; i < table.Len(); i++ {
		assert.False(table.At(i).Less(table.At(i-1)), "row %d out of order", i)
	}
}

func TestResultTable_Immutable(t *testing.T) {
	input := []CrossRateRecord{rec(day(2024, 1, 1), "ILS", "ILS", "1")}
	table := NewResultTable(input)

	input[0].Base = "USD"
	out := table.Records()
	out[0].Source = "EUR"

	require.Equal(t, currency.Code("ILS"), table.At(0).Base)
	require.Equal(t, currency.Code("ILS"), table.At(0).Source)
}

func TestResultTable_DatesLatestHead(t *testing.T) {
	assert := require.New(t)
	table := NewResultTable([]CrossRateRecord{
		rec(day(2024, 1, 3), "ILS", "ILS", "1"),
		rec(day(2024, 1, 1), "ILS", "ILS", "1"),
		rec(day(2024, 1, 1), "ILS", "USD", "3.7"),
	})

	assert.Equal([]time.Time{day(2024, 1, 1), day(2024, 1, 3)}, table.Dates())

	latest, ok := table.Latest()
	assert.True(ok)
	assert.Equal(day(2024, 1, 3), latest)

	assert.Len(table.Head(2), 2)
	assert.Len(table.Head(10), 3)
	assert.Len(table.Head(-1), 0)

	_, ok = NewResultTable(nil).Latest()
	assert.False(ok)
}

func TestResultTable_Lookup(t *testing.T) {
	table := NewResultTable([]CrossRateRecord{
		rec(day(2024, 1, 1), "ILS", "USD", "3.7"),
		rec(day(2024, 1, 1), "ILS", "EUR", "4"),
		rec(day(2024, 1, 2), "ILS", "USD", "3.8"),
	})

	r, ok := table.Lookup(day(2024, 1, 2), "ILS", "USD")
	require.True(t, ok)
	require.Equal(t, "3.8", r.Rate.String())

	_, ok = table.Lookup(day(2024, 1, 2), "ILS", "EUR")
	require.False(t, ok)
}

func TestCalendarDate(t *testing.T) {
	loc := time.FixedZone("IST", 2*60*60)
	got := CalendarDate(time.Date(2024, 3, 5, 23, 30, 0, 0, loc))
	require.Equal(t, day(2024, 3, 5), got)
}
