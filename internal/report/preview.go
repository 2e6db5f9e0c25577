package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"boirates/internal/exrate"
)

// DefaultPreviewRows is the number of records shown by Preview
const DefaultPreviewRows = 10

// Preview prints at most n leading records of t as an aligned table
func Preview(w io.Writer, t exrate.ResultTable, n int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Effective_Date\tBase_Currency\tSource_Currency\tExchange_Rate")
	for _, r := range t.Head(n) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.EffectiveDate(), r.Base, r.Source, FormatRate(r.Rate))
	}
	if t.Len() > n && n >= 0 {
		fmt.Fprintf(tw, "... %d more\t\t\t\n", t.Len()-n)
	}
	return tw.Flush()
}

// WriteSummary prints the aggregates of s
func WriteSummary(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total records:\t%d\n", s.Records)
	fmt.Fprintf(tw, "Currencies:\t%d\n", s.Currencies)
	fmt.Fprintf(tw, "Days covered:\t%s\n", s.DaySpan)

	latest := NotAvailable
	if !s.LatestDate.IsZero() {
		latest = s.LatestDate.Format(exrate.DisplayDateLayout)
	}
	fmt.Fprintf(tw, "Latest date:\t%s\n", latest)
	for _, snap := range s.Latest {
		fmt.Fprintf(tw, "  %s\t%s\n", snap.Label(), snap.Value())
	}
	return tw.Flush()
}
