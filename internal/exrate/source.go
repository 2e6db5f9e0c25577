package exrate

import (
	"context"
	"time"

	"boirates/internal/currency"
)

// Format is the tabular encoding of a payload
type Format string

const (
	// FormatCSV is comma delimited text
	FormatCSV Format = "csv"
	// FormatSpreadsheet is an Office Open XML workbook
	FormatSpreadsheet Format = "xlsx"
)

// Query describes one outbound request to a rate source
type Query struct {
	Currencies []currency.Code
	Mode       Mode
	Start      time.Time
	End        time.Time
}

// Payload is the raw response of a rate source.
// It is produced once per fetch and discarded once parsed.
type Payload struct {
	Body        []byte
	Format      Format
	ContentType string
}

// Source is the interface every rate source must implement.
// A source performs exactly one outbound call per Fetch and never retries.
type Source interface {
	// Fetch retrieves the raw tabular observations for the query.
	// Failures are reported as *Error values.
	Fetch(ctx context.Context, q Query) (Payload, error)

	// Name returns a short identifier of the source, used in logs
	Name() string
}
