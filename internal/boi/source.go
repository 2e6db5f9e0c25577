// Package boi fetches representative exchange rates from the Bank of Israel
// SDMX edge server.
package boi

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"resty.dev/v3"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

const (
	// DefaultBaseURL is the EXR dataflow of the Bank of Israel statistics service
	DefaultBaseURL = "https://edge.boi.org.il/FusionEdgeServer/sdmx/v2/data/dataflow/BOI.STATISTICS/EXR/1.0"
	// DefaultDataType selects the official representative rate
	DefaultDataType = "OF00"

	periodLayout = "2006-01-02"
)

var zipMagic = []byte("PK\x03\x04")

// Options configures a Source
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	DataType string
	Format   exrate.Format
}

// Source fetches raw observations for a set of currencies
type Source struct {
	table    currency.Table
	client   *resty.Client
	dataType string
	format   exrate.Format
}

// NewSource creates a Bank of Israel rate source
func NewSource(table currency.Table, opts Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DataType == "" {
		opts.DataType = DefaultDataType
	}
	if opts.Format == "" {
		opts.Format = exrate.FormatCSV
	}
	return &Source{
		table:    table,
		client:   exrate.NewHTTPClient(strings.TrimRight(opts.BaseURL, "/"), opts.Timeout),
		dataType: opts.DataType,
		format:   opts.Format,
	}
}

// Name returns the source identifier
func (s *Source) Name() string {
	return "boi"
}

// Fetch issues one GET for the query. It never retries.
func (s *Source) Fetch(ctx context.Context, q exrate.Query) (exrate.Payload, error) {
	if len(q.Currencies) == 0 {
		return exrate.Payload{}, exrate.NewValidationError("no currencies selected")
	}

	ids, err := s.table.SeriesIDs(q.Currencies)
	if err != nil {
		return exrate.Payload{}, exrate.NewValidationError(err.Error())
	}
	series := strings.Join(ids, ",")

	resp, err := s.client.R().
		SetContext(ctx).
		SetRawPathParam("series", series).
		SetQueryParams(s.QueryParams(q)).
		Get("/{series}")

	if err != nil {
		return exrate.Payload{}, exrate.NewConnectivityError(fmt.Errorf("fetch %s: %w", series, err))
	}

	if !resp.IsSuccess() {
		return exrate.Payload{}, exrate.ClassifyHTTPError(resp.StatusCode())
	}

	body := resp.Bytes()
	if len(bytes.TrimSpace(body)) == 0 {
		return exrate.Payload{}, exrate.NewNoDataError(fmt.Sprintf("empty response for %s", series))
	}

	contentType := resp.Header().Get("Content-Type")
	return exrate.Payload{
		Body:        body,
		Format:      detectFormat(contentType, body, s.format),
		ContentType: contentType,
	}, nil
}

// QueryParams returns the query string parameters for q
func (s *Source) QueryParams(q exrate.Query) map[string]string {
	params := map[string]string{
		"format":       string(s.format),
		"c[DATA_TYPE]": s.dataType,
	}

	if q.Mode == exrate.ModeDaily {
		params["type"] = "Daily"
		return params
	}

	params["startperiod"] = q.Start.Format(periodLayout)
	params["endperiod"] = q.End.Format(periodLayout)
	return params
}

// detectFormat picks the decoder for a response body
func detectFormat(contentType string, body []byte, requested exrate.Format) exrate.Format {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/csv", "application/csv", "text/plain":
			return exrate.FormatCSV
		case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/vnd.ms-excel":
			return exrate.FormatSpreadsheet
		}
	}

	if bytes.HasPrefix(body, zipMagic) {
		return exrate.FormatSpreadsheet
	}

	return requested
}
