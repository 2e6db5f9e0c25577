package testutil

import (
	"context"
	"sync/atomic"

	"boirates/internal/exrate"
)

// MockSource is a mock implementation of the exrate.Source interface for testing
type MockSource struct {
	FetchFunc func(ctx context.Context, q exrate.Query) (exrate.Payload, error)
	NameFunc  func() string

	calls atomic.Int32
}

// Fetch implements the exrate.Source interface
func (m *MockSource) Fetch(ctx context.Context, q exrate.Query) (exrate.Payload, error) {
	m.calls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, q)
	}
	return exrate.Payload{}, nil
}

// Name implements the exrate.Source interface
func (m *MockSource) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

// Calls returns how many times Fetch was invoked
func (m *MockSource) Calls() int {
	return int(m.calls.Load())
}

// NewMockSource creates a mock source that always returns body as CSV, or err
func NewMockSource(body string, err error) *MockSource {
	return &MockSource{
		FetchFunc: func(ctx context.Context, q exrate.Query) (exrate.Payload, error) {
			if err != nil {
				return exrate.Payload{}, err
			}
			return exrate.Payload{Body: []byte(body), Format: exrate.FormatCSV, ContentType: "text/csv"}, nil
		},
	}
}

// SDMXCSV builds an SDMX style CSV body from (series, period, value) triples
func SDMXCSV(rows ...[3]string) string {
	body := "DATAFLOW,SERIES_CODE,FREQ,TIME_PERIOD,OBS_VALUE\n"
	for _, r := range rows {
		body += "BOI.STATISTICS:EXR(1.0)," + r[0] + ",D," + r[1] + "," + r[2] + "\n"
	}
	return body
}
