package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"boirates/internal/exrate"
	"boirates/internal/testutil"
)

var fixedNow = time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)

type harness struct {
	fs   afero.Fs
	out  bytes.Buffer
	err  bytes.Buffer
	hits atomic.Int32
	url  string
	last *http.Request
}

func newHarness(t *testing.T, body string) *harness {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := &harness{fs: afero.NewMemMapFs()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		h.last = r
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	h.url = server.URL
	return h
}

func (h *harness) run(args ...string) int {
	args = append(args, "--base-url", h.url)
	return Execute(context.Background(), args, Options{
		Fs:  h.fs,
		Now: func() time.Time { return fixedNow },
		Out: &h.out,
		Err: &h.err,
	})
}

func sdmxBody() string {
	return testutil.SDMXCSV(
		[3]string{"RER_USD_ILS", "2024-01-02", "3.70"},
		[3]string{"RER_EUR_ILS", "2024-01-02", "4.00"},
	)
}

func TestFetch_ExportsCSV(t *testing.T) {
	h := newHarness(t, sdmxBody())

	code := h.run("fetch", "--currencies", "EUR,usd", "--bases", "ILS,USD",
		"--start", "2024-01-01", "--end", "31/01/2024", "--out", "exports")
	require.Equal(t, ExitOK, code, h.err.String())
	require.Equal(t, int32(1), h.hits.Load())

	query := h.last.URL.Query()
	require.Equal(t, "2024-01-01", query.Get("startperiod"))
	require.Equal(t, "2024-01-31", query.Get("endperiod"))
	require.True(t, strings.HasSuffix(h.last.URL.Path, "/RER_USD_ILS,RER_EUR_ILS"))

	path := filepath.Join("exports", "exchange_rates_USD_EUR_20240131_150405.csv")
	require.Contains(t, h.out.String(), "Saved "+path)
	require.Contains(t, h.out.String(), "Total records:")

	data, err := afero.ReadFile(h.fs, path)
	require.NoError(t, err)
	require.Contains(t, string(data), "02/01/2024,USD,EUR,1.0810810810810811")
}

func TestFetch_DefaultWindowAndNoExport(t *testing.T) {
	h := newHarness(t, sdmxBody())

	code := h.run("fetch", "--no-export")
	require.Equal(t, ExitOK, code, h.err.String())

	query := h.last.URL.Query()
	require.Equal(t, "2024-01-01", query.Get("startperiod"))
	require.Equal(t, "2024-01-31", query.Get("endperiod"))
	require.NotContains(t, h.out.String(), "Saved")

	entries, _ := afero.ReadDir(h.fs, ".")
	require.Empty(t, entries)
}

func TestFetch_Daily(t *testing.T) {
	h := newHarness(t, sdmxBody())

	code := h.run("fetch", "--currencies", "USD", "--daily", "--sqlite")
	require.Equal(t, ExitOK, code, h.err.String())
	require.Equal(t, "Daily", h.last.URL.Query().Get("type"))
	require.Empty(t, h.last.URL.Query().Get("startperiod"))
	require.Contains(t, h.out.String(), ".db")
}

func TestFetch_ValidationFailsBeforeRequest(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"start after end", []string{"fetch", "--start", "2024-02-01", "--end", "2024-01-01"}},
		{"bad date", []string{"fetch", "--start", "soon"}},
		{"unknown base", []string{"fetch", "--bases", "XAU"}},
		{"unknown currency", []string{"fetch", "--currencies", "ABC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sdmxBody())

			require.Equal(t, ExitValidation, h.run(tt.args...))
			require.Zero(t, h.hits.Load())
			require.Contains(t, h.err.String(), "invalid request")
		})
	}
}

func TestFetch_NoData(t *testing.T) {
	h := newHarness(t, testutil.SDMXCSV([3]string{"RER_JPY_ILS", "2024-01-02", "0.025"}))

	require.Equal(t, ExitFailure, h.run("fetch", "--currencies", "USD"))
	require.Contains(t, h.err.String(), "no rates were found")
}

func TestFetch_InvalidConfig(t *testing.T) {
	h := newHarness(t, sdmxBody())

	require.Equal(t, ExitFailure, h.run("fetch", "--format", "pdf"))
	require.Contains(t, h.err.String(), "invalid configuration: format")
	require.Zero(t, h.hits.Load())
}

func TestCurrencies(t *testing.T) {
	h := newHarness(t, "")

	require.Equal(t, ExitOK, h.run("currencies"))
	out := h.out.String()
	require.Contains(t, out, "ILS")
	require.Regexp(t, `USD\s+RER_USD_ILS`, out)
	require.Regexp(t, `DKK\s+RER_DKK_ILS`, out)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{exrate.NewConnectivityError(errors.New("dial tcp")), "could not reach"},
		{exrate.NewSchemaError("no date column"), "missing an expected column"},
		{exrate.NewDataFormatError("row 3", nil), "could not be read"},
		{exrate.NewNoDataError("empty"), "no rates were found"},
		{exrate.NewValidationError("no bases"), "invalid request: no bases"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		require.Contains(t, Describe(tt.err), tt.want)
	}
}

// chdir changes the working directory for the test and restores it on cleanup
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
