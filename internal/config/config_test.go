package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"boirates/internal/boi"
	"boirates/internal/currency"
	"boirates/internal/exrate"
)

// isolate points the config search path at an empty directory
func isolate(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestRead_WithDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Read(New(), "")
	if err != nil {
		t.Fatalf("Read() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"BaseURL", cfg.BaseURL, boi.DefaultBaseURL},
		{"Timeout", cfg.Timeout, 30 * time.Second},
		{"DataType", cfg.DataType, "OF00"},
		{"Format", cfg.SourceFormat(), exrate.FormatCSV},
		{"OutputDir", cfg.OutputDir, "."},
		{"Currencies", cfg.CurrencyCodes(), []currency.Code{"USD", "EUR"}},
		{"Bases", cfg.BaseCodes(), []currency.Code{"ILS"}},
		{"Level", cfg.Level(), slog.LevelInfo},
		{"LogFormat", cfg.LogFormat, "text"},
		{"SQLiteExport", cfg.SQLiteExport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestRead_Environment(t *testing.T) {
	isolate(t)
	envVars := map[string]string{
		"BOIRATES_BASE_URL":      "http://localhost:8080/sdmx",
		"BOIRATES_TIMEOUT":       "5s",
		"BOIRATES_FORMAT":        "XLSX",
		"BOIRATES_OUTPUT_DIR":    "/tmp/rates",
		"BOIRATES_CURRENCIES":    "gbp,jpy",
		"BOIRATES_BASES":         "ILS,USD",
		"BOIRATES_LOG_LEVEL":     "debug",
		"BOIRATES_LOG_FORMAT":    "json",
		"BOIRATES_SQLITE_EXPORT": "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Read(New(), "")
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080/sdmx", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, exrate.FormatSpreadsheet, cfg.SourceFormat())
	require.Equal(t, "/tmp/rates", cfg.OutputDir)
	require.Equal(t, []currency.Code{"GBP", "JPY"}, cfg.CurrencyCodes())
	require.Equal(t, []currency.Code{"ILS", "USD"}, cfg.BaseCodes())
	require.Equal(t, slog.LevelDebug, cfg.Level())
	require.Equal(t, "json", cfg.LogFormat)
	require.True(t, cfg.SQLiteExport)
}

func TestRead_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "boirates.yaml")
	content := `
timeout: 10s
currencies:
  - CHF
  - usd
output_dir: exports
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Read(New(), path)
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, []currency.Code{"CHF", "USD"}, cfg.CurrencyCodes())
	require.Equal(t, "exports", cfg.OutputDir)

	// environment still wins over the file
	t.Setenv("BOIRATES_OUTPUT_DIR", "override")
	cfg, err = Read(New(), path)
	require.NoError(t, err)
	require.Equal(t, "override", cfg.OutputDir)
}

func TestRead_BoundFlags(t *testing.T) {
	isolate(t)
	t.Setenv("BOIRATES_OUTPUT_DIR", "from-env")

	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.String("out", "", "")
	flags.StringSlice("currencies", nil, "")
	require.NoError(t, flags.Parse([]string{"--out", "from-flag"}))

	v := New()
	require.NoError(t, v.BindPFlag(KeyOutputDir, flags.Lookup("out")))
	require.NoError(t, v.BindPFlag(KeyCurrencies, flags.Lookup("currencies")))

	cfg, err := Read(v, "")
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.OutputDir)
	// unset flags fall through to defaults
	require.Equal(t, []currency.Code{"USD", "EUR"}, cfg.CurrencyCodes())
}

func TestRead_IgnoresUnknownKeys(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "boirates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests_per_second: 5\ntimeout: 3s\n"), 0o644))

	cfg, err := Read(New(), path)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestRead_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Read(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRead_Invalid(t *testing.T) {
	isolate(t)

	tests := []struct {
		name        string
		setupEnv    map[string]string
		wantErrText []string
	}{
		{
			name:        "bad format",
			setupEnv:    map[string]string{"BOIRATES_FORMAT": "json"},
			wantErrText: []string{"format"},
		},
		{
			name:        "bad url",
			setupEnv:    map[string]string{"BOIRATES_BASE_URL": "not a url"},
			wantErrText: []string{"base_url"},
		},
		{
			name: "several keys",
			setupEnv: map[string]string{
				"BOIRATES_LOG_LEVEL":  "loud",
				"BOIRATES_LOG_FORMAT": "xml",
				"BOIRATES_TIMEOUT":    "-1s",
			},
			wantErrText: []string{"log_level", "log_format", "timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.setupEnv {
				t.Setenv(key, value)
			}

			_, err := Read(New(), "")
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid configuration")
			for _, want := range tt.wantErrText {
				require.Contains(t, err.Error(), want)
			}
		})
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
