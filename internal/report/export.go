package report

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	_ "modernc.org/sqlite"

	"boirates/internal/currency"
	"boirates/internal/exrate"
)

const (
	// FilePrefix starts every exported filename
	FilePrefix = "exchange_rates"

	timestampLayout = "20060102_150405"
	isoDateLayout   = "2006-01-02"
)

// Header is the column row of the CSV export
var Header = []string{"Effective_Date", "Base_Currency", "Source_Currency", "Exchange_Rate"}

// Filename returns exchange_rates_<codes>_<YYYYMMDD_HHMMSS>.<ext>.
// Codes are joined with "_" in the order given.
func Filename(selected []currency.Code, ts time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		FilePrefix,
		strings.Join(currency.Strings(selected), "_"),
		ts.Format(timestampLayout),
		strings.TrimPrefix(ext, "."))
}

// FormatRate renders a rate with at least one decimal place
func FormatRate(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(1)
	}
	return d.String()
}

// EncodeCSV writes t as UTF-8 CSV prefixed with a byte order mark
func EncodeCSV(w io.Writer, t exrate.ResultTable) error {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(bom)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range t.Records() {
		row := []string{r.EffectiveDate(), string(r.Base), string(r.Source), FormatRate(r.Rate)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return bom.Close()
}

// Exporter writes result tables into a directory of a filesystem
type Exporter struct {
	fs  afero.Fs
	dir string
}

// NewExporter creates an exporter rooted at dir
func NewExporter(fs afero.Fs, dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{fs: fs, dir: dir}
}

// WriteCSV exports t and returns the path of the written file
func (e *Exporter) WriteCSV(t exrate.ResultTable, selected []currency.Code, ts time.Time) (string, error) {
	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(e.dir, Filename(selected, ts, "csv"))
	f, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := EncodeCSV(f, t); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// WriteSQLite exports t as a fresh SQLite database and returns its path.
// The database is built in a local temporary file and then copied into the
// exporter's filesystem.
func (e *Exporter) WriteSQLite(ctx context.Context, t exrate.ResultTable, selected []currency.Code, ts time.Time) (string, error) {
	osFs := afero.NewOsFs()
	tmp, err := afero.TempFile(osFs, "", "boirates-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary database: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer osFs.Remove(tmpPath)

	if err := writeDatabase(ctx, tmpPath, t); err != nil {
		return "", err
	}

	data, err := afero.ReadFile(osFs, tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read temporary database: %w", err)
	}

	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(e.dir, Filename(selected, ts, "db"))
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func writeDatabase(ctx context.Context, path string, t exrate.ResultTable) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cross_rates (
			effective_date, display_date, base_currency, source_currency, exchange_rate, exchange_rate_text
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range t.Records() {
		_, err = stmt.ExecContext(ctx,
			r.Date.Format(isoDateLayout),
			r.EffectiveDate(),
			string(r.Base),
			string(r.Source),
			r.Rate.InexactFloat64(),
			r.Rate.String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite insert: %w", err)
		}
	}

	return tx.Commit()
}

func migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cross_rates (
			effective_date TEXT NOT NULL,
			display_date TEXT NOT NULL,
			base_currency TEXT NOT NULL,
			source_currency TEXT NOT NULL,
			exchange_rate REAL NOT NULL,
			exchange_rate_text TEXT NOT NULL,
			PRIMARY KEY (effective_date, base_currency, source_currency)
		);`,
	}

	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}
