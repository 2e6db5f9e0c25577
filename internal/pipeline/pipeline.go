// Package pipeline runs one fetch, parse, normalize and export pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"boirates/internal/currency"
	"boirates/internal/exrate"
	"boirates/internal/normalize"
	"boirates/internal/parse"
	"boirates/internal/report"
)

// Request is one user request
type Request struct {
	Currencies []currency.Code
	Bases      []currency.Code
	Mode       exrate.Mode
	Start      time.Time
	End        time.Time
}

// Result is the outcome of a successful run
type Result struct {
	RunID   string
	Request Request
	Table   exrate.ResultTable
	Summary report.Summary
	// Files are the paths written by the exporter, CSV first
	Files []string
}

// Runner executes requests sequentially. It keeps no state between runs.
type Runner struct {
	Source exrate.Source
	Engine *normalize.Engine
	// Exporter is optional; a nil exporter skips the export step
	Exporter *report.Exporter
	// SQLite adds a database export next to the CSV file
	SQLite bool
	Logger *slog.Logger
	Now    func() time.Time
}

// New creates a runner with the default logger and clock
func New(source exrate.Source, engine *normalize.Engine, exporter *report.Exporter) *Runner {
	return &Runner{
		Source:   source,
		Engine:   engine,
		Exporter: exporter,
		Logger:   slog.Default(),
		Now:      time.Now,
	}
}

// Validate checks req against table and returns it in canonical form.
// It never touches the network.
func Validate(table currency.Table, req Request) (Request, error) {
	out := req
	if out.Mode == "" {
		out.Mode = exrate.ModeRange
	}

	var err error
	out.Currencies, err = table.Canonical(req.Currencies, false)
	if err != nil {
		return Request{}, validationError(err)
	}
	if len(out.Currencies) == 0 {
		return Request{}, exrate.NewValidationError("at least one currency must be selected")
	}

	out.Bases, err = table.Canonical(req.Bases, true)
	if err != nil {
		return Request{}, validationError(err)
	}
	if len(out.Bases) == 0 {
		return Request{}, exrate.NewValidationError("at least one base currency must be selected")
	}

	switch out.Mode {
	case exrate.ModeRange:
		if out.Start.IsZero() || out.End.IsZero() {
			return Request{}, exrate.NewValidationError("start and end dates are required")
		}
		out.Start = exrate.CalendarDate(out.Start)
		out.End = exrate.CalendarDate(out.End)
		if out.Start.After(out.End) {
			return Request{}, exrate.NewValidationError(fmt.Sprintf("start date %s is after end date %s",
				out.Start.Format(exrate.DisplayDateLayout), out.End.Format(exrate.DisplayDateLayout)))
		}
	case exrate.ModeDaily:
		out.Start, out.End = time.Time{}, time.Time{}
	default:
		return Request{}, exrate.NewValidationError(fmt.Sprintf("unknown mode %q", out.Mode))
	}

	return out, nil
}

// Run validates, fetches, parses, normalizes, summarizes and exports.
// Any failure discards the partial result.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	runID := uuid.NewString()
	logger := r.logger().With("run_id", runID)

	req, err := Validate(r.Engine.Table, req)
	if err != nil {
		logger.Warn("invalid request", "error", err)
		return Result{}, err
	}

	logger.Info("fetching rates",
		"source", r.Source.Name(),
		"mode", req.Mode,
		"currencies", currency.Strings(req.Currencies),
		"bases", currency.Strings(req.Bases))

	payload, err := r.Source.Fetch(ctx, exrate.Query{
		Currencies: req.Currencies,
		Mode:       req.Mode,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		return Result{}, err
	}
	logger.Debug("payload received", "format", payload.Format, "bytes", len(payload.Body))

	obs, err := parse.Parse(payload, r.Engine.Table)
	if err != nil {
		return Result{}, err
	}

	table, err := r.Engine.Build(obs, normalize.Params{
		Selected: req.Currencies,
		Bases:    req.Bases,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:   runID,
		Request: req,
		Table:   table,
		Summary: report.Summarize(table, req.Currencies),
	}
	logger.Info("rates normalized", "observations", len(obs), "records", table.Len())

	if r.Exporter == nil {
		return result, nil
	}

	ts := r.now()
	path, err := r.Exporter.WriteCSV(table, req.Currencies, ts)
	if err != nil {
		return Result{}, fmt.Errorf("csv export: %w", err)
	}
	result.Files = append(result.Files, path)
	logger.Info("exported", "path", path)

	if r.SQLite {
		path, err := r.Exporter.WriteSQLite(ctx, table, req.Currencies, ts)
		if err != nil {
			return Result{}, fmt.Errorf("sqlite export: %w", err)
		}
		result.Files = append(result.Files, path)
		logger.Info("exported", "path", path)
	}

	return result, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func validationError(err error) error {
	if errors.Is(err, currency.ErrUnknownCode) {
		return exrate.NewValidationError(err.Error())
	}
	return err
}
