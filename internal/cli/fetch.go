package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"boirates/internal/boi"
	"boirates/internal/config"
	"boirates/internal/currency"
	"boirates/internal/exrate"
	"boirates/internal/normalize"
	"boirates/internal/parse"
	"boirates/internal/pipeline"
	"boirates/internal/report"
)

// DefaultWindow is the range fetched when no start date is given
const DefaultWindow = 30 * 24 * time.Hour

type fetchFlags struct {
	start    string
	end      string
	daily    bool
	noExport bool
	preview  int
}

func fetchCommand(a *app) *cobra.Command {
	var flags fetchFlags

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch rates, derive cross rates and export them",
		Example: `  boirates fetch --currencies USD,EUR --bases ILS,USD --start 2024-01-01 --end 2024-01-31
  boirates fetch --currencies GBP --daily --no-export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			return a.runFetch(cmd, cfg, flags)
		},
	}

	f := fetchCmd.Flags()
	f.StringSlice("currencies", nil, "Source currencies, e.g. USD,EUR")
	f.StringSlice("bases", nil, "Base currencies, e.g. ILS,USD")
	f.StringVar(&flags.start, "start", "", "First date, YYYY-MM-DD or DD/MM/YYYY (default: 30 days ago)")
	f.StringVar(&flags.end, "end", "", "Last date, YYYY-MM-DD or DD/MM/YYYY (default: today)")
	f.BoolVar(&flags.daily, "daily", false, "Fetch the latest daily snapshot instead of a date range")
	f.String("out", "", "Output directory")
	f.BoolVar(&flags.noExport, "no-export", false, "Skip writing export files")
	f.Bool("sqlite", false, "Also export a SQLite database")
	f.IntVar(&flags.preview, "preview", report.DefaultPreviewRows, "Number of rows to preview")

	a.bind(f.Lookup("currencies"), config.KeyCurrencies)
	a.bind(f.Lookup("bases"), config.KeyBases)
	a.bind(f.Lookup("out"), config.KeyOutputDir)
	a.bind(f.Lookup("sqlite"), config.KeySQLiteExport)

	return fetchCmd
}

func (a *app) runFetch(cmd *cobra.Command, cfg *config.Config, flags fetchFlags) error {
	req, err := a.request(cfg, flags)
	if err != nil {
		return err
	}

	table := currency.Default()
	source := boi.NewSource(table, boi.Options{
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
		DataType: cfg.DataType,
		Format:   cfg.SourceFormat(),
	})

	runner := pipeline.New(source, normalize.New(table), nil)
	runner.Logger = a.logger
	runner.Now = a.opts.Now
	runner.SQLite = cfg.SQLiteExport
	if !flags.noExport {
		runner.Exporter = report.NewExporter(a.opts.Fs, cfg.OutputDir)
	}

	result, err := runner.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.WriteSummary(out, result.Summary); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := report.Preview(out, result.Table, flags.preview); err != nil {
		return err
	}
	for _, path := range result.Files {
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	return nil
}

// request turns configuration and flags into a pipeline request
func (a *app) request(cfg *config.Config, flags fetchFlags) (pipeline.Request, error) {
	req := pipeline.Request{
		Currencies: cfg.CurrencyCodes(),
		Bases:      cfg.BaseCodes(),
		Mode:       exrate.ModeRange,
	}
	if flags.daily {
		req.Mode = exrate.ModeDaily
		return req, nil
	}

	now := a.opts.Now()
	req.End = exrate.CalendarDate(now)
	req.Start = exrate.CalendarDate(now.Add(-DefaultWindow))

	if flags.start != "" {
		start, err := parse.ParseDate(flags.start)
		if err != nil {
			return pipeline.Request{}, exrate.NewValidationError(fmt.Sprintf("invalid start date %q", flags.start))
		}
		req.Start = start
	}
	if flags.end != "" {
		end, err := parse.ParseDate(flags.end)
		if err != nil {
			return pipeline.Request{}, exrate.NewValidationError(fmt.Sprintf("invalid end date %q", flags.end))
		}
		req.End = end
	}
	return req, nil
}
