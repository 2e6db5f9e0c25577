// Package cli wires configuration, logging and the pipeline into cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"boirates/internal/config"
	"boirates/internal/exrate"
)

// Exit statuses returned by Execute
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
)

// Options overrides process level dependencies
type Options struct {
	Fs  afero.Fs
	Now func() time.Time
	Out io.Writer
	Err io.Writer
}

type app struct {
	v          *viper.Viper
	configFile string
	opts       Options
	logger     *slog.Logger
}

// NewRootCommand builds the boirates command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	a := &app{v: config.New(), opts: opts}

	rootCmd := &cobra.Command{
		Use:           "boirates",
		Short:         "Bank of Israel exchange rate fetcher",
		Long:          "Fetches representative exchange rates from the Bank of Israel, derives cross rates for the requested base currencies and exports them as CSV.",
		Version:       "v1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to config file (default: ./config.yaml or $HOME/.boirates/config.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("base-url", "", "Rate service base URL")
	flags.Duration("timeout", 0, "Request timeout")
	flags.String("format", "", "Requested payload format: csv or xlsx")

	a.bind(flags.Lookup("log-level"), config.KeyLogLevel)
	a.bind(flags.Lookup("log-format"), config.KeyLogFormat)
	a.bind(flags.Lookup("base-url"), config.KeyBaseURL)
	a.bind(flags.Lookup("timeout"), config.KeyTimeout)
	a.bind(flags.Lookup("format"), config.KeyFormat)

	rootCmd.AddCommand(fetchCommand(a))
	rootCmd.AddCommand(currenciesCommand())

	return rootCmd
}

// Execute runs the command line and returns the process exit status
func Execute(ctx context.Context, args []string, opts Options) int {
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", Describe(err))
	if exrate.IsKind(err, exrate.KindValidation) {
		return ExitValidation
	}
	return ExitFailure
}

// Describe turns an error into a message for the terminal
func Describe(err error) string {
	var rateErr *exrate.Error
	if !errors.As(err, &rateErr) {
		return err.Error()
	}

	switch rateErr.Kind {
	case exrate.KindConnectivity:
		return "could not reach the Bank of Israel rate service: " + rateErr.Error()
	case exrate.KindDataFormat:
		return "the rate service returned data that could not be read: " + rateErr.Error()
	case exrate.KindSchema:
		return "the rate data is missing an expected column: " + rateErr.Error()
	case exrate.KindNoData:
		return "no rates were found for the selected currencies and dates"
	case exrate.KindValidation:
		return "invalid request: " + rateErr.Message
	}
	return rateErr.Error()
}

// bind makes a flag the highest priority source of a config key
func (a *app) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag for %s: %v", key, err))
	}
}

// load reads configuration and installs the logger for the run
func (a *app) load() (*config.Config, error) {
	cfg, err := config.Read(a.v, a.configFile)
	if err != nil {
		return nil, err
	}

	a.logger = newLogger(a.opts.Err, cfg)
	slog.SetDefault(a.logger)
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.Level()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
