// Package main provides the genecov command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys and their defaults.
const (
	keySkipRows     = "input.skip_rows"
	keyAuxHeaderRow = "aux.header_row"
	keyCacheEnabled = "cache.enabled"
	keyCachePath    = "cache.path"
	keyTitle        = "report.title"
	keySubtitle     = "report.subtitle"
	keyShowMissing  = "report.show_missing"
	keyFormats      = "report.formats"
	keyLogLevel     = "log.level"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	defer func() { _ = app.logger.Sync() }()

	root := app.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
		return ExitUsage
	}
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "Hint: Check that the file path is correct\n")
	}
	return ExitError
}

// app carries state shared by all commands of one invocation.
type app struct {
	stdout, stderr io.Writer
	logger         *zap.Logger
	cfgFile        string
	verbose        bool
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "genecov",
		Short: "Gene coverage reports from sequencing coverage tables",
		Long: `genecov aggregates per-region sequencing coverage into per-gene summaries,
filters them by a gene panel and writes coverage reports as Word, Excel, HTML
and CSV documents.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(a.cfgFile); err != nil {
				return err
			}
			level := viper.GetString(keyLogLevel)
			if a.verbose {
				level = "debug"
			}
			logger, err := newLogger(level, a.stderr)
			if err != nil {
				return &usageError{err}
			}
			a.logger = logger
			return nil
		},
	}
	root.SetVersionTemplate("genecov version {{.Version}}\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ~/.genecov.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug messages")

	root.AddCommand(
		a.newAggregateCmd(),
		a.newReportCmd(),
		a.newBatchCmd(),
		a.newViewCmd(),
		newConfigCmd(),
		a.newCacheCmd(),
	)
	return root
}

// usageError marks errors caused by invalid invocation.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// argsRange validates the number of positional arguments.
func argsRange(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min {
			return usagef("%s requires at least %d input file(s)", cmd.Name(), min)
		}
		if max >= 0 && len(args) > max {
			return usagef("%s accepts at most %d input file(s), got %d", cmd.Name(), max, len(args))
		}
		return nil
	}
}

func initConfig(cfgFile string) error {
	viper.SetDefault(keySkipRows, 1)
	viper.SetDefault(keyAuxHeaderRow, 2)
	viper.SetDefault(keyCacheEnabled, true)
	viper.SetDefault(keyCachePath, "~/.genecov/cache.duckdb")
	viper.SetDefault(keyTitle, "Appendix 1: Gene Coverage")
	viper.SetDefault(keySubtitle, "Indication Based Analysis:")
	viper.SetDefault(keyShowMissing, false)
	viper.SetDefault(keyFormats, "docx,csv")
	viper.SetDefault(keyLogLevel, "info")

	viper.SetEnvPrefix("GENECOV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".genecov")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
