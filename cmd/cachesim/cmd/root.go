// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

const usage = `usage: cachesim -S s -E e -B b -F <filename> [-D]
      s - number of Sets
      e - number of Lines per Set
      b - number of Bytes per Block
      <filename> - name of trace file
      -D - print the cache after every access
s,e,b must be powers of two
`

// errUsage means the command line was incomplete or invalid. The usage text
// has already been printed.
var errUsage = errors.New("invalid arguments")

// Environment variables that provide defaults for flags that are not set on
// the command line. They can also be placed in a .env file.
var envDefaults = map[string]string{
	"sets":       "CACHESIM_SETS",
	"lines":      "CACHESIM_LINES",
	"block":      "CACHESIM_BLOCK",
	"file":       "CACHESIM_TRACE",
	"skip-lines": "CACHESIM_SKIP_LINES",
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)

	return logger, nil
}

// NewRootCmd creates the cachesim command.
func NewRootCmd() *cobra.Command {
	opts := &simOptions{}

	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "Simulate a set-associative LRU cache against a memory trace.",
		Long: `cachesim replays a trace of memory references through a ` +
			`set-associative cache with least-recently-used replacement and ` +
			`reports the number of accesses, hits and misses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnvDefaults(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "warning",
		"Log level (debug, info, warning, error).")

	flags := rootCmd.Flags()
	flags.IntVarP(&opts.sets, "sets", "S", 0, "Number of sets.")
	flags.IntVarP(&opts.lines, "lines", "E", 0, "Number of lines per set.")
	flags.IntVarP(&opts.block, "block", "B", 0, "Number of bytes per block.")
	flags.StringVarP(&opts.file, "file", "F", "", "Trace file.")
	flags.BoolVarP(&opts.verbose, "verbose", "D", false,
		"Print the cache after every access.")
	flags.IntVar(&opts.skipLines, "skip-lines", 0,
		"Number of header lines to ignore at the top of the trace.")
	flags.StringVar(&opts.csvPath, "csv", "",
		"Record every access into <path>.csv.")
	flags.StringVar(&opts.dbPath, "db", "",
		"Record every access and eviction into <path>.sqlite3.")

	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

func applyEnvDefaults(flags *pflag.FlagSet) error {
	for name, env := range envDefaults {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("%s=%q: %w", env, value, err)
		}
	}

	return nil
}

func loggerFor(cmd *cobra.Command) (*logrus.Logger, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	return newLogger(cmd.ErrOrStderr(), level)
}

// Execute runs the command line and exits the program. Buffered recordings
// are flushed before exiting.
func Execute() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		atexit.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errUsage) {
			logrus.WithError(err).Error("cachesim failed")
		}

		atexit.Exit(1)
	}

	atexit.Exit(0)
}
