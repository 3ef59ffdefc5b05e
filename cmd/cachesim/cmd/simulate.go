package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/trace"
)

type simOptions struct {
	sets      int
	lines     int
	block     int
	file      string
	verbose   bool
	skipLines int
	csvPath   string
	dbPath    string
}

func (o *simOptions) validate(cmd *cobra.Command) error {
	var missing []string

	for _, name := range []string{"sets", "lines", "block", "file"} {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, "--"+name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing %v", missing)
	}

	if o.skipLines < 0 {
		return errors.New("--skip-lines must not be negative")
	}

	return nil
}

func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%v\n%s", err, usage)
	return fmt.Errorf("%w: %v", errUsage, err)
}

func runSimulation(cmd *cobra.Command, opts *simOptions) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}

	if err := opts.validate(cmd); err != nil {
		return usageError(cmd, err)
	}

	c, err := cache.MakeBuilder().
		WithNumSets(opts.sets).
		WithLinesPerSet(opts.lines).
		WithBlockSize(opts.block).
		Build()
	if errors.Is(err, cache.ErrInvalidGeometry) {
		return usageError(cmd, err)
	}

	if err != nil {
		return err
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return usageError(cmd,
			fmt.Errorf("file could not be opened, check the path: %w", err))
	}
	defer f.Close()

	closeRecorders, err := attachRecorders(cmd, c, opts, logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"trace":     opts.file,
		"sets":      opts.sets,
		"lines":     opts.lines,
		"block":     opts.block,
		"totalSize": c.Geometry().TotalSize(),
	}).Debug("Simulation started")

	reader := trace.NewReader(f, trace.WithSkipLines(opts.skipLines))
	replayStats, replayErr := trace.Replay(cmd.Context(), reader, c)

	if err := closeRecorders(); err != nil && replayErr == nil {
		replayErr = err
	}

	if replayErr != nil {
		return fmt.Errorf("%s: %w", opts.file, replayErr)
	}

	logger.WithFields(logrus.Fields{
		"trace":   opts.file,
		"records": replayStats.Records,
		"skipped": replayStats.Skipped,
	}).Info("Trace replayed")

	return trace.PrintResults(cmd.OutOrStdout(), c.Stats())
}

// closers releases the recorders attached to a run.
type closers []func() error

func (cs closers) closeAll() error {
	var errs []error
	for _, closeFn := range cs {
		errs = append(errs, closeFn())
	}

	return errors.Join(errs...)
}

// abort closes what was attached so far and reports err together with any
// close failure.
func (cs closers) abort(err error) error {
	return errors.Join(err, cs.closeAll())
}

func attachRecorders(
	cmd *cobra.Command,
	c *cache.Cache,
	opts *simOptions,
	logger *logrus.Logger,
) (func() error, error) {
	var attached closers

	if opts.verbose {
		printer := trace.NewVerbosePrinter(cmd.OutOrStdout())
		c.AcceptHook(printer)
		attached = append(attached, printer.Err)
	}

	if opts.csvPath != "" {
		tracer := trace.NewCSVTracer(opts.csvPath)
		if err := tracer.Init(); err != nil {
			return nil, attached.abort(err)
		}

		c.AcceptHook(tracer)
		attached = append(attached, tracer.Close)
		logger.WithField("path", tracer.Path()).Info("Recording accesses")
	}

	if opts.dbPath != "" {
		filename := opts.dbPath + ".sqlite3"
		if _, err := os.Stat(filename); err == nil {
			return nil, attached.abort(
				fmt.Errorf("file %s already exists", filename))
		}

		recorder := datarecording.New(opts.dbPath)
		c.AcceptHook(trace.NewDBTracer(recorder))

		exec := datarecording.NewExecRecorder(recorder)
		exec.Start()
		exec.Set("Trace", opts.file)
		exec.Set("Sets", strconv.Itoa(opts.sets))
		exec.Set("Lines Per Set", strconv.Itoa(opts.lines))
		exec.Set("Block Size", strconv.Itoa(opts.block))

		attached = append(attached, func() error {
			stats := c.Stats()
			exec.Set("Accesses", strconv.FormatUint(stats.Accesses, 10))
			exec.Set("Hits", strconv.FormatUint(stats.Hits, 10))
			exec.Set("Misses", strconv.FormatUint(stats.Misses, 10))
			exec.End()

			return recorder.Close()
		})
		logger.WithField("path", filename).Info("Recording accesses")
	}

	return attached.closeAll, nil
}
