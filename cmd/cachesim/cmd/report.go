package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/trace"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <recording.sqlite3>",
		Short: "Summarize a recording per set.",
		Long: "report reads a database written with --db and prints how the " +
			"simulation was run, followed by the accesses, hits, misses and " +
			"evictions of every set that was used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			out := cmd.OutOrStdout()

			if err := printExecInfo(cmd.Context(), out, reader); err != nil {
				return err
			}

			summaries, err := trace.Summarize(cmd.Context(), reader)
			if err != nil {
				return err
			}

			return trace.PrintSummary(out, summaries)
		},
	}
}

func printExecInfo(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
) error {
	reader.MapTable(datarecording.ExecTable, datarecording.ExecInfo{})

	rows, _, err := reader.Query(ctx, datarecording.ExecTable,
		datarecording.QueryParams{OrderBy: "rowid"})
	if err != nil {
		return fmt.Errorf("read %s: %w", datarecording.ExecTable, err)
	}

	for _, row := range rows {
		info := row.(*datarecording.ExecInfo)
		if _, err := fmt.Fprintf(w, "%s: %s\n", info.Property, info.Value); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(w)

	return err
}
