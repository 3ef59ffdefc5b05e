package trace

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/cachesim/datarecording"
)

// SetSummary aggregates the recorded accesses of one set.
type SetSummary struct {
	SetIndex  uint32
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

const summaryPageSize = 10000

// Summarize reads the tables written by DBTracer and aggregates them per
// set. Sets that were never accessed are omitted.
func Summarize(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]SetSummary, error) {
	reader.MapTable(AccessTable, AccessEntry{})
	reader.MapTable(EvictionTable, EvictionEntry{})

	sets := make(map[uint32]*SetSummary)
	get := func(index uint32) *SetSummary {
		s, ok := sets[index]
		if !ok {
			s = &SetSummary{SetIndex: index}
			sets[index] = s
		}

		return s
	}

	err := forEachRow(ctx, reader, AccessTable, "Seq", func(row any) {
		e := row.(*AccessEntry)
		s := get(e.SetIndex)

		s.Accesses++
		if e.Hit {
			s.Hits++
		} else {
			s.Misses++
		}
	})
	if err != nil {
		return nil, err
	}

	err = forEachRow(ctx, reader, EvictionTable, "AccessSeq", func(row any) {
		get(row.(*EvictionEntry).SetIndex).Evictions++
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]SetSummary, 0, len(sets))
	for _, s := range sets {
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SetIndex < summaries[j].SetIndex
	})

	return summaries, nil
}

func forEachRow(
	ctx context.Context,
	reader datarecording.DataReader,
	table, orderBy string,
	fn func(row any),
) error {
	for offset := 0; ; offset += summaryPageSize {
		rows, total, err := reader.Query(ctx, table, datarecording.QueryParams{
			OrderBy: orderBy,
			Limit:   summaryPageSize,
			Offset:  offset,
		})
		if err != nil {
			return fmt.Errorf("read %s: %w", table, err)
		}

		for _, row := range rows {
			fn(row)
		}

		if offset+len(rows) >= total || len(rows) == 0 {
			return nil
		}
	}
}

// PrintSummary writes one line per set.
func PrintSummary(w io.Writer, summaries []SetSummary) error {
	_, err := fmt.Fprintf(w, "%8s %10s %10s %10s %10s %9s\n",
		"Set", "Accesses", "Hits", "Misses", "Evictions", "MissRate")
	if err != nil {
		return err
	}

	for _, s := range summaries {
		missRate := 0.0
		if s.Accesses > 0 {
			missRate = float64(s.Misses) / float64(s.Accesses)
		}

		_, err := fmt.Fprintf(w, "%8x %10d %10d %10d %10d %9.4f\n",
			s.SetIndex, s.Accesses, s.Hits, s.Misses, s.Evictions, missRate)
		if err != nil {
			return err
		}
	}

	return nil
}
