package trace

import (
	"context"
	"errors"
	"io"

	"github.com/sarchlab/cachesim/cache"
)

// ReplayStats counts the records consumed by Replay.
type ReplayStats struct {
	Records uint64
	Skipped uint64
}

// Replay feeds every record of the source into the cache, in order. Records
// that are not memory references are counted as skipped. Replay stops at the
// end of the source, at the first read error, or when ctx is done.
func Replay(
	ctx context.Context,
	src RecordSource,
	c *cache.Cache,
) (ReplayStats, error) {
	var stats ReplayStats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		if err != nil {
			return stats, err
		}

		stats.Records++
		if !rec.Opcode.IsMemoryReference() {
			stats.Skipped++
		}

		c.Access(rec.Opcode, rec.Address)
	}
}
