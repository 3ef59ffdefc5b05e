package trace

import (
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/cache"
)

// PrintResults writes the final statistics in a single line.
func PrintResults(w io.Writer, s cache.Stats) error {
	_, err := fmt.Fprintf(w,
		"Accesses: %d, Hits: %d, Misses: %d, Miss Rate: %.4f\n",
		s.Accesses, s.Hits, s.Misses, s.MissRate())

	return err
}

// VerbosePrinter is a hook that prints the outcome of the latest access
// followed by the content of all the non-empty sets.
type VerbosePrinter struct {
	w   io.Writer
	err error
}

// NewVerbosePrinter creates a VerbosePrinter that writes to w.
func NewVerbosePrinter(w io.Writer) *VerbosePrinter {
	return &VerbosePrinter{w: w}
}

// Err returns the first write error, if any. Printing stops after an error.
func (p *VerbosePrinter) Err() error {
	return p.err
}

// Func prints the cache after every record. A record that is not a memory
// reference prints the previous access again.
func (p *VerbosePrinter) Func(ctx cache.HookCtx) {
	if p.err != nil {
		return
	}

	if ctx.Pos != cache.HookPosAccess && ctx.Pos != cache.HookPosSkip {
		return
	}

	last := ctx.Domain.LastAccess()

	p.printf(" Address: %8x, Tag: %x, Index: %x, Offset: %x",
		last.Address, last.Decoded.Tag, last.Decoded.SetIndex,
		last.Decoded.Offset)

	if last.Hit {
		p.printf(" (hit)\n")
	} else {
		p.printf(" (miss)\n")
	}

	p.printf("     Set: (tag, valid) (tag, valid) ... lruQueue: i0, i1,..\n")

	for _, set := range ctx.Domain.Sets() {
		if set.IsEmpty() {
			continue
		}

		p.printSet(set)
	}

	p.printf("\n")
}

func (p *VerbosePrinter) printSet(set cache.SetSnapshot) {
	p.printf("%8x: ", set.Index)

	for _, line := range set.Lines {
		valid := 0
		if line.Valid {
			valid = 1
		}

		p.printf("(%x, %d) ", line.Tag, valid)
	}

	p.printf("LRUs: ")

	for i := range set.Lines {
		if i < len(set.Recency) {
			p.printf("%d, ", set.Recency[i])
		} else {
			p.printf("-, ")
		}
	}

	p.printf("\n")
}

func (p *VerbosePrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}
