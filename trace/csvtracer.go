package trace

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cache"
)

// CSVTracer is a hook that writes every access into a CSV file.
type CSVTracer struct {
	path   string
	file   *os.File
	writer *bufio.Writer

	rows       []cache.AccessDetail
	bufferSize int
	seq        uint64
	err        error
}

// NewCSVTracer creates a CSVTracer that writes to path + ".csv". If path is
// empty, a unique name is generated when Init is called.
func NewCSVTracer(path string) *CSVTracer {
	return &CSVTracer{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the CSV file.
func (t *CSVTracer) Path() string {
	return t.path + ".csv"
}

// Init creates the CSV file and writes the header. It refuses to overwrite an
// existing file. Buffered rows are flushed when the program exits through
// atexit.
func (t *CSVTracer) Init() error {
	if t.path == "" {
		t.path = "cachesim_trace_" + xid.New().String()
	}

	filename := t.Path()

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	t.file = file
	t.writer = bufio.NewWriter(file)

	fmt.Fprintf(t.writer, "Seq, Opcode, Address, Tag, Index, Offset, Hit\n")

	atexit.Register(func() { t.Close() })

	return nil
}

// Func records an access.
func (t *CSVTracer) Func(ctx cache.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	t.rows = append(t.rows, ctx.Detail.(cache.AccessDetail))
	if len(t.rows) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered rows to the file.
func (t *CSVTracer) Flush() {
	if t.writer == nil || t.err != nil {
		return
	}

	for _, row := range t.rows {
		t.seq++

		_, t.err = fmt.Fprintf(t.writer, "%d, %d, 0x%x, 0x%x, 0x%x, 0x%x, %t\n",
			t.seq,
			row.Opcode,
			row.Address,
			row.Decoded.Tag,
			row.Decoded.SetIndex,
			row.Decoded.Offset,
			row.Hit,
		)
		if t.err != nil {
			return
		}
	}

	t.rows = nil
	t.err = t.writer.Flush()
}

// Close flushes the remaining rows and closes the file.
func (t *CSVTracer) Close() error {
	if t.file == nil {
		return t.err
	}

	t.Flush()

	err := t.file.Close()
	t.file = nil
	t.writer = nil

	if t.err != nil {
		return t.err
	}

	return err
}
