// Package trace replays memory-access logs through a cache model and reports
// what happened.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/cache"
)

// A Record is one event of a trace.
type Record struct {
	Opcode  cache.Opcode
	Address uint32

	// Line is the 1-based line number the record was read from.
	Line int
}

// A ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Errors wrapped by ParseError.
var (
	ErrMissingField = errors.New("expected an opcode and an address")
	ErrBadOpcode    = errors.New("opcode must be a non-negative decimal integer")
	ErrBadAddress   = errors.New("address must be a 32-bit hexadecimal number")
)

// A RecordSource produces trace records in order. Next returns io.EOF after
// the last record.
type RecordSource interface {
	Next() (Record, error)
}

// Reader reads text traces. Each line holds a decimal opcode and a
// hexadecimal address; anything after the address is ignored. Blank lines and
// lines starting with '#' are skipped.
type Reader struct {
	scanner   *bufio.Scanner
	line      int
	skipLines int
}

// A ReaderOption configures a Reader.
type ReaderOption func(r *Reader)

// WithSkipLines makes the reader ignore the first n lines of the input.
func WithSkipLines(n int) ReaderOption {
	return func(r *Reader) {
		r.skipLines = n
	}
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		scanner: bufio.NewScanner(r),
	}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Next returns the next record.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		if r.line <= r.skipLines {
			continue
		}

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := parseRecord(text)
		if err != nil {
			return Record{}, &ParseError{Line: r.line, Text: text, Err: err}
		}

		rec.Line = r.line

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}

	return Record{}, io.EOF
}

func parseRecord(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Record{}, ErrMissingField
	}

	op, err := strconv.Atoi(fields[0])
	if err != nil || op < 0 {
		return Record{}, ErrBadOpcode
	}

	addrText := strings.TrimPrefix(strings.TrimPrefix(fields[1], "0x"), "0X")

	addr, err := strconv.ParseUint(addrText, 16, cache.AddressBits)
	if err != nil {
		return Record{}, ErrBadAddress
	}

	return Record{Opcode: cache.Opcode(op), Address: uint32(addr)}, nil
}
