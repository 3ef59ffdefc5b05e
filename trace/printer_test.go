package trace

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

var _ = Describe("PrintResults", func() {
	It("should print the statistics", func() {
		buf := new(bytes.Buffer)

		err := PrintResults(buf, cache.Stats{Accesses: 4, Hits: 1, Misses: 3})

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal(
			"Accesses: 4, Hits: 1, Misses: 3, Miss Rate: 0.7500\n"))
	})

	It("should print a zero miss rate without accesses", func() {
		buf := new(bytes.Buffer)

		PrintResults(buf, cache.Stats{})

		Expect(buf.String()).To(ContainSubstring("Miss Rate: 0.0000"))
	})
})

var _ = Describe("VerbosePrinter", func() {
	var (
		buf     *bytes.Buffer
		printer *VerbosePrinter
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		printer = NewVerbosePrinter(buf)
	})

	It("should print the cache after each access", func() {
		c, _ := cache.MakeBuilder().
			WithNumSets(4).
			WithBlockSize(4).
			WithHooks(printer).
			Build()

		c.Access(cache.OpRead, 0x0)
		c.Access(cache.OpRead, 0x10)

		Expect(buf.String()).To(Equal(
			" Address:        0, Tag: 0, Index: 0, Offset: 0 (miss)\n" +
				"     Set: (tag, valid) (tag, valid) ... lruQueue: i0, i1,..\n" +
				"       0: (0, 1) LRUs: 0, \n" +
				"\n" +
				" Address:       10, Tag: 1, Index: 0, Offset: 0 (miss)\n" +
				"     Set: (tag, valid) (tag, valid) ... lruQueue: i0, i1,..\n" +
				"       0: (1, 1) LRUs: 0, \n" +
				"\n"))
		Expect(printer.Err()).NotTo(HaveOccurred())
	})

	It("should repeat the previous access for non memory records", func() {
		c, _ := cache.MakeBuilder().
			WithNumSets(4).
			WithBlockSize(4).
			WithHooks(printer).
			Build()

		c.Access(cache.OpRead, 0x0)
		buf.Reset()
		c.Access(cache.Opcode(8), 0x40)

		Expect(buf.String()).To(Equal(
			" Address:        0, Tag: 0, Index: 0, Offset: 0 (miss)\n" +
				"     Set: (tag, valid) (tag, valid) ... lruQueue: i0, i1,..\n" +
				"       0: (0, 1) LRUs: 0, \n" +
				"\n"))
	})

	It("should mark recency positions that were never written", func() {
		c, _ := cache.MakeBuilder().
			WithNumSets(2).
			WithLinesPerSet(2).
			WithBlockSize(4).
			WithHooks(printer).
			Build()

		c.Access(cache.OpRead, 0x4)
		buf.Reset()
		c.Access(cache.OpRead, 0x7)

		Expect(buf.String()).To(Equal(
			" Address:        7, Tag: 0, Index: 1, Offset: 3 (hit)\n" +
				"     Set: (tag, valid) (tag, valid) ... lruQueue: i0, i1,..\n" +
				"       1: (0, 1) (0, 0) LRUs: 0, -, \n" +
				"\n"))
	})

	It("should stop printing after a write error", func() {
		printer = NewVerbosePrinter(failingWriter{})
		c, _ := cache.MakeBuilder().WithHooks(printer).Build()

		c.Access(cache.OpRead, 0x0)
		c.Access(cache.OpRead, 0x0)

		Expect(printer.Err()).To(MatchError("disk full"))
	})
})

var _ = Describe("CSVTracer", func() {
	It("should write every access", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		tracer := NewCSVTracer(path)
		Expect(tracer.Init()).To(Succeed())

		c, _ := cache.MakeBuilder().
			WithNumSets(4).
			WithBlockSize(4).
			WithHooks(tracer).
			Build()
		c.Access(cache.OpRead, 0x0)
		c.Access(cache.OpWrite, 0x13)
		c.Access(cache.Opcode(8), 0x0)

		Expect(tracer.Close()).To(Succeed())

		content, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Split(string(content), "\n")).To(Equal([]string{
			"Seq, Opcode, Address, Tag, Index, Offset, Hit",
			"1, 0, 0x0, 0x0, 0x0, 0x0, false",
			"2, 1, 0x13, 0x1, 0x0, 0x3, false",
			"",
		}))
	})

	It("should refuse to overwrite a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		Expect(os.WriteFile(path+".csv", nil, 0o644)).To(Succeed())

		Expect(NewCSVTracer(path).Init()).NotTo(Succeed())
	})

	It("should generate a name when none is given", func() {
		tracer := NewCSVTracer("")
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.Chdir, wd)
		Expect(os.Chdir(GinkgoT().TempDir())).To(Succeed())

		Expect(tracer.Init()).To(Succeed())
		defer tracer.Close()

		Expect(tracer.Path()).To(HavePrefix("cachesim_trace_"))
		Expect(tracer.Path()).To(BeAnExistingFile())
	})
})
