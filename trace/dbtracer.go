package trace

import (
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
)

// Tables written by DBTracer.
const (
	AccessTable   = "cache_accesses"
	EvictionTable = "cache_evictions"
)

// AccessEntry is a row of the access table.
type AccessEntry struct {
	Seq      uint64
	Opcode   int
	Address  uint32
	Tag      uint32
	SetIndex uint32
	Offset   uint32
	Way      int
	Hit      bool
}

// EvictionEntry is a row of the eviction table. AccessSeq is the Seq of the
// access that caused the eviction.
type EvictionEntry struct {
	AccessSeq   uint64
	SetIndex    uint32
	Way         int
	EvictedTag  uint32
	IncomingTag uint32
}

// DBTracer is a hook that records accesses and evictions with a
// DataRecorder.
type DBTracer struct {
	recorder datarecording.DataRecorder
	seq      uint64
}

// NewDBTracer creates the tables and returns the tracer.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	recorder.CreateTable(AccessTable, AccessEntry{})
	recorder.CreateTable(EvictionTable, EvictionEntry{})

	return &DBTracer{recorder: recorder}
}

// Func records the access or the eviction.
func (t *DBTracer) Func(ctx cache.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		t.recordAccess(ctx.Detail.(cache.AccessDetail))
	case cache.HookPosEviction:
		t.recordEviction(ctx.Detail.(cache.EvictionDetail))
	}
}

func (t *DBTracer) recordAccess(d cache.AccessDetail) {
	t.seq++

	t.recorder.InsertData(AccessTable, AccessEntry{
		Seq:      t.seq,
		Opcode:   int(d.Opcode),
		Address:  d.Address,
		Tag:      d.Decoded.Tag,
		SetIndex: d.Decoded.SetIndex,
		Offset:   d.Decoded.Offset,
		Way:      d.Way,
		Hit:      d.Hit,
	})
}

// Evictions are reported before the access that causes them.
func (t *DBTracer) recordEviction(d cache.EvictionDetail) {
	t.recorder.InsertData(EvictionTable, EvictionEntry{
		AccessSeq:   t.seq + 1,
		SetIndex:    d.SetIndex,
		Way:         d.Way,
		EvictedTag:  d.Evicted.Tag,
		IncomingTag: d.Incoming,
	})
}
