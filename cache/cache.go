// Package cache models a set-associative cache with least-recently-used
// replacement. Only tags and valid bits are tracked; the model produces hit
// and miss statistics for a stream of memory references.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache/internal/tagging"
)

// A Line is one slot of a set.
type Line = tagging.Line

// Stats are the counters accumulated by a cache. Accesses always equals
// Hits plus Misses.
type Stats struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// MissRate returns the fraction of accesses that missed.
func (s Stats) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Misses) / float64(s.Accesses)
}

// HitRate returns the fraction of accesses that hit.
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// LastAccess is the most recent memory reference. Valid is false until the
// first memory reference is simulated.
type LastAccess struct {
	Opcode  Opcode
	Address uint32
	Decoded Address
	Hit     bool
	Valid   bool
}

// A SetSnapshot is a copy of the state of one set.
type SetSnapshot struct {
	Index   int
	Lines   []Line
	Recency []int
}

// IsEmpty returns true if no line in the snapshot is valid.
func (s SetSnapshot) IsEmpty() bool {
	for _, l := range s.Lines {
		if l.Valid {
			return false
		}
	}

	return true
}

// Cache is a set-associative cache. A Cache is not safe for concurrent use;
// accesses must be simulated in trace order.
type Cache struct {
	HookableBase

	geometry Geometry
	sets     []*tagging.Set
	stats    Stats
	last     LastAccess
}

// New creates an empty cache organized as described by the geometry. The
// geometry must come from NewGeometry; a zero Geometry is rejected with
// ErrInvalidGeometry.
func New(geometry Geometry) (*Cache, error) {
	if geometry.numSets == 0 ||
		geometry.linesPerSet == 0 ||
		geometry.blockSize == 0 {
		return nil, fmt.Errorf("%w: geometry was not created by NewGeometry",
			ErrInvalidGeometry)
	}

	c := &Cache{
		geometry: geometry,
		sets:     make([]*tagging.Set, geometry.NumSets()),
	}

	for i := range c.sets {
		c.sets[i] = tagging.NewSet(geometry.LinesPerSet())
	}

	return c, nil
}

// Access simulates one trace record and returns whether it hit. Records that
// are not memory references leave the cache untouched and return the result
// of the previous access.
func (c *Cache) Access(op Opcode, addr uint32) bool {
	if op.Kind() == NonMemory {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    HookPosSkip,
			Detail: SkipDetail{Opcode: op, Address: addr},
		})

		return c.last.Hit
	}

	c.stats.Accesses++

	decoded := c.geometry.Decompose(addr)
	set := c.sets[decoded.SetIndex]

	way, hit := set.Lookup(decoded.Tag)
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
		way = c.install(set, decoded)
	}

	c.last = LastAccess{
		Opcode:  op,
		Address: addr,
		Decoded: decoded,
		Hit:     hit,
		Valid:   true,
	}

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Detail: AccessDetail{
			Opcode:  op,
			Address: addr,
			Decoded: decoded,
			Hit:     hit,
			Way:     way,
		},
	})

	return hit
}

func (c *Cache) install(set *tagging.Set, decoded Address) int {
	way, evicted := set.Install(decoded.Tag)
	if !evicted.Valid {
		return way
	}

	c.stats.Evictions++

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosEviction,
		Detail: EvictionDetail{
			SetIndex: decoded.SetIndex,
			Way:      way,
			Evicted:  evicted,
			Incoming: decoded.Tag,
		},
	})

	return way
}

// Geometry returns the organization of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Stats returns the counters accumulated so far.
func (c *Cache) Stats() Stats {
	return c.stats
}

// LastAccess returns the most recent memory reference.
func (c *Cache) LastAccess() LastAccess {
	return c.last
}

// Set returns a snapshot of the set with the given index.
func (c *Cache) Set(index int) SetSnapshot {
	s := c.sets[index]

	return SetSnapshot{
		Index:   index,
		Lines:   s.Lines(),
		Recency: s.RecencyOrder(),
	}
}

// Sets returns snapshots of all the sets, in index order.
func (c *Cache) Sets() []SetSnapshot {
	snapshots := make([]SetSnapshot, len(c.sets))
	for i := range c.sets {
		snapshots[i] = c.Set(i)
	}

	return snapshots
}

// Reset invalidates every line and clears the statistics.
func (c *Cache) Reset() {
	for _, s := range c.sets {
		s.Reset()
	}

	c.stats = Stats{}
	c.last = LastAccess{}
}
