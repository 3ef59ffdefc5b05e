package cache

// Builder can build caches.
type Builder struct {
	numSets     int
	linesPerSet int
	blockSize   int
	hooks       []Hook
}

// MakeBuilder creates a builder with default parameters: a single
// direct-mapped set with 16-byte blocks.
func MakeBuilder() Builder {
	return Builder{
		numSets:     1,
		linesPerSet: 1,
		blockSize:   16,
	}
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithLinesPerSet sets the associativity.
func (b Builder) WithLinesPerSet(n int) Builder {
	b.linesPerSet = n
	return b
}

// WithBlockSize sets the number of bytes per block.
func (b Builder) WithBlockSize(n int) Builder {
	b.blockSize = n
	return b
}

// WithHooks registers hooks to the cache being built.
func (b Builder) WithHooks(hooks ...Hook) Builder {
	b.hooks = append(append([]Hook(nil), b.hooks...), hooks...)
	return b
}

// Build creates a cache. It fails with ErrInvalidGeometry if the parameters
// do not describe a valid cache.
func (b Builder) Build() (*Cache, error) {
	g, err := NewGeometry(b.numSets, b.linesPerSet, b.blockSize)
	if err != nil {
		return nil, err
	}

	c, err := New(g)
	if err != nil {
		return nil, err
	}

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	return c, nil
}
