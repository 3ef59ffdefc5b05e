package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// AddressBits is the width of the addresses that the cache decodes.
const AddressBits = 32

// ErrInvalidGeometry is returned when a cache cannot be organized with the
// requested number of sets, lines per set, or block size.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Geometry describes how a cache is organized. A Geometry is created with
// NewGeometry and never changes afterwards.
type Geometry struct {
	numSets     int
	linesPerSet int
	blockSize   int

	setBits   int
	lineBits  int
	blockBits int

	blockMask uint32
	setMask   uint32
	tagShift  int
}

// An Address is a memory address split into the fields the cache uses.
type Address struct {
	Tag      uint32
	SetIndex uint32
	Offset   uint32
}

// NewGeometry validates the parameters and derives the bit widths used to
// decode addresses. All three values must be positive powers of two, and the
// set index and block offset together must fit in an address.
func NewGeometry(numSets, linesPerSet, blockSize int) (Geometry, error) {
	if err := mustBePowerOfTwo("number of sets", numSets); err != nil {
		return Geometry{}, err
	}

	if err := mustBePowerOfTwo("lines per set", linesPerSet); err != nil {
		return Geometry{}, err
	}

	if err := mustBePowerOfTwo("block size", blockSize); err != nil {
		return Geometry{}, err
	}

	g := Geometry{
		numSets:     numSets,
		linesPerSet: linesPerSet,
		blockSize:   blockSize,
		setBits:     log2(numSets),
		lineBits:    log2(linesPerSet),
		blockBits:   log2(blockSize),
	}

	if g.setBits+g.blockBits > AddressBits {
		return Geometry{}, fmt.Errorf(
			"%w: %d set bits and %d block bits exceed a %d-bit address",
			ErrInvalidGeometry, g.setBits, g.blockBits, AddressBits)
	}

	g.blockMask = lowBits(g.blockBits)
	g.setMask = lowBits(g.setBits)
	g.tagShift = g.setBits + g.blockBits

	return g, nil
}

func mustBePowerOfTwo(what string, v int) error {
	if v <= 0 || v&(v-1) != 0 {
		return fmt.Errorf("%w: %s (%d) is not a positive power of two",
			ErrInvalidGeometry, what, v)
	}

	return nil
}

func log2(v int) int {
	return bits.TrailingZeros(uint(v))
}

func lowBits(n int) uint32 {
	return uint32(uint64(1)<<n - 1)
}

// NumSets returns the number of sets.
func (g Geometry) NumSets() int { return g.numSets }

// LinesPerSet returns the associativity.
func (g Geometry) LinesPerSet() int { return g.linesPerSet }

// BlockSize returns the number of bytes in a block.
func (g Geometry) BlockSize() int { return g.blockSize }

// SetBits returns log2 of the number of sets.
func (g Geometry) SetBits() int { return g.setBits }

// LineBits returns log2 of the associativity. It is not used for decoding.
func (g Geometry) LineBits() int { return g.lineBits }

// BlockBits returns log2 of the block size.
func (g Geometry) BlockBits() int { return g.blockBits }

// TagBits returns the number of address bits left for the tag.
func (g Geometry) TagBits() int { return AddressBits - g.tagShift }

// TotalSize returns the maximum number of bytes that can be stored in the
// cache.
func (g Geometry) TotalSize() uint64 {
	return uint64(g.numSets) * uint64(g.linesPerSet) * uint64(g.blockSize)
}

// Offset returns the byte offset of the address within its block.
func (g Geometry) Offset(addr uint32) uint32 {
	return addr & g.blockMask
}

// SetIndex returns the index of the set that the address maps to.
func (g Geometry) SetIndex(addr uint32) uint32 {
	return (addr >> g.blockBits) & g.setMask
}

// Tag returns the high-order bits of the address that identify the block
// within its set.
func (g Geometry) Tag(addr uint32) uint32 {
	return addr >> g.tagShift
}

// Decompose splits the address into tag, set index and offset.
func (g Geometry) Decompose(addr uint32) Address {
	return Address{
		Tag:      g.Tag(addr),
		SetIndex: g.SetIndex(addr),
		Offset:   g.Offset(addr),
	}
}

// Compose rebuilds the address from its fields.
func (g Geometry) Compose(a Address) uint32 {
	return a.Tag<<g.tagShift | a.SetIndex<<g.blockBits | a.Offset
}
