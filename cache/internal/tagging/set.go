// Package tagging keeps track of which memory blocks occupy the lines of a
// set-associative cache.
package tagging

// A Line is one slot of a set. Only the tag and the valid bit are modeled.
type Line struct {
	Tag   uint32
	Valid bool
}

// A Set is a fixed group of lines that a memory block can be placed in,
// together with the usage order of those lines.
type Set struct {
	lines   []Line
	recency RecencyList
}

// NewSet creates a set with numLines invalid lines.
func NewSet(numLines int) *Set {
	return &Set{
		lines:   make([]Line, numLines),
		recency: NewRecencyList(numLines),
	}
}

// Lookup searches the set for a valid line that holds the tag. On a hit, the
// line becomes the most recently used one. A miss does not change the set.
func (s *Set) Lookup(tag uint32) (way int, hit bool) {
	for i, line := range s.lines {
		if line.Valid && line.Tag == tag {
			s.recency.Touch(i)
			return i, true
		}
	}

	return -1, false
}

// Install places the tag into the set after a miss. The first invalid line is
// used if there is one; otherwise the least recently used line is replaced.
// The line that was overwritten is returned; its Valid field tells if a block
// was evicted.
func (s *Set) Install(tag uint32) (way int, evicted Line) {
	way = s.findWay()
	evicted = s.lines[way]

	s.lines[way] = Line{Tag: tag, Valid: true}
	s.recency.Touch(way)

	return way, evicted
}

func (s *Set) findWay() int {
	for i, line := range s.lines {
		if !line.Valid {
			return i
		}
	}

	return s.recency.Victim()
}

// NumLines returns the associativity of the set.
func (s *Set) NumLines() int {
	return len(s.lines)
}

// Line returns the line at the given way.
func (s *Set) Line(way int) Line {
	return s.lines[way]
}

// Lines returns a copy of all the lines, in way order.
func (s *Set) Lines() []Line {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)

	return lines
}

// RecencyOrder returns the written ways, least recently used first.
func (s *Set) RecencyOrder() []int {
	return s.recency.Order()
}

// IsEmpty returns true if no line of the set is valid.
func (s *Set) IsEmpty() bool {
	for _, line := range s.lines {
		if line.Valid {
			return false
		}
	}

	return true
}

// Reset invalidates all the lines.
func (s *Set) Reset() {
	for i := range s.lines {
		s.lines[i] = Line{}
	}

	s.recency.Reset()
}
