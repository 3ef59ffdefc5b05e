package cache

// An Opcode is the access type of a trace record.
type Opcode int

// Opcodes that appear in traces. Opcodes 0 to 7 are memory references and
// are all simulated the same way.
const (
	OpRead             Opcode = 0
	OpWrite            Opcode = 1
	OpInstructionFetch Opcode = 2

	numMemoryOpcodes = 8
)

// AccessKind tells whether a record reaches the cache.
type AccessKind int

// The kinds of records.
const (
	MemoryReference AccessKind = iota
	NonMemory
)

// Kind classifies the opcode.
func (o Opcode) Kind() AccessKind {
	if o >= 0 && o < numMemoryOpcodes {
		return MemoryReference
	}

	return NonMemory
}

// IsMemoryReference returns true if records with this opcode are simulated.
func (o Opcode) IsMemoryReference() bool {
	return o.Kind() == MemoryReference
}

func (o Opcode) String() string {
	switch {
	case o == OpRead:
		return "read"
	case o == OpWrite:
		return "write"
	case o == OpInstructionFetch:
		return "ifetch"
	case o.IsMemoryReference():
		return "ref"
	default:
		return "non-memory"
	}
}
