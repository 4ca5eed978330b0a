package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"stackc/builtins"
	"stackc/types"
)

// Program is one compiled callable unit
type Program struct {
	Name      string
	ID        ulid.ULID     // Unit identity reported to debug sinks
	Type      *types.Type   // Func type of the source lambda
	Code      []byte        // Bytecode instructions
	Constants []types.Value // Constant pool
	Types     []*types.Type // Type pool for NEWOBJ, NEWARR, PUSH_DEFAULT
	LineInfo  []LineEntry   // Sequence points
	NumParams int           // Argument slots, including the environment
	NumLocals int           // High-water mark of leased local slots
	MaxStack  int           // Deepest operand stack reached
	HasEnv    bool          // Argument 0 is the enclosing environment record
	Module    *Module       // Units reachable by MAKE_CLOSURE
}

// Module holds every unit produced by one top-level compile. Units[0] is
// the root.
type Module struct {
	Units []*Program
	Host  *builtins.Registry
}

// Root returns the top-level unit
func (m *Module) Root() *Program {
	return m.Units[0]
}

// LineEntry maps bytecode IP to a source position
type LineEntry struct {
	StartIP int // First IP for this position
	Line    int
	Column  int
}

// LineForIP returns the source line number for a given IP
func (p *Program) LineForIP(ip int) int {
	for i := len(p.LineInfo) - 1; i >= 0; i-- {
		if p.LineInfo[i].StartIP <= ip {
			return p.LineInfo[i].Line
		}
	}
	return 0
}

// Params returns the declared parameter count, excluding the environment
func (p *Program) Params() int {
	if p.HasEnv {
		return p.NumParams - 1
	}
	return p.NumParams
}

// HandlerType represents the type of protected-region handler
type HandlerType int

const (
	HandlerExcept HandlerType = iota
	HandlerFinally
	HandlerFault
)

func (t HandlerType) String() string {
	switch t {
	case HandlerExcept:
		return "except"
	case HandlerFinally:
		return "finally"
	case HandlerFault:
		return "fault"
	}
	return "handler?"
}

// Clause is one catch clause of an except handler
type Clause struct {
	Codes     []types.ErrorCode // Errors to catch; empty catches all
	VarIndex  int               // Local receiving the error, -1 if none
	FilterIP  int               // Filter code location, -1 if none
	HandlerIP int               // Handler code location
}

// Matches checks if a clause matches an error code
func (c *Clause) Matches(code types.ErrorCode) bool {
	if len(c.Codes) == 0 {
		return true
	}
	for _, want := range c.Codes {
		if want == code {
			return true
		}
	}
	return false
}

// Handler is one entry on a frame's handler stack
type Handler struct {
	Type      HandlerType
	Clauses   []Clause // Except
	HandlerIP int      // Finally, Fault
	SP        int      // Operand stack height when the region was entered
}

// Fingerprint digests everything that determines the unit's behavior:
// code, constants, types and nested units. Two compiles of the same tree
// with the same options have equal fingerprints.
func (p *Program) Fingerprint() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	var buf [8]byte
	writeInt := func(n int) {
		binary.BigEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	var write func(q *Program)
	write = func(q *Program) {
		writeInt(len(q.Code))
		h.Write(q.Code)
		writeInt(len(q.Constants))
		for _, c := range q.Constants {
			s := fmt.Sprintf("%d:%s", c.Type(), c)
			if f, ok := c.(types.FloatValue); ok {
				s = fmt.Sprintf("%d:%x", c.Type(), math.Float64bits(f.Val))
			}
			writeInt(len(s))
			h.Write([]byte(s))
		}
		writeInt(len(q.Types))
		for _, t := range q.Types {
			s := t.String()
			writeInt(len(s))
			h.Write([]byte(s))
		}
		writeInt(q.NumParams)
		writeInt(q.NumLocals)
	}
	write(p)
	if p.Module != nil {
		for _, u := range p.Module.Units {
			if u != p {
				write(u)
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewID returns a fresh unit identity
func NewID() ulid.ULID {
	return ulid.Make()
}
