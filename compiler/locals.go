package compiler

import (
	"fmt"

	"stackc/types"
)

// maxLocals is the slot limit of the one-byte local operand
const maxLocals = 256

// local is a leased scratch slot
type local struct {
	Slot int
	Type *types.Type
}

// localPool hands out local slots in strict LIFO order. A slot index is
// the pool height at lease time, so released slots are reused by the
// next lease at the same nesting level.
type localPool struct {
	leased []*local
	high   int
}

// Lease acquires the next slot
func (p *localPool) Lease(t *types.Type) (*local, error) {
	if len(p.leased) >= maxLocals {
		return nil, fmt.Errorf("more than %d live locals", maxLocals)
	}
	l := &local{Slot: len(p.leased), Type: t}
	p.leased = append(p.leased, l)
	if len(p.leased) > p.high {
		p.high = len(p.leased)
	}
	return l, nil
}

// Release returns l to the pool. l must be the most recent live lease.
func (p *localPool) Release(l *local) error {
	n := len(p.leased)
	if n == 0 || p.leased[n-1] != l {
		return fmt.Errorf("local %d released out of order", l.Slot)
	}
	p.leased[n-1] = nil
	p.leased = p.leased[:n-1]
	return nil
}

// Leased returns the number of live leases
func (p *localPool) Leased() int {
	return len(p.leased)
}

// HighWater returns the most slots ever live at once
func (p *localPool) HighWater() int {
	return p.high
}
