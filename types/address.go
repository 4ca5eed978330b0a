package types

import "fmt"

// AddressKind says what kind of storage an Address points into
type AddressKind int

const (
	AddrSlot AddressKind = iota // Argument or local slot of a frame
	AddrField                   // Field of a struct or object
	AddrElem                    // Array element
)

// Address is a first-class reference to a storage cell. It is what
// address-shaped loads push and what indirect stores consume.
type Address struct {
	cells []Value
	index int
	kind  AddressKind
}

// SlotAddress returns an address of slots[i]
func SlotAddress(slots []Value, i int) Address {
	return Address{cells: slots, index: i, kind: AddrSlot}
}

// Load returns the raw stored value (structs are not cloned)
func (a Address) Load() Value {
	return a.cells[a.index]
}

// Store writes v into the cell
func (a Address) Store(v Value) {
	a.cells[a.index] = v
}

// Kind returns the storage kind
func (a Address) Kind() AddressKind {
	return a.kind
}

func (a Address) Type() TypeCode {
	return TYPE_ADDRESS
}

func (a Address) String() string {
	switch a.kind {
	case AddrSlot:
		return fmt.Sprintf("&slot[%d]", a.index)
	case AddrField:
		return fmt.Sprintf("&field[%d]", a.index)
	default:
		return fmt.Sprintf("&elem[%d]", a.index)
	}
}

// Equal reports whether both addresses name the same cell
func (a Address) Equal(other Value) bool {
	o, ok := other.(Address)
	if !ok || o.index != a.index || len(o.cells) != len(a.cells) {
		return false
	}
	return len(a.cells) > 0 && &a.cells[0] == &o.cells[0]
}

func (a Address) Truthy() bool {
	return false
}
