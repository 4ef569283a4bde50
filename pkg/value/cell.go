package value

import (
	"fmt"

	"github.com/rael-lang/rael/pkg/rlog"
)

// AccessError is returned whenever a borrow, exclusive borrow, or take
// would violate the single-writer/many-readers discipline of a Cell.
// Per spec §3.2 this is the only outcome of a disallowed sequence —
// callers never observe a dangling or aliased reference.
type AccessError struct {
	Op    string // "borrow", "borrow_mut", or "take"
	State string // human-readable state at the time of the failed op
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access error: cannot %s cell (%s)", e.Op, e.State)
}

// NotOwnedError is returned by Take when the cell's strong count is
// greater than one: the payload cannot be moved out while other Values
// still reference the cell.
type NotOwnedError struct{}

func (e *NotOwnedError) Error() string { return "not owned: cell has more than one strong reference" }

// accessState is the single word a Cell uses to track outstanding
// borrows, per spec §3.2: free, N outstanding immutable borrows, or
// exclusively borrowed. It is not an atomic — the VM is single-threaded
// (spec §5) so ordinary field mutation is sufficient, but the states
// below are exactly the reader/writer lock states a mutex would enforce.
type accessState int

const (
	stateFree accessState = iota
	stateExclusive
	// Shared borrows have no state value of their own: they are counted
	// in the shared field while the state stays stateFree.
)

// Cell is the reference-counted, borrow-tracked container behind every
// Dynamic and Any Value (spec §3.2). Equality of two Values referring to
// the same Cell is reference equality; Drop runs the payload's drop
// handler exactly once, when the strong count reaches zero.
type Cell struct {
	strong  int
	state   accessState
	shared  int // outstanding immutable borrows; valid when state != stateExclusive
	payload interface{}
	drop    func(interface{})
	// generation is bumped every time the payload is dropped, so weak
	// references created before the drop can detect that an upgrade
	// would resurrect a stale handle.
	generation uint64
	dropped    bool
}

// NewCell allocates a cell with strong count 1 holding payload. drop may
// be nil if the payload needs no destructor.
func NewCell(payload interface{}, drop func(interface{})) *Cell {
	return &Cell{strong: 1, state: stateFree, payload: payload, drop: drop}
}

// Strong returns the current strong reference count.
func (c *Cell) Strong() int { return c.strong }

// Retain increments the strong count; called whenever a Value referring
// to this cell is cloned (spec §3.1: "cloning a Value increments a
// strong count").
func (c *Cell) Retain() { c.strong++ }

// Release decrements the strong count and, if it reaches zero, runs the
// drop handler and invalidates any outstanding weak references.
func (c *Cell) Release() {
	c.strong--
	if c.strong > 0 {
		return
	}
	if !c.dropped && c.drop != nil {
		c.safeDrop()
	}
	c.dropped = true
	c.payload = nil
	c.generation++
}

// safeDrop runs the drop handler under recover so a panicking
// destructor is logged rather than propagated (spec §5: "partial-
// failure during drop is logged but never propagated").
func (c *Cell) safeDrop() {
	defer func() {
		if r := recover(); r != nil {
			rlog.DropFailure(c.dropLabel(), r)
		}
	}()
	c.drop(c.payload)
}

// dropLabel recovers a human-readable type identity for the payload
// being dropped, preferring the runtime type hash carried by Any/
// Dynamic payloads over the bare Go type name.
func (c *Cell) dropLabel() string {
	switch p := c.payload.(type) {
	case *AnyData:
		return p.TypeHash.String()
	case *DynamicData:
		return p.TypeHash.String()
	default:
		return fmt.Sprintf("%T", c.payload)
	}
}

func (c *Cell) stateLabel() string {
	switch {
	case c.dropped:
		return "dropped"
	case c.state == stateExclusive:
		return "exclusively borrowed"
	case c.shared > 0:
		return fmt.Sprintf("%d immutable borrows outstanding", c.shared)
	default:
		return "free"
	}
}

// BorrowRef is a scoped immutable-borrow handle. It must be released
// with Release (typically via defer) exactly once.
type BorrowRef struct {
	cell *Cell
	released bool
}

// Get returns the borrowed payload.
func (b *BorrowRef) Get() interface{} { return b.cell.payload }

// Release ends the borrow, restoring the cell's access state.
func (b *BorrowRef) Release() {
	if b.released {
		return
	}
	b.released = true
	b.cell.shared--
	if b.cell.shared <= 0 {
		b.cell.shared = 0
		b.cell.state = stateFree
	}
}

// BorrowMutRef is a scoped exclusive-borrow handle.
type BorrowMutRef struct {
	cell     *Cell
	released bool
}

// Get returns the exclusively-borrowed payload for in-place mutation by
// the caller (the caller mutates through the returned interface{}'s
// concrete type, typically a pointer-shaped payload).
func (b *BorrowMutRef) Get() interface{} { return b.cell.payload }

// Set replaces the payload while the exclusive borrow is held.
func (b *BorrowMutRef) Set(v interface{}) { b.cell.payload = v }

// Release ends the exclusive borrow, restoring the cell to free.
func (b *BorrowMutRef) Release() {
	if b.released {
		return
	}
	b.released = true
	b.cell.state = stateFree
}

// Borrow takes an immutable borrow. It succeeds if the cell is free or
// already immutably borrowed (spec §3.2).
func (c *Cell) Borrow() (*BorrowRef, error) {
	if c.dropped {
		return nil, &AccessError{Op: "borrow", State: "dropped"}
	}
	if c.state == stateExclusive {
		return nil, &AccessError{Op: "borrow", State: c.stateLabel()}
	}
	c.shared++
	c.state = stateFree // shared-count, not stateExclusive, carries the "borrowed" fact
	return &BorrowRef{cell: c}, nil
}

// BorrowMut takes an exclusive borrow. It succeeds only if the cell is
// entirely free (spec §3.2).
func (c *Cell) BorrowMut() (*BorrowMutRef, error) {
	if c.dropped {
		return nil, &AccessError{Op: "borrow_mut", State: "dropped"}
	}
	if c.state == stateExclusive || c.shared > 0 {
		return nil, &AccessError{Op: "borrow_mut", State: c.stateLabel()}
	}
	c.state = stateExclusive
	return &BorrowMutRef{cell: c}, nil
}

// Take moves the payload out, leaving the cell empty. It succeeds only
// if the cell is free and the strong count is exactly 1 (spec §3.2): no
// other Value may still be able to observe the cell.
func (c *Cell) Take() (interface{}, error) {
	if c.dropped {
		return nil, &AccessError{Op: "take", State: "dropped"}
	}
	if c.state != stateFree || c.shared > 0 {
		return nil, &AccessError{Op: "take", State: c.stateLabel()}
	}
	if c.strong != 1 {
		return nil, &NotOwnedError{}
	}
	payload := c.payload
	c.payload = nil
	c.dropped = true
	c.generation++
	return payload, nil
}

// WeakRef is a non-owning handle to a Cell. It must be Upgraded before
// use, which fails once the cell has been reclaimed (spec §3.2's
// explicit weak-reference primitive for breaking cycles).
type WeakRef struct {
	cell       *Cell
	generation uint64
}

// Weak creates a non-owning handle to c.
func (c *Cell) Weak() *WeakRef {
	return &WeakRef{cell: c, generation: c.generation}
}

// Upgrade returns a strong reference to the cell, or false if the cell
// has since been dropped (generation mismatch, or strong count already
// at zero).
func (w *WeakRef) Upgrade() (*Cell, bool) {
	if w.cell.dropped || w.cell.generation != w.generation || w.cell.strong == 0 {
		return nil, false
	}
	w.cell.Retain()
	return w.cell, true
}
