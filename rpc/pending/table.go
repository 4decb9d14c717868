package pending

import (
	"errors"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// ErrDuplicateID is returned by Reserve when the id is already outstanding.
var ErrDuplicateID = errors.New("pending: request id already outstanding")

// --------------------------------------------------------------------------
// Outcome
// --------------------------------------------------------------------------

// Outcome is the terminal result of a call, mirroring the error/result slots
// of a Response: exactly one of the two values is non-nil.
type Outcome struct {
	Err    message.Value
	Result message.Value
}

// IsError reports whether the outcome is a failure.
func (o Outcome) IsError() bool {
	return !o.Err.IsNil()
}

// --------------------------------------------------------------------------
// Call
// --------------------------------------------------------------------------

// Call is a single-assignment completion slot for one outstanding request.
// It is written exactly once, by whichever of Resolve or Fail wins the
// removal of the table entry.
type Call struct {
	id      uint32
	done    chan struct{}
	outcome Outcome
	err     error
}

// ID returns the request id the call was reserved under.
func (c *Call) ID() uint32 {
	return c.id
}

// Done is closed once the call has completed. Outcome must only be read
// after Done is closed.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Outcome returns the completion of the call: the peer's outcome, or a
// transport-level error if the connection failed before a Response arrived.
func (c *Call) Outcome() (Outcome, error) {
	return c.outcome, c.err
}

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table correlates request ids with their completion slots. One table is
// owned by one logical connection; entries live from the moment a request is
// sent (or accepted for handling) until its outcome is consumed.
type Table struct {
	calls  *xsync.MapOf[uint32, *Call]
	nextID atomic.Uint32
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{calls: xsync.NewMapOf[uint32, *Call]()}
}

// Register allocates the next free id and reserves it in one step. The id
// counter wraps around at 32 bits; ids still outstanding are skipped, so an
// id is never reused while its previous call is in flight.
func (t *Table) Register() *Call {
	for {
		id := t.nextID.Add(1)
		c := &Call{id: id, done: make(chan struct{})}
		if _, loaded := t.calls.LoadOrStore(id, c); !loaded {
			return c
		}
	}
}

// Reserve creates the completion slot for a caller-chosen id. It fails with
// ErrDuplicateID if the id is already outstanding.
func (t *Table) Reserve(id uint32) (*Call, error) {
	c := &Call{id: id, done: make(chan struct{})}
	if _, loaded := t.calls.LoadOrStore(id, c); loaded {
		return nil, ErrDuplicateID
	}
	return c, nil
}

// Resolve completes the call reserved under id with the peer's outcome.
// It returns false if no such call is outstanding — an orphaned response,
// which the caller reports but must treat as a harmless no-op.
func (t *Table) Resolve(id uint32, o Outcome) bool {
	c, ok := t.calls.LoadAndDelete(id)
	if !ok {
		return false
	}
	c.outcome = o
	close(c.done)
	return true
}

// Fail completes the call reserved under id with a transport-level error.
func (t *Table) Fail(id uint32, err error) bool {
	c, ok := t.calls.LoadAndDelete(id)
	if !ok {
		return false
	}
	c.err = err
	close(c.done)
	return true
}

// FailAll fails every outstanding call, typically because the connection
// broke, and returns how many callers were woken up.
func (t *Table) FailAll(err error) int {
	n := 0
	t.calls.Range(func(id uint32, _ *Call) bool {
		if t.Fail(id, err) {
			n++
		}
		return true
	})
	return n
}

// Remove abandons the call reserved under id without completing it, e.g.
// when the caller gives up after a timeout. A Response arriving later for
// this id resolves nothing and is reported as an orphan.
func (t *Table) Remove(id uint32) bool {
	_, ok := t.calls.LoadAndDelete(id)
	return ok
}

// Len returns the number of outstanding calls.
func (t *Table) Len() int {
	return t.calls.Size()
}
