// Package slots keeps a fixed-capacity registry of externally owned handles.
//
// A Table hands out stable slot indices in contiguous runs tagged with a
// resource kind. It never creates or destroys the handles itself: callers
// write the handles they obtained into the slots returned by Reserve, and
// Clean passes every occupied run to the destroyer registered for its kind.
package slots

import (
	"fmt"
	"iter"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pavanmanishd/region"
	"github.com/pavanmanishd/region/bitset"
)

// DestroyFunc releases a batch of handles of one kind. The slice aliases
// table memory and must not be retained.
type DestroyFunc func(handles []Handle) error

// Destroyers maps each kind to the routine that releases its handles.
type Destroyers map[Kind]DestroyFunc

// Slot is the content of one occupied slot.
type Slot struct {
	Kind   Kind
	Handle Handle
}

// Stats is a snapshot of table usage.
type Stats struct {
	Limit              int
	Used               int
	FailedReservations uint64

	// Generation changes on every Init and is zero for a cleaned table.
	Generation uint64
}

var generations atomic.Uint64

// Option configures a Table at Init.
type Option func(*Table)

// WithLogger sets the logger used for capacity and cleanup diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Table is an append-only slot registry backed by region memory.
// Not goroutine-safe, and must not be copied after Init.
type Table struct {
	noCopy noCopy

	handles  region.Array[Handle]
	kinds    region.Array[Kind]
	occupied bitset.Bitset
	used     int
	failed   uint64
	gen      uint64
	logger   *zap.Logger
}

// New returns a table of limit slots allocated from r.
func New(r *region.Region, limit int, opts ...Option) (*Table, error) {
	t := &Table{}
	if err := t.Init(r, limit, opts...); err != nil {
		return nil, err
	}
	return t, nil
}

// Init allocates the handle, kind and occupancy arrays for limit slots from
// r. If r cannot hold them, r is rewound to where it was and the table stays
// in its zero state.
func (t *Table) Init(r *region.Region, limit int, opts ...Option) error {
	if t.Initialized() {
		panic("slots: Init on an initialized table")
	}
	if limit <= 0 {
		panic(fmt.Sprintf("slots: invalid limit %d", limit))
	}

	t.logger = zap.NewNop()
	for _, opt := range opts {
		opt(t)
	}

	mark := r.Offset()
	handles, err := region.PushArray[Handle](r, limit)
	var kinds region.Array[Kind]
	if err == nil {
		kinds, err = region.PushArray[Kind](r, limit)
	}
	var occupied bitset.Bitset
	if err == nil {
		occupied, err = bitset.Push(r, limit)
	}
	if err != nil {
		r.Rewind(mark)
		t.logger.Error("failed to initialise slot table", zap.Int("limit", limit), zap.Error(err))
		t.logger = nil
		return fmt.Errorf("slots: table of %d slots: %w", limit, err)
	}

	t.handles = handles
	t.kinds = kinds
	t.occupied = occupied
	t.used = 0
	t.failed = 0
	t.gen = generations.Add(1)
	return nil
}

// Reserve tags the next n slots with kind and returns their handle slots,
// which the caller fills once the external objects exist. If fewer than n
// slots remain, Reserve returns ErrCapacityExceeded and changes nothing.
func (t *Table) Reserve(n int, kind Kind) (region.Array[Handle], error) {
	t.panicIfUninitialized()
	if n <= 0 {
		panic(fmt.Sprintf("slots: invalid reservation count %d", n))
	}
	if !kind.Valid() {
		panic(fmt.Sprintf("slots: invalid resource kind %d", uint8(kind)))
	}

	if n > t.Remaining() {
		t.failed++
		t.logger.Warn("slot table capacity exceeded",
			zap.Int("requested", n),
			zap.Stringer("kind", kind),
			zap.Int("used", t.used),
			zap.Int("limit", t.Limit()))
		return region.Array[Handle]{}, fmt.Errorf("%w: %d %s slots requested with %d of %d used",
			ErrCapacityExceeded, n, kind, t.used, t.Limit())
	}

	start := t.used
	for i := start; i < start+n; i++ {
		*t.kinds.At(i) = kind
		t.occupied.Set(i)
	}
	t.used += n
	return t.handles.Slice(start, t.used), nil
}

// Clean hands every occupied run of same-kind slots to its destroyer, then
// zero-fills the table's memory and returns the table to its zero state.
// A run whose kind has no destroyer is reported with ErrNoDestroyer; the
// remaining runs are still destroyed. Errors from all runs are combined.
func (t *Table) Clean(destroyers Destroyers) error {
	t.panicIfUninitialized()

	var err error
	handles := t.handles.Elems()
	for start := 0; start < t.used; {
		kind := *t.kinds.At(start)
		end := start + 1
		for end < t.used && *t.kinds.At(end) == kind {
			end++
		}

		destroy := destroyers[kind]
		switch {
		case destroy == nil:
			t.logger.Error("no destroyer for occupied slots",
				zap.Stringer("kind", kind),
				zap.Int("first", start),
				zap.Int("count", end-start))
			err = multierr.Append(err, fmt.Errorf("%w %s: slots [%d,%d)", ErrNoDestroyer, kind, start, end))
		default:
			if derr := destroy(handles[start:end:end]); derr != nil {
				t.logger.Error("failed to destroy slots",
					zap.Stringer("kind", kind),
					zap.Int("first", start),
					zap.Int("count", end-start),
					zap.Error(derr))
				err = multierr.Append(err, fmt.Errorf("slots: destroy %s slots [%d,%d): %w", kind, start, end, derr))
			}
		}
		start = end
	}

	clear(handles)
	clear(t.kinds.Elems())
	clear(t.occupied.Bytes())
	t.handles = region.Array[Handle]{}
	t.kinds = region.Array[Kind]{}
	t.occupied = bitset.Bitset{}
	t.used = 0
	t.failed = 0
	t.gen = 0
	t.logger = nil
	return err
}

// Initialized reports whether the table has been initialized and not cleaned.
func (t *Table) Initialized() bool {
	return t.handles.Len() > 0
}

// Limit returns the number of slots.
func (t *Table) Limit() int {
	return t.handles.Len()
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	return t.used
}

// Remaining returns the number of slots still free.
func (t *Table) Remaining() int {
	return t.Limit() - t.used
}

// Handle returns the handle stored in occupied slot i.
func (t *Table) Handle(i int) Handle {
	t.checkOccupied(i)
	return *t.handles.At(i)
}

// Kind returns the kind of occupied slot i.
func (t *Table) Kind(i int) Kind {
	t.checkOccupied(i)
	return *t.kinds.At(i)
}

// Occupied reports whether slot i has been reserved. i must be below Limit.
func (t *Table) Occupied(i int) bool {
	t.panicIfUninitialized()
	return t.occupied.Test(i)
}

// FirstFree returns the lowest unreserved slot index, or bitset.NotFound
// when the table is full.
func (t *Table) FirstFree() int {
	t.panicIfUninitialized()
	return t.occupied.FirstUnset()
}

// Handles returns a read-only view of the occupied handle slots.
func (t *Table) Handles() region.View[Handle] {
	return t.handles.View().Slice(0, t.used)
}

// All iterates over the occupied slots in index order.
func (t *Table) All() iter.Seq2[int, Slot] {
	return func(yield func(int, Slot) bool) {
		for i := 0; i < t.used; i++ {
			if !yield(i, Slot{Kind: *t.kinds.At(i), Handle: *t.handles.At(i)}) {
				return
			}
		}
	}
}

// Stats returns a snapshot of table usage.
func (t *Table) Stats() Stats {
	return Stats{
		Limit:              t.Limit(),
		Used:               t.used,
		FailedReservations: t.failed,
		Generation:         t.gen,
	}
}

func (t *Table) checkOccupied(i int) {
	t.panicIfUninitialized()
	if i < 0 || i >= t.used {
		panic(fmt.Sprintf("slots: slot %d not occupied [0,%d)", i, t.used))
	}
}

func (t *Table) panicIfUninitialized() {
	if !t.Initialized() {
		panic("slots: use of uninitialized or cleaned table")
	}
}

// noCopy may be embedded into structs which must not be copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
