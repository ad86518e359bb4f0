// Package region implements a fixed-capacity bump allocator (memory region)
// and typed arrays carved out of it.
// Typical usage: initialize one region up front, push arrays from it, and
// Rewind to a remembered offset to discard everything pushed since.
package region

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pavanmanishd/region/internal/membuf"
)

// MaxAlign is the largest alignment for which an offset aligned inside the
// region is also an aligned address. Mmap backing is page aligned.
const MaxAlign = membuf.HeapAlign

// generations numbers every successful Init in the process.
var generations atomic.Uint64

// Region is a bump allocator over one fixed buffer. Not goroutine-safe.
//
// The zero value is the uninitialized state; call Init (or use New) before
// allocating. A Region must not be copied after Init.
type Region struct {
	noCopy noCopy

	buf      []byte
	offset   int
	unmap    func() error
	logger   *zap.Logger
	counters counters

	// generation identifies the current buffer lifetime; zero when released.
	generation uint64
}

// New returns a region initialized with capacity bytes.
func New(capacity int, opts ...Option) (*Region, error) {
	r := &Region{}
	if err := r.Init(capacity, opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// Init obtains a zero-filled buffer of capacity bytes. The region must be in
// its zero state. If memory cannot be obtained Init returns an error wrapping
// ErrOutOfMemory and the region stays in its zero state.
func (r *Region) Init(capacity int, opts ...Option) error {
	if r.buf != nil || r.offset != 0 {
		panic("region: Init on an initialized region")
	}
	if capacity <= 0 {
		panic(fmt.Sprintf("region: invalid capacity %d", capacity))
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		buf   []byte
		unmap func() error
		err   error
	)
	switch o.backing {
	case Mmap:
		buf, unmap, err = membuf.Map(capacity)
	default:
		buf, err = membuf.Heap(capacity)
	}
	if err != nil {
		o.logger.Error("failed to initialise region",
			zap.Int("capacity", capacity),
			zap.Stringer("backing", o.backing),
			zap.Error(err))
		return fmt.Errorf("%w: %d bytes", ErrOutOfMemory, capacity)
	}

	r.buf = buf
	r.unmap = unmap
	r.logger = o.logger
	r.counters = counters{}
	r.generation = generations.Add(1)
	return nil
}

// Alloc reserves size bytes aligned to alignment and returns them.
// alignment must be a power of two. When the request does not fit, Alloc
// returns ErrCapacityExhausted and the offset is left untouched.
//
// The returned slice has cap == len and stays valid until the region is
// released or rewound below its start.
func (r *Region) Alloc(size, alignment int) ([]byte, error) {
	off, err := r.alloc(size, alignment)
	if err != nil {
		return nil, err
	}
	return r.buf[off : off+size : off+size], nil
}

func (r *Region) alloc(size, alignment int) (int, error) {
	r.panicIfUninitialized()
	if size < 0 {
		panic(fmt.Sprintf("region: negative size %d", size))
	}
	if !isValidAlignment(alignment) {
		panic(fmt.Sprintf("region: alignment %d is not a power of two", alignment))
	}

	off := alignUp(r.offset, alignment)
	if off > len(r.buf) || size > len(r.buf)-off {
		r.counters.failed++
		r.logger.Warn("failed to push to region",
			zap.Int("size", size),
			zap.Int("alignment", alignment),
			zap.Int("offset", r.offset),
			zap.Int("capacity", len(r.buf)))
		return 0, fmt.Errorf("%w: %d bytes at offset %d of %d", ErrCapacityExhausted, size, off, len(r.buf))
	}

	r.offset = off + size
	r.counters.allocs++
	if r.offset > r.counters.highWater {
		r.counters.highWater = r.offset
	}
	return off, nil
}

// Rewind discards every allocation made after target, zero-filling the
// reclaimed bytes. target must not exceed the current offset.
//
// Nothing is finalized: only plain data may live in memory that is rewound.
func (r *Region) Rewind(target int) {
	r.panicIfUninitialized()
	if target < 0 || target > r.offset {
		panic(fmt.Sprintf("region: rewind to %d past offset %d", target, r.offset))
	}
	if target == r.offset {
		return
	}
	clear(r.buf[target:r.offset])
	r.offset = target
	r.counters.rewinds++
}

// Release drops the backing buffer and returns the region to its zero state.
// Arrays obtained from the region must not be used afterwards.
func (r *Region) Release() error {
	r.panicIfUninitialized()

	var err error
	if r.unmap != nil {
		err = r.unmap()
	}
	r.buf = nil
	r.offset = 0
	r.unmap = nil
	r.counters = counters{}
	r.generation = 0
	return err
}

// Offset returns the current allocation offset. Pass it to Rewind later to
// discard everything allocated in between.
func (r *Region) Offset() int {
	return r.offset
}

// Initialized reports whether Init has succeeded and Release has not been called.
func (r *Region) Initialized() bool {
	return r.buf != nil
}

// top returns the address one past the last allocated byte.
func (r *Region) top() uintptr {
	return uintptrOf(r.buf) + uintptr(r.offset)
}

func (r *Region) panicIfUninitialized() {
	if r.buf == nil {
		panic("region: use of uninitialized or released region")
	}
}

func isValidAlignment(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// alignUp rounds off up to the next multiple of alignment.
func alignUp(off, alignment int) int {
	mask := alignment - 1
	return (off + mask) &^ mask
}

// noCopy may be embedded into structs which must not be copied after first use.
// See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
