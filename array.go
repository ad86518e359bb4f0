package region

import (
	"fmt"
	"iter"
	"math"
	"unsafe"
)

// Array is a typed range of elements inside a region. It borrows the
// region's memory: it stays valid until the region is released or rewound
// below the array's start.
//
// The zero Array has length 0.
type Array[T any] struct {
	elems []T
}

// View is a read-only alias of an Array's range. It conveys no ownership.
type View[T any] struct {
	elems []T
}

// PushArray allocates n zeroed elements of T aligned to T's alignment.
// T must be plain data (see checkPlain). On failure the region is unchanged
// and the returned Array is empty.
func PushArray[T any](r *Region, n int) (Array[T], error) {
	if n < 0 {
		panic(fmt.Sprintf("region: negative element count %d", n))
	}
	checkPlain[T]()

	var zero T
	size := int(unsafe.Sizeof(zero))
	if size > 0 && n > math.MaxInt/size {
		return Array[T]{}, fmt.Errorf("%w: %d elements of %d bytes", ErrCapacityExhausted, n, size)
	}

	off, err := r.alloc(size*n, int(unsafe.Alignof(zero)))
	if err != nil {
		return Array[T]{}, err
	}
	if n == 0 || size == 0 {
		return Array[T]{elems: make([]T, n)}, nil
	}
	return Array[T]{elems: unsafe.Slice((*T)(r.addr(off)), n)}, nil
}

// Push allocates a single zeroed T.
func Push[T any](r *Region) (*T, error) {
	a, err := PushArray[T](r, 1)
	if err != nil {
		return nil, err
	}
	return a.At(0), nil
}

// Len returns the number of elements.
func (a Array[T]) Len() int {
	return len(a.elems)
}

// At returns a pointer to element i. i must be in [0, Len()).
func (a Array[T]) At(i int) *T {
	if i < 0 || i >= len(a.elems) {
		panic(fmt.Sprintf("region: index %d out of range [0,%d)", i, len(a.elems)))
	}
	return &a.elems[i]
}

// Slice returns the sub-array [lo, hi).
func (a Array[T]) Slice(lo, hi int) Array[T] {
	if lo < 0 || hi < lo || hi > len(a.elems) {
		panic(fmt.Sprintf("region: slice [%d:%d] out of range [0,%d]", lo, hi, len(a.elems)))
	}
	return Array[T]{elems: a.elems[lo:hi:hi]}
}

// Elems exposes the elements as a Go slice for bulk copies and batched
// native calls. The slice has cap == len.
func (a Array[T]) Elems() []T {
	return a.elems[:len(a.elems):len(a.elems)]
}

// View returns a read-only view over the same elements.
func (a Array[T]) View() View[T] {
	return View[T]{elems: a.elems}
}

// AsView returns a read-only view over a's elements.
func AsView[T any](a Array[T]) View[T] {
	return a.View()
}

// Extend grows a by n zeroed elements in place. a must end exactly at the
// region's current offset, that is, be the most recent allocation.
func (a Array[T]) Extend(r *Region, n int) (Array[T], error) {
	r.panicIfUninitialized()
	if n < 0 {
		panic(fmt.Sprintf("region: negative element count %d", n))
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(a.elems) == 0 || size == 0 {
		return PushArray[T](r, len(a.elems)+n)
	}
	if uintptrOf(a.elems)+uintptr(len(a.elems)*size) != r.top() {
		panic("region: Extend of an array that is not the most recent allocation")
	}
	if size > 0 && n > math.MaxInt/size-len(a.elems) {
		return a, fmt.Errorf("%w: %d elements of %d bytes", ErrCapacityExhausted, n, size)
	}

	// The end of a T-sized run is already aligned for T, so no padding is inserted.
	if _, err := r.alloc(size*n, int(unsafe.Alignof(zero))); err != nil {
		return a, err
	}
	return Array[T]{elems: unsafe.Slice(unsafe.SliceData(a.elems), len(a.elems)+n)}, nil
}

// Len returns the number of elements.
func (v View[T]) Len() int {
	return len(v.elems)
}

// At returns a copy of element i. i must be in [0, Len()).
func (v View[T]) At(i int) T {
	if i < 0 || i >= len(v.elems) {
		panic(fmt.Sprintf("region: index %d out of range [0,%d)", i, len(v.elems)))
	}
	return v.elems[i]
}

// Slice returns the sub-view [lo, hi).
func (v View[T]) Slice(lo, hi int) View[T] {
	if lo < 0 || hi < lo || hi > len(v.elems) {
		panic(fmt.Sprintf("region: slice [%d:%d] out of range [0,%d]", lo, hi, len(v.elems)))
	}
	return View[T]{elems: v.elems[lo:hi:hi]}
}

// All iterates over index/value pairs.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, e := range v.elems {
			if !yield(i, e) {
				return
			}
		}
	}
}

// CopyTo copies the elements into dst and returns the number copied.
func (v View[T]) CopyTo(dst []T) int {
	return copy(dst, v.elems)
}

// addr returns a pointer to the byte at off.
func (r *Region) addr(off int) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(r.buf)), off)
}

func uintptrOf[T any](s []T) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}
