// Package membuf obtains the zero-filled backing buffers that regions carve up.
package membuf

import (
	"errors"
	"fmt"
	"unsafe"
)

// HeapAlign is the base address alignment guaranteed for heap buffers.
const HeapAlign = 64

// ErrUnavailable is returned when the requested memory cannot be obtained.
var ErrUnavailable = errors.New("membuf: memory unavailable")

// Heap returns a zeroed buffer of exactly size bytes whose first byte is
// aligned to HeapAlign. The buffer is owned by the Go heap; dropping the last
// reference frees it.
func Heap(size int) (buf []byte, err error) {
	if size <= 0 {
		return nil, fmt.Errorf("membuf: invalid size %d", size)
	}
	if size > maxHeap-HeapAlign {
		return nil, fmt.Errorf("%w: %d bytes exceeds heap limit", ErrUnavailable, size)
	}
	defer func() {
		// makeslice panics instead of returning when the runtime refuses the length.
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %v", ErrUnavailable, r)
		}
	}()
	raw := make([]byte, size+HeapAlign)
	pad := int(-uintptr(unsafe.Pointer(unsafe.SliceData(raw))) & (HeapAlign - 1))
	return raw[pad : pad+size : pad+size], nil
}

const maxHeap = int(^uint(0) >> 1)
