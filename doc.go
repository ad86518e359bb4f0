// Package region implements a fixed-capacity bump allocator (memory region)
// and typed arrays carved out of it.
//
// # Overview
//
// A Region owns one zero-filled buffer chosen at Init. Allocations advance an
// offset through that buffer and are never freed individually. Instead, a
// caller remembers an offset and later calls Rewind to discard everything
// allocated since, which zero-fills the reclaimed bytes so they are ready for
// reuse. This suits workloads that load or build data in phases:
//
//   - Scratch memory for decoding a file before the result is uploaded elsewhere
//   - Per-frame or per-request temporaries
//   - Long-lived tables sized once at startup
//
// # Basic Usage
//
//	r, err := region.New(1 << 20) // 1 MiB, heap backed
//	if err != nil {
//		return err
//	}
//	defer r.Release()
//
//	ids, err := region.PushArray[uint32](r, 64)
//	if err != nil {
//		return err // region.ErrCapacityExhausted
//	}
//	*ids.At(0) = 7
//
//	mark := r.Offset()
//	tmp, _ := region.PushArray[float32](r, 1024)
//	use(tmp.View())
//	r.Rewind(mark) // tmp is gone, ids survives
//
// # Errors
//
// Running out of capacity and failing to obtain memory from the system are
// ordinary errors (ErrCapacityExhausted, ErrOutOfMemory). A failed call
// changes nothing. Misuse is not an error but a bug and panics: initializing
// twice, using a released region, a non-power-of-two alignment, rewinding
// past the current offset, indexing out of range, or pushing a type that is
// not plain data.
//
// # Plain Data Only
//
// The buffer is opaque bytes to the garbage collector and Rewind runs no
// finalizers, so element types must not contain pointers, strings, slices,
// maps, channels, funcs or interfaces. PushArray enforces this.
//
// # Ownership
//
// A Region and the arrays pushed from it have a single logical owner. Region
// must not be copied after Init (go vet reports copies) and is not safe for
// concurrent use. Views are read-only aliases and confer no ownership.
//
// # Metrics
//
// The region keeps counters for monitoring memory usage:
//
//	m := r.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Printf("High water: %d of %d bytes\n", m.HighWater, m.Capacity)
package region
