package region

// counters accumulates allocation statistics since Init.
type counters struct {
	allocs    uint64
	failed    uint64
	rewinds   uint64
	highWater int
}

// SizeInUse returns the number of bytes between the start of the region and
// the current offset. This includes padding inserted for alignment.
func (r *Region) SizeInUse() int {
	return r.offset
}

// Capacity returns the size of the backing buffer in bytes, or 0 when the
// region is not initialized.
func (r *Region) Capacity() int {
	return len(r.buf)
}

// Remaining returns the number of bytes left after the current offset.
func (r *Region) Remaining() int {
	return len(r.buf) - r.offset
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
// Returns 0.0 if the region has no capacity.
func (r *Region) Utilization() float64 {
	capacity := r.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(r.SizeInUse()) / float64(capacity)
}

// HighWater returns the largest offset reached since Init.
func (r *Region) HighWater() int {
	return r.counters.highWater
}

// Metrics returns a snapshot of region statistics.
func (r *Region) Metrics() Metrics {
	return Metrics{
		SizeInUse:    r.SizeInUse(),
		Capacity:     r.Capacity(),
		Remaining:    r.Remaining(),
		HighWater:    r.counters.highWater,
		Utilization:  r.Utilization(),
		Allocs:       r.counters.allocs,
		FailedAllocs: r.counters.failed,
		Rewinds:      r.counters.rewinds,
		Generation:   r.generation,
	}
}

// Metrics contains statistical information about a region.
type Metrics struct {
	SizeInUse    int     // Bytes up to the current offset
	Capacity     int     // Total capacity in bytes
	Remaining    int     // Bytes after the current offset
	HighWater    int     // Largest offset reached
	Utilization  float64 // Ratio of used to total capacity (0.0-1.0)
	Allocs       uint64  // Successful allocations
	FailedAllocs uint64  // Allocations refused for lack of capacity
	Rewinds      uint64  // Rewinds that reclaimed at least one byte

	// Generation changes on every Init, across all regions, and is zero for
	// a released region. Counters above restart whenever it changes.
	Generation uint64
}
