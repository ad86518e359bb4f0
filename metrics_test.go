package region

import (
	"testing"
)

func TestRegionMetrics(t *testing.T) {
	r := newTestRegion(t, 1024)

	// Test initial state
	if r.SizeInUse() != 0 {
		t.Errorf("Initial SizeInUse = %d, want 0", r.SizeInUse())
	}
	if r.Capacity() != 1024 {
		t.Errorf("Capacity = %d, want 1024", r.Capacity())
	}
	if r.Remaining() != 1024 {
		t.Errorf("Initial Remaining = %d, want 1024", r.Remaining())
	}
	if r.Utilization() != 0 {
		t.Errorf("Initial Utilization = %f, want 0", r.Utilization())
	}

	// Allocate some data
	_, _ = r.Alloc(100, 1)
	_, _ = r.Alloc(200, 8)

	if r.SizeInUse() != 304 {
		t.Errorf("SizeInUse = %d, want 304", r.SizeInUse())
	}
	if r.Remaining() != 720 {
		t.Errorf("Remaining = %d, want 720", r.Remaining())
	}

	utilization := r.Utilization()
	if utilization <= 0 || utilization > 1 {
		t.Errorf("Utilization = %f, want 0 < x <= 1", utilization)
	}

	// Refused allocation is counted
	_, _ = r.Alloc(2000, 1)

	// Test metrics snapshot
	metrics := r.Metrics()
	if metrics.SizeInUse != r.SizeInUse() {
		t.Errorf("Metrics.SizeInUse = %d, want %d", metrics.SizeInUse, r.SizeInUse())
	}
	if metrics.Capacity != r.Capacity() {
		t.Errorf("Metrics.Capacity = %d, want %d", metrics.Capacity, r.Capacity())
	}
	if metrics.Utilization != r.Utilization() {
		t.Errorf("Metrics.Utilization = %f, want %f", metrics.Utilization, r.Utilization())
	}
	if metrics.Allocs != 2 {
		t.Errorf("Metrics.Allocs = %d, want 2", metrics.Allocs)
	}
	if metrics.FailedAllocs != 1 {
		t.Errorf("Metrics.FailedAllocs = %d, want 1", metrics.FailedAllocs)
	}
}

func TestRegionMetricsAfterRewind(t *testing.T) {
	r := newTestRegion(t, 1024)

	// Allocate and verify
	_, _ = r.Alloc(500, 1)
	if r.Utilization() == 0 {
		t.Error("Expected non-zero Utilization before rewind")
	}

	// Rewind and verify
	r.Rewind(0)
	if r.SizeInUse() != 0 {
		t.Errorf("SizeInUse after Rewind = %d, want 0", r.SizeInUse())
	}
	if r.Utilization() != 0 {
		t.Errorf("Utilization after Rewind = %f, want 0", r.Utilization())
	}
	// High water survives the rewind
	if r.HighWater() != 500 {
		t.Errorf("HighWater after Rewind = %d, want 500", r.HighWater())
	}
	if r.Metrics().Rewinds != 1 {
		t.Errorf("Rewinds = %d, want 1", r.Metrics().Rewinds)
	}

	_, _ = r.Alloc(100, 1)
	if r.HighWater() != 500 {
		t.Errorf("HighWater = %d, want 500", r.HighWater())
	}
}

func TestRegionMetricsAfterRelease(t *testing.T) {
	r, err := New(1024)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = r.Alloc(100, 1)

	if err := r.Release(); err != nil {
		t.Fatal(err)
	}

	if r.SizeInUse() != 0 {
		t.Errorf("SizeInUse after Release = %d, want 0", r.SizeInUse())
	}
	if r.Capacity() != 0 {
		t.Errorf("Capacity after Release = %d, want 0", r.Capacity())
	}
	if r.Utilization() != 0 {
		t.Errorf("Utilization after Release = %f, want 0", r.Utilization())
	}
	if m := r.Metrics(); m.Allocs != 0 || m.HighWater != 0 {
		t.Errorf("Metrics after Release = %+v, want zero counters", m)
	}
}

func TestUtilizationFull(t *testing.T) {
	r := newTestRegion(t, 100)
	_, _ = r.Alloc(r.Capacity(), 1) // Allocate all available space
	if util := r.Utilization(); util != 1 {
		t.Errorf("Full region Utilization = %f, want 1.0", util)
	}
	if r.Remaining() != 0 {
		t.Errorf("Full region Remaining = %d, want 0", r.Remaining())
	}
}

func BenchmarkMetrics(b *testing.B) {
	r := newTestRegion(b, 1024*1024)
	// Pre-allocate some data
	for i := 0; i < 100; i++ {
		_, _ = r.Alloc(1000, 8)
	}

	b.Run("SizeInUse", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r.SizeInUse()
		}
	})

	b.Run("Utilization", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r.Utilization()
		}
	})

	b.Run("Metrics", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r.Metrics()
		}
	})
}

func TestMetricsGeneration(t *testing.T) {
	var r Region
	if err := r.Init(64); err != nil {
		t.Fatal(err)
	}
	first := r.Metrics().Generation
	if first == 0 {
		t.Fatal("Generation = 0 after Init")
	}
	if err := r.Release(); err != nil {
		t.Fatal(err)
	}
	if g := r.Metrics().Generation; g != 0 {
		t.Errorf("Generation after Release = %d, want 0", g)
	}

	if err := r.Init(64); err != nil {
		t.Fatal(err)
	}
	defer r.Release()
	if second := r.Metrics().Generation; second == first || second == 0 {
		t.Errorf("Generation after re-Init = %d, first was %d", second, first)
	}

	other := newTestRegion(t, 64)
	if other.Metrics().Generation == r.Metrics().Generation {
		t.Error("distinct regions share a generation")
	}
}
