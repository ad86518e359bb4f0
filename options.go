package region

import (
	"fmt"

	"go.uber.org/zap"
)

// Backing selects where a region's buffer comes from.
type Backing int

const (
	// Heap backs the region with a Go-allocated buffer aligned to MaxAlign.
	Heap Backing = iota
	// Mmap backs the region with an anonymous private mapping that is
	// unmapped on Release.
	Mmap
)

func (b Backing) String() string {
	switch b {
	case Heap:
		return "heap"
	case Mmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// ParseBacking returns the backing named s, as printed by String.
func ParseBacking(s string) (Backing, error) {
	switch s {
	case "heap":
		return Heap, nil
	case "mmap":
		return Mmap, nil
	}
	return Heap, fmt.Errorf("region: unknown backing %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backing) UnmarshalText(text []byte) error {
	parsed, err := ParseBacking(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Option configures a region at Init.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	backing Backing
}

func defaultOptions() options {
	return options{
		logger:  zap.NewNop(),
		backing: Heap,
	}
}

// WithLogger sets the logger used for allocation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBacking selects the backing buffer source.
func WithBacking(b Backing) Option {
	return func(o *options) {
		o.backing = b
	}
}
