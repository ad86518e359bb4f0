//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package membuf

// Map falls back to a heap buffer where anonymous mappings are unavailable.
func Map(size int) ([]byte, func() error, error) {
	data, err := Heap(size)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
