//go:build linux || darwin || freebsd || netbsd || openbsd

package membuf

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Map returns a private anonymous mapping of size bytes together with the
// function that unmaps it. The kernel hands the pages out zero-filled and
// page aligned.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("membuf: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrUnavailable, size, err)
	}
	unmap := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// already unmapped
			return nil
		}
		data = nil
		return err
	}
	return data[:size:size], unmap, nil
}
