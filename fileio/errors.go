package fileio

import "github.com/pkg/errors"

var (
	// ErrShortRead indicates a file yielded fewer bytes than its reported size.
	ErrShortRead = errors.New("fileio: short read")

	// ErrNameTooLong indicates a directory entry does not fit in a NameBuf.
	ErrNameTooLong = errors.New("fileio: name too long")
)
