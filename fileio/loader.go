// Package fileio reads files and directory listings into region memory.
//
// Every operation either succeeds completely or leaves the region exactly
// where it was: partially read contents and partial listings are rewound
// before the error is returned.
package fileio

import (
	"bytes"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pavanmanishd/region"
)

// NameMax is the size of a NameBuf, terminator included.
const NameMax = 256

// DefaultBatchSize is the number of directory entries read per call.
const DefaultBatchSize = 64

// NameBuf holds one zero-terminated directory entry name.
type NameBuf [NameMax]byte

// String returns the name up to its terminator.
func (n *NameBuf) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger that reports failed loads.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBatchSize sets how many directory entries DirNames reads at a time.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batch = n
		}
	}
}

// Loader reads from a file system into regions.
type Loader struct {
	fs     afero.Fs
	logger *zap.Logger
	batch  int
}

// NewLoader returns a Loader over fs. A nil fs means the OS file system.
func NewLoader(fs afero.Fs, opts ...Option) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Loader{
		fs:     fs,
		logger: zap.NewNop(),
		batch:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads the whole file at path into an array pushed from r. When
// terminate is set the array carries one extra zero byte after the
// contents. On any failure r is rewound and an empty array is returned.
func (l *Loader) LoadFile(r *region.Region, path string, terminate bool) (region.Array[byte], error) {
	mark := r.Offset()
	contents, err := l.loadFile(r, path, terminate)
	if err != nil {
		r.Rewind(mark)
		l.logger.Error("failed to load file", zap.String("path", path), zap.Error(err))
		return region.Array[byte]{}, err
	}
	return contents, nil
}

func (l *Loader) loadFile(r *region.Region, path string, terminate bool) (region.Array[byte], error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return region.Array[byte]{}, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return region.Array[byte]{}, errors.Wrapf(err, "stat %q", path)
	}
	if info.IsDir() {
		return region.Array[byte]{}, errors.Errorf("load %q: is a directory", path)
	}

	size := info.Size()
	n := int(size)
	if int64(n) != size || (terminate && n == int(^uint(0)>>1)) {
		return region.Array[byte]{}, errors.Wrapf(region.ErrCapacityExhausted, "load %q: %d bytes", path, size)
	}
	if terminate {
		n++
	}

	contents, err := region.PushArray[byte](r, n)
	if err != nil {
		return region.Array[byte]{}, errors.Wrapf(err, "reserve %d bytes for %q", n, path)
	}

	read, err := io.ReadFull(f, contents.Elems()[:size])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return region.Array[byte]{}, errors.Wrapf(ErrShortRead, "read %q: %d of %d bytes", path, read, size)
		}
		return region.Array[byte]{}, errors.Wrapf(err, "read %q", path)
	}
	return contents, nil
}

// LoadText reads the file at path with a terminating zero byte and returns
// a view of the contents without the terminator.
func (l *Loader) LoadText(r *region.Region, path string) (region.View[byte], error) {
	contents, err := l.LoadFile(r, path, true)
	if err != nil {
		return region.View[byte]{}, err
	}
	return contents.View().Slice(0, contents.Len()-1), nil
}

// DirNames lists the entries of dir into one contiguous array pushed from r.
// The directory is closed on every path. If r runs out of space, a name is
// NameMax bytes or longer, or enumeration fails, r is rewound and no partial
// listing is returned.
func (l *Loader) DirNames(r *region.Region, dir string) (region.Array[NameBuf], error) {
	mark := r.Offset()
	names, err := l.dirNames(r, dir)
	if err != nil {
		r.Rewind(mark)
		l.logger.Error("failed to list directory", zap.String("dir", dir), zap.Error(err))
		return region.Array[NameBuf]{}, err
	}
	return names, nil
}

func (l *Loader) dirNames(r *region.Region, dir string) (names region.Array[NameBuf], err error) {
	d, err := l.fs.Open(dir)
	if err != nil {
		return names, errors.Wrapf(err, "open %q", dir)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %q", dir)
		}
	}()

	for {
		batch, rerr := d.Readdirnames(l.batch)
		if len(batch) > 0 {
			start := names.Len()
			if names, err = names.Extend(r, len(batch)); err != nil {
				return names, errors.Wrapf(err, "list %q: %d entries", dir, start+len(batch))
			}
			for i, name := range batch {
				if len(name) >= NameMax {
					return names, errors.Wrapf(ErrNameTooLong, "list %q: %d bytes", dir, len(name))
				}
				copy(names.At(start + i)[:], name)
			}
		}
		if errors.Is(rerr, io.EOF) || (rerr == nil && len(batch) == 0) {
			return names, nil
		}
		if rerr != nil {
			return names, errors.Wrapf(rerr, "read %q", dir)
		}
	}
}

// HasExt reports whether name ends in the extension ext, dot included.
func HasExt(name, ext string) bool {
	got := filepath.Ext(name)
	return got != "" && got == ext
}
