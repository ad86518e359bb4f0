package fileio

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pavanmanishd/region"
)

func newTestRegion(t *testing.T, capacity int) *region.Region {
	t.Helper()
	r, err := region.New(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Release() })
	return r
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/shaders/quad.vert", []byte("void main() {}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/empty", nil, 0o644))

	l := NewLoader(fs)
	r := newTestRegion(t, 1024)

	contents, err := l.LoadFile(r, "/shaders/quad.vert", false)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", string(contents.Elems()))
	assert.Equal(t, 14, r.Offset())

	terminated, err := l.LoadFile(r, "/shaders/quad.vert", true)
	require.NoError(t, err)
	require.Equal(t, 15, terminated.Len())
	assert.Equal(t, byte(0), *terminated.At(14))

	empty, err := l.LoadFile(r, "/empty", false)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestLoadText(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/font.txt", []byte("glyphs"), 0o644))

	r := newTestRegion(t, 64)
	text, err := NewLoader(fs).LoadText(r, "/font.txt")
	require.NoError(t, err)
	assert.Equal(t, 6, text.Len())
	assert.Equal(t, 7, r.Offset(), "terminator is allocated but not part of the view")

	buf := make([]byte, text.Len())
	text.CopyTo(buf)
	assert.Equal(t, "glyphs", string(buf))
}

func TestLoadFileFailuresRewind(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/big.bin", make([]byte, 100), 0o644))
	require.NoError(t, fs.Mkdir("/dir", 0o755))

	core, logs := observer.New(zap.ErrorLevel)
	l := NewLoader(fs, WithLogger(zap.New(core)))
	r := newTestRegion(t, 64)
	_, err := region.PushArray[byte](r, 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		target error
	}{
		{"missing file", "/missing.txt", os.ErrNotExist},
		{"too large for region", "/big.bin", region.ErrCapacityExhausted},
		{"directory", "/dir", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, err := l.LoadFile(r, tt.path, true)
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
			}
			assert.Equal(t, 0, contents.Len())
			assert.Equal(t, 5, r.Offset())
		})
	}
	assert.Equal(t, len(tests), logs.FilterMessage("failed to load file").Len())
}

// shortFs reports every file as longer than it is.
type shortFs struct {
	afero.Fs
}

func (fs shortFs) Open(name string) (afero.File, error) {
	f, err := fs.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return shortFile{f}, nil
}

type shortFile struct {
	afero.File
}

func (f shortFile) Stat() (os.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return longInfo{info}, nil
}

type longInfo struct {
	os.FileInfo
}

func (i longInfo) Size() int64 { return i.FileInfo.Size() + 10 }

func TestLoadFileShortRead(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/truncated", []byte("abc"), 0o644))

	r := newTestRegion(t, 64)
	contents, err := NewLoader(shortFs{mem}).LoadFile(r, "/truncated", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortRead))
	assert.Equal(t, 0, contents.Len())
	assert.Equal(t, 0, r.Offset(), "a partially filled buffer is never kept")
}

func TestDirNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	var want []string
	for i := range 10 {
		name := fmt.Sprintf("tex_%02d.png", i)
		want = append(want, name)
		require.NoError(t, afero.WriteFile(fs, "/assets/"+name, []byte{1}, 0o644))
	}

	r := newTestRegion(t, 16*NameMax)
	_, err := region.PushArray[byte](r, 3)
	require.NoError(t, err)

	// a batch size that does not divide the entry count exercises Extend across batches
	names, err := NewLoader(fs, WithBatchSize(3)).DirNames(r, "/assets")
	require.NoError(t, err)
	require.Equal(t, 10, names.Len())
	assert.Equal(t, 3+10*NameMax, r.Offset(), "listing is one contiguous run")

	var got []string
	for _, n := range names.View().All() {
		got = append(got, n.String())
	}
	assert.ElementsMatch(t, want, got)
}

func TestDirNamesEmptyDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.Mkdir("/empty", 0o755))

	r := newTestRegion(t, 64)
	names, err := NewLoader(fs).DirNames(r, "/empty")
	require.NoError(t, err)
	assert.Equal(t, 0, names.Len())
	assert.Equal(t, 0, r.Offset())
}

func TestDirNamesFailuresRewind(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := range 5 {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/many/f%d", i), nil, 0o644))
	}
	require.NoError(t, afero.WriteFile(fs, "/long/"+strings.Repeat("n", NameMax), nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/file", nil, 0o644))

	core, logs := observer.New(zap.ErrorLevel)
	l := NewLoader(fs, WithLogger(zap.New(core)), WithBatchSize(2))

	tests := []struct {
		name   string
		dir    string
		target error
	}{
		{"region exhausted mid listing", "/many", region.ErrCapacityExhausted},
		{"name too long", "/long", ErrNameTooLong},
		{"missing dir", "/nowhere", os.ErrNotExist},
		{"not a dir", "/file", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegion(t, 3*NameMax+7)
			_, err := region.PushArray[byte](r, 7)
			require.NoError(t, err)

			names, err := l.DirNames(r, tt.dir)
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
			}
			assert.Equal(t, 0, names.Len())
			assert.Equal(t, 7, r.Offset())
		})
	}
	assert.Equal(t, len(tests), logs.FilterMessage("failed to list directory").Len())
}

func TestNameBufString(t *testing.T) {
	var n NameBuf
	copy(n[:], "atlas.bmp")
	assert.Equal(t, "atlas.bmp", n.String())

	var full NameBuf
	for i := range full {
		full[i] = 'x'
	}
	assert.Len(t, full.String(), NameMax)
}

func TestHasExt(t *testing.T) {
	tests := []struct {
		name, ext string
		want      bool
	}{
		{"quad.vert", ".vert", true},
		{"quad.vert", ".frag", false},
		{"archive.tar.gz", ".gz", true},
		{"archive.tar.gz", ".tar", false},
		{"Makefile", "", false},
		{"noext", ".noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasExt(tt.name, tt.ext), "HasExt(%q, %q)", tt.name, tt.ext)
	}
}

// closeCountingFs counts Close calls on every file it opens.
type closeCountingFs struct {
	afero.Fs
	opened, closed int
}

func (fs *closeCountingFs) Open(name string) (afero.File, error) {
	f, err := fs.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	fs.opened++
	return &countingFile{File: f, closed: &fs.closed}, nil
}

type countingFile struct {
	afero.File
	closed *int
}

func (f *countingFile) Close() error {
	*f.closed++
	return f.File.Close()
}

func TestDirNamesClosesDirectory(t *testing.T) {
	mem := afero.NewMemMapFs()
	for i := range 5 {
		require.NoError(t, afero.WriteFile(mem, fmt.Sprintf("/many/f%d", i), nil, 0o644))
	}
	require.NoError(t, afero.WriteFile(mem, "/long/"+strings.Repeat("n", NameMax), nil, 0o644))

	tests := []struct {
		name     string
		dir      string
		capacity int
		wantErr  bool
	}{
		{"success", "/many", 8 * NameMax, false},
		{"region exhausted", "/many", 3 * NameMax, true},
		{"name too long", "/long", 2 * NameMax, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &closeCountingFs{Fs: mem}
			r := newTestRegion(t, tt.capacity)

			_, err := NewLoader(fs, WithBatchSize(2)).DirNames(r, tt.dir)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, fs.opened)
			assert.Equal(t, 1, fs.closed, "directory closed exactly once")
		})
	}
}

func TestDirNamesLongestName(t *testing.T) {
	fs := afero.NewMemMapFs()
	longest := strings.Repeat("m", NameMax-1)
	require.NoError(t, afero.WriteFile(fs, "/fits/"+longest, nil, 0o644))

	r := newTestRegion(t, NameMax)
	names, err := NewLoader(fs).DirNames(r, "/fits")
	require.NoError(t, err)
	require.Equal(t, 1, names.Len())
	assert.Equal(t, longest, names.At(0).String())
	assert.Equal(t, byte(0), names.At(0)[NameMax-1], "terminator still fits")
}
