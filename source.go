package horntail

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/spf13/afero"
	"go4.org/readerutil"
)

// fs is the package-level filesystem indirection every Source opens
// through, mirroring the teacher's own package-level afero.NewOsFs()
// variable so tests can swap in an in-memory filesystem without touching
// any other code path.
var fs afero.Fs = afero.NewOsFs()

// Source is the byte-addressable region backing a Reader: a memory-mapped
// archive file, created on Open and released on Close (§3 "Ownership and
// lifecycle").
type Source struct {
	file afero.File
	mmap mmap.MMap
	buf  []byte
}

var _ readerutil.SizeReaderAt = (*Source)(nil)

// Open maps path into memory. Against the real OS filesystem this is a
// genuine mmap(2); against any other afero.Fs (such as afero's in-memory
// filesystem) there is no file descriptor to map, so the
// whole file is read into a plain buffer instead — the two behave
// identically from a Source caller's perspective.
func Open(path string) (*Source, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, wrapErr(KindIO, "open", err)
	}
	src := &Source{file: f}
	if osFile, ok := f.(*os.File); ok {
		m, err := mmap.Map(osFile, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, wrapErr(KindIO, "mmap", err)
		}
		src.mmap = m
		return src, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, wrapErr(KindIO, "read", err)
	}
	src.buf = data
	return src, nil
}

// OpenReaderAt wraps an already-open reader (e.g. a caller-owned
// *os.File or bytes.Reader) as a Source without going through the
// filesystem indirection at all; useful for in-process fixtures.
func OpenReaderAt(r io.ReaderAt, size int64) *Source {
	buf := make([]byte, size)
	_, _ = r.ReadAt(buf, 0)
	return &Source{buf: buf}
}

func (s *Source) bytes() []byte {
	if s.mmap != nil {
		return s.mmap
	}
	return s.buf
}

// Size implements go4.org/readerutil.SizeReaderAt.
func (s *Source) Size() int64 { return int64(len(s.bytes())) }

// ReadAt implements io.ReaderAt.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	data := s.bytes()
	if off < 0 || off > int64(len(data)) {
		return 0, wrapErr(KindIO, "read at out of range", io.EOF)
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the entire mapped region for cursor-based reading. Callers
// must not mutate it.
func (s *Source) Bytes() []byte { return s.bytes() }

// Close unmaps the file (or simply releases the buffer, for non-mmapped
// sources) and closes the underlying file handle.
func (s *Source) Close() error {
	var err error
	if s.mmap != nil {
		err = s.mmap.Unmap()
	}
	if s.file != nil {
		if cerr := s.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return wrapErr(KindIO, "close", err)
	}
	return nil
}
