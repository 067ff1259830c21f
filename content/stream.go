package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
)

// Origin records who is responsible for releasing the backing handle.
type Origin int

const (
	// OwnedFile means the Stream opened the handle and closes it on Close.
	OwnedFile Origin = iota
	// BorrowedStream means the caller keeps ownership of the handle.
	BorrowedStream
)

func (o Origin) String() string {
	switch o {
	case OwnedFile:
		return "owned"
	case BorrowedStream:
		return "borrowed"
	default:
		return "unknown"
	}
}

// DefaultMaxDepth is the probe depth Find uses when no MaxDepth option is given.
const DefaultMaxDepth = 512

// Stream is an offset-addressable, lazily cached view over a file or an
// arbitrary reader.
//
// Seekable backings are read one byte at a time, on the first query of each
// offset. Forward-only readers are drained completely when the Stream is
// constructed. A Stream is not safe for concurrent use.
type Stream struct {
	origin Origin

	// seeker is nil for forward-only backings.
	seeker io.ReadSeeker
	closer io.Closer

	cache map[int64]byte

	// buffered holds every byte of a drained forward-only backing.
	buffered      []byte
	fullyBuffered bool

	err    error
	closed bool
	one    [1]byte
}

// Option configures Stream construction.
type Option func(*options)

type options struct {
	drainLimit int64
}

// WithDrainLimit caps how many bytes are captured from a forward-only
// reader. Bytes past the limit behave as if the input ended there.
// A limit of zero or less means unlimited.
func WithDrainLimit(n int64) Option {
	return func(o *options) {
		o.drainLimit = n
	}
}

// New builds a Stream from a path (string), an in-memory buffer ([]byte)
// or an open reader (io.Reader). Any other value fails with
// ErrUnsupportedSource.
func New(source any, opts ...Option) (*Stream, error) {
	switch src := source.(type) {
	case string:
		return Open(src)
	case []byte:
		return FromReader(bytes.NewReader(src), opts...)
	case io.Reader:
		return FromReader(src, opts...)
	default:
		return nil, newSourceError(source, nil)
	}
}

// Open opens the regular file at path. The returned Stream owns the file
// and closes it on Close.
func Open(path string) (*Stream, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, newSourceError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newSourceError(path, fmt.Errorf("%s is not a regular file", info.Mode().Type()))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newSourceError(path, err)
	}

	return &Stream{
		origin: OwnedFile,
		seeker: f,
		closer: f,
		cache:  make(map[int64]byte),
	}, nil
}

// FromReader wraps an already open reader. The caller keeps ownership: Close
// never closes r.
//
// If r cannot seek, every remaining byte is read before FromReader returns.
func FromReader(r io.Reader, opts ...Option) (*Stream, error) {
	if isNil(r) {
		return nil, newSourceError(r, errors.New("nil reader"))
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Stream{
		origin: BorrowedStream,
		cache:  make(map[int64]byte),
	}

	if rs, ok := r.(io.ReadSeeker); ok && seekable(rs) {
		s.seeker = rs
		return s, nil
	}

	if o.drainLimit > 0 {
		r = io.LimitReader(r, o.drainLimit)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, newSourceError(r, fmt.Errorf("drain: %w", err))
	}
	s.buffered = buf
	s.fullyBuffered = true

	return s, nil
}

// seekable reports whether rs actually supports positioning. Pipes and
// sockets wrapped in *os.File implement io.Seeker but fail at runtime.
func seekable(rs io.Seeker) bool {
	_, err := rs.Seek(0, io.SeekCurrent)
	return err == nil
}

// Origin reports whether the Stream owns its backing handle.
func (s *Stream) Origin() Origin { return s.origin }

// FullyBuffered reports whether the backing was drained at construction.
func (s *Stream) FullyBuffered() bool { return s.fullyBuffered }

// Err returns the last read error other than end of input seen by a probe.
func (s *Stream) Err() error { return s.err }

// Size returns the total length of the source in bytes.
func (s *Stream) Size() (int64, error) {
	if s.fullyBuffered {
		return int64(len(s.buffered)), nil
	}

	switch b := s.seeker.(type) {
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := b.Stat()
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	case interface{ Size() int64 }:
		return b.Size(), nil
	}

	return s.seeker.Seek(0, io.SeekEnd)
}

// resolve turns an end-relative offset into an absolute one. ok is false
// when the size is unknown or the result would precede the first byte.
func (s *Stream) resolve(offset int64) (int64, bool) {
	if offset >= 0 {
		return offset, true
	}
	size, err := s.Size()
	if err != nil {
		return 0, false
	}
	offset += size
	return offset, offset >= 0
}

// probe makes sure the byte at offset is available, reading it through
// the cache. End of input is never cached.
func (s *Stream) probe(offset int64) (byte, bool) {
	if offset < 0 {
		return 0, false
	}

	if s.fullyBuffered {
		if offset >= int64(len(s.buffered)) {
			return 0, false
		}
		return s.buffered[offset], true
	}

	if b, ok := s.cache[offset]; ok {
		return b, true
	}

	if _, err := s.seeker.Seek(offset, io.SeekStart); err != nil {
		s.err = err
		return 0, false
	}
	if _, err := io.ReadFull(s.seeker, s.one[:]); err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			s.err = err
		}
		return 0, false
	}

	s.cache[offset] = s.one[0]
	return s.one[0], true
}

// CheckBytes reports whether p occurs exactly at offset. A negative offset
// counts from the end of the source. Offsets outside the source yield false.
func (s *Stream) CheckBytes(offset int64, p Pattern) bool {
	offset, ok := s.resolve(offset)
	if !ok {
		return false
	}
	return s.matchAt(offset, p)
}

func (s *Stream) matchAt(offset int64, p Pattern) bool {
	for i, want := range p {
		got, ok := s.probe(offset + int64(i))
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Find reports whether p occurs near offset. Candidates start one byte past
// offset (or one byte before it with Reverse) and go at most MaxDepth bytes
// away; offset itself is never a candidate.
//
// A candidate running past the end of the source ends the whole search.
func (s *Stream) Find(offset int64, p Pattern, opts ...FindOption) bool {
	offset, ok := s.resolve(offset)
	if !ok {
		return false
	}

	fo := findOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&fo)
	}

	step := int64(1)
	if fo.reverse {
		step = -1
	}

	var i int64
	for {
		i += step
		if abs(i) > int64(fo.maxDepth) {
			return false
		}

		match := true
		for j, want := range p {
			got, ok := s.probe(offset + i + int64(j))
			if !ok {
				return false
			}
			if got != want {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
}

// Reader returns a reader over the whole source, starting at offset 0.
// Reads reposition a seekable backing, so they must not be interleaved with
// reads the caller makes on a borrowed reader.
func (s *Stream) Reader() io.Reader {
	if s.fullyBuffered {
		return bytes.NewReader(s.buffered)
	}
	return &offsetReader{rs: s.seeker}
}

// offsetReader reads sequentially from a seeker whose position may be
// moved by probes between reads.
type offsetReader struct {
	rs  io.ReadSeeker
	off int64
}

func (r *offsetReader) Read(p []byte) (int, error) {
	if _, err := r.rs.Seek(r.off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := r.rs.Read(p)
	r.off += int64(n)
	return n, err
}

// Close releases the backing handle if the Stream owns it. Borrowed
// readers are left untouched. Close is idempotent.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.origin != OwnedFile || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// isNil reports whether r is nil or an interface holding a nil pointer.
func isNil(r io.Reader) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
