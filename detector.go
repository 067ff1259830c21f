package filetype

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gobeaver/filetype/content"
	"github.com/gobeaver/filetype/extension"
	"github.com/gobeaver/filetype/signature"
)

// FileReader is a storage backend that can open a file for reading by path.
// Storage drivers, object stores and archive readers all fit.
type FileReader interface {
	Read(ctx context.Context, path string) (io.ReadCloser, error)
}

// Detector identifies file formats by name or by content.
// A Detector is safe for concurrent use; every call builds its own
// content.Stream.
type Detector struct {
	db     *signature.Database
	logger *slog.Logger

	cache    Cache
	cacheTTL time.Duration

	unwrapLimit int64
}

// New creates a Detector using the built-in signature database unless an
// option says otherwise.
func New(opts ...Option) *Detector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Database == nil {
		o.Database = signature.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return &Detector{
		db:          o.Database,
		logger:      o.Logger,
		cache:       o.Cache,
		cacheTTL:    o.CacheTTL,
		unwrapLimit: o.UnwrapLimit,
	}
}

// DetectByFileName returns the format implied by the extension of name.
// The file itself is never opened.
func (d *Detector) DetectByFileName(name string) (*Info, error) {
	info, err := d.byName(name)
	if err != nil {
		return nil, &PathError{Op: "detect", Path: name, Err: err}
	}
	return info, nil
}

func (d *Detector) byName(name string) (*Info, error) {
	ext, err := extension.FromFileName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDetected, err)
	}
	d.logger.Debug("detected file type", "source", name, "extension", ext, "from_file_name", true)
	return &Info{ext: ext, fromFileName: true}, nil
}

// DetectByContent identifies the format of the bytes r yields. The caller
// keeps ownership of r. Readers that cannot seek are read to the end.
func (d *Detector) DetectByContent(r io.Reader) (*Info, error) {
	s, err := content.FromReader(r)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return d.DetectStream(s)
}

// DetectFromContent identifies the format of data.
func (d *Detector) DetectFromContent(data []byte) (*Info, error) {
	return d.DetectByContent(bytes.NewReader(data))
}

// DetectStream runs the signature database against s.
func (d *Detector) DetectStream(s *content.Stream) (*Info, error) {
	return d.detect(s, 0)
}

func (d *Detector) detect(s *content.Stream, depth int) (*Info, error) {
	ext, ok := d.db.Detect(s)
	if err := s.Err(); err != nil {
		d.logger.Debug("read error during detection", "error", err)
	}
	if !ok {
		return nil, ErrNotDetected
	}
	d.logger.Debug("detected file type", "extension", ext, "depth", depth)

	info := &Info{ext: ext}
	if d.unwrapLimit > 0 && depth < maxUnwrapDepth {
		if inner := d.unwrap(s, ext, depth); inner != nil {
			info = info.withInner(inner)
		}
	}
	return info, nil
}

// DetectFromFilePath identifies the file at path from its content, falling
// back to its extension when no signature matches.
func (d *Detector) DetectFromFilePath(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, &PathError{Op: "detect", Path: path, Err: err}
	}

	var key string
	if d.cache != nil {
		key = CacheKey(path, fi.Size(), fi.ModTime())
		if info, ok := d.cache.Get(key); ok {
			d.logger.Debug("detection cache hit", "path", path)
			return info, nil
		}
	}

	s, err := content.Open(path)
	if err != nil {
		return nil, &PathError{Op: "detect", Path: path, Err: err}
	}
	defer s.Close()

	info, err := d.DetectStream(s)
	if errors.Is(err, ErrNotDetected) {
		info, err = d.byName(path)
	}
	if err != nil {
		return nil, &PathError{Op: "detect", Path: path, Err: err}
	}

	if d.cache != nil {
		d.cache.Set(key, info, d.cacheTTL)
	}
	return info, nil
}

// DetectSource opens path on src and identifies it from its content,
// falling back to the extension of path.
func (d *Detector) DetectSource(ctx context.Context, src FileReader, path string) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Read(ctx, path)
	if err != nil {
		return nil, &PathError{Op: "detect", Path: path, Err: err}
	}
	defer rc.Close()

	info, err := d.DetectByContent(rc)
	if errors.Is(err, ErrNotDetected) {
		info, err = d.byName(path)
	}
	if err != nil {
		return nil, &PathError{Op: "detect", Path: path, Err: err}
	}
	return info, nil
}

var defaultDetector = New()

// DetectByFileName identifies a format from a file name using the default
// Detector.
func DetectByFileName(name string) (*Info, error) {
	return defaultDetector.DetectByFileName(name)
}

// DetectByContent identifies the content of r using the default Detector.
func DetectByContent(r io.Reader) (*Info, error) {
	return defaultDetector.DetectByContent(r)
}

// DetectFromContent identifies data using the default Detector.
func DetectFromContent(data []byte) (*Info, error) {
	return defaultDetector.DetectFromContent(data)
}

// DetectFromFilePath identifies the file at path using the default Detector.
func DetectFromFilePath(path string) (*Info, error) {
	return defaultDetector.DetectFromFilePath(path)
}
