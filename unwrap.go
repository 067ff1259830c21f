package filetype

import (
	"compress/bzip2"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/gobeaver/filetype/content"
	"github.com/gobeaver/filetype/extension"
)

// maxUnwrapDepth bounds nested compression (for example .tar.gz.gz).
const maxUnwrapDepth = 3

var errNotCompressed = errors.New("not a compressed format")

// unwrap decompresses the payload of s and detects it. It returns nil when
// ext is not a compression format or the payload cannot be identified.
func (d *Detector) unwrap(s *content.Stream, ext extension.Extension, depth int) *Info {
	r, closeFn, err := decompress(ext, s.Reader())
	if err != nil {
		if !errors.Is(err, errNotCompressed) {
			d.logger.Debug("cannot decompress payload", "extension", ext, "error", err)
		}
		return nil
	}
	defer closeFn()

	payload, err := content.FromReader(r, content.WithDrainLimit(d.unwrapLimit))
	if err != nil {
		d.logger.Debug("cannot read decompressed payload", "extension", ext, "error", err)
		return nil
	}
	defer payload.Close()

	inner, err := d.detect(payload, depth+1)
	if err != nil {
		return nil
	}
	return inner
}

// decompress wraps r in the decoder for ext. The returned readers never
// seek, so the payload is always captured by draining.
func decompress(ext extension.Extension, r io.Reader) (io.Reader, func(), error) {
	switch ext {
	case extension.GZIP:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case extension.ZSTD:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case extension.LZ4:
		return lz4.NewReader(r), func() {}, nil
	case extension.BZIP2:
		return bzip2.NewReader(r), func() {}, nil
	default:
		return nil, nil, errNotCompressed
	}
}
