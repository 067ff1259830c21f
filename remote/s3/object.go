// Package s3 exposes S3 objects as seekable readers backed by ranged
// GetObject requests, so content detection downloads only the blocks its
// signatures touch.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gobeaver/filetype"
)

// DefaultBlockSize is the size of one ranged read.
const DefaultBlockSize = 64 << 10

// maxBlocks bounds the blocks an Object keeps in memory.
const maxBlocks = 32

// Client is the subset of *s3.Client used here.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

// Option configures an Object
type Option func(*Object)

// WithBlockSize sets the size of each ranged read
func WithBlockSize(n int64) Option {
	return func(o *Object) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// Object is an io.ReadSeeker over one S3 object. It is not safe for
// concurrent use.
type Object struct {
	ctx    context.Context
	client Client
	bucket string
	key    string

	size      int64
	pos       int64
	blockSize int64
	blocks    map[int64][]byte
}

// NewObject looks up the size of bucket/key and returns a reader over it.
// ctx bounds every request the Object makes.
func NewObject(ctx context.Context, client Client, bucket, key string, opts ...Option) (*Object, error) {
	resp, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error("head", bucket, key, err)
	}

	o := &Object{
		ctx:       ctx,
		client:    client,
		bucket:    bucket,
		key:       key,
		size:      aws.ToInt64(resp.ContentLength),
		blockSize: DefaultBlockSize,
		blocks:    make(map[int64][]byte),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Size returns the object length in bytes.
func (o *Object) Size() int64 { return o.size }

// Read implements io.Reader.
func (o *Object) Read(p []byte) (int, error) {
	if o.pos >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	index := o.pos / o.blockSize
	block, err := o.block(index)
	if err != nil {
		return 0, err
	}

	n := copy(p, block[o.pos-index*o.blockSize:])
	o.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker.
func (o *Object) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.pos + offset
	case io.SeekEnd:
		abs = o.size + offset
	default:
		return 0, fmt.Errorf("s3: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("s3: negative position %d", abs)
	}
	o.pos = abs
	return abs, nil
}

// Close drops the cached blocks.
func (o *Object) Close() error {
	o.blocks = nil
	return nil
}

func (o *Object) block(index int64) ([]byte, error) {
	if b, ok := o.blocks[index]; ok {
		return b, nil
	}

	start := index * o.blockSize
	end := min(start+o.blockSize, o.size) - 1

	resp, err := o.client.GetObject(o.ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, mapS3Error("read", o.bucket, o.key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapS3Error("read", o.bucket, o.key, err)
	}
	if int64(len(data)) != end-start+1 {
		return nil, mapS3Error("read", o.bucket, o.key, io.ErrUnexpectedEOF)
	}

	if o.blocks == nil || len(o.blocks) >= maxBlocks {
		o.blocks = make(map[int64][]byte)
	}
	o.blocks[index] = data
	return data, nil
}

// Bucket opens objects of one bucket for filetype.Detector.DetectSource.
type Bucket struct {
	Client Client
	Name   string
	Prefix string
}

// Read returns a seekable reader over the object at key.
func (b Bucket) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	if b.Prefix != "" {
		key = strings.TrimSuffix(b.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
	}
	o, err := NewObject(ctx, b.Client, b.Name, key)
	if err != nil {
		return nil, err
	}
	return o, nil
}

var _ filetype.FileReader = Bucket{}

// ParseURL splits an s3://bucket/key URL.
func ParseURL(url string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(url, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func mapS3Error(op, bucket, key string, err error) error {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound

	if errors.As(err, &nsk) || errors.As(err, &notFound) {
		err = fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return &filetype.PathError{Op: op, Path: "s3://" + bucket + "/" + key, Err: err}
}
