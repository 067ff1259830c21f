// Package scan detects file types across directory trees and zip archives
// with a pool of workers.
package scan

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/gobeaver/filetype"
	"github.com/gobeaver/filetype/content"
)

// DefaultEntryLimit is the most bytes read from one zip entry.
const DefaultEntryLimit = 8 << 20

// Result is the outcome for one file. Err is set when the file could not be
// read or identified; the scan itself carries on.
type Result struct {
	Path     string
	Size     int64
	Info     *filetype.Info
	Checksum string
	Err      error
}

// Option configures a scan
type Option func(*options)

type options struct {
	detector   *filetype.Detector
	include    []string
	exclude    []string
	workers    int
	recursive  bool
	checksum   filetype.ChecksumAlgorithm
	entryLimit int64
	logger     *slog.Logger
}

// WithDetector sets the Detector used for every file
func WithDetector(d *filetype.Detector) Option {
	return func(o *options) {
		o.detector = d
	}
}

// WithInclude only scans paths matching one of patterns
func WithInclude(patterns ...string) Option {
	return func(o *options) {
		o.include = append(o.include, patterns...)
	}
}

// WithExclude skips paths matching any of patterns
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithWorkers sets the number of concurrent detections
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRecursive descends into subdirectories. An include pattern
// containing '**' turns this on as well.
func WithRecursive(recursive bool) Option {
	return func(o *options) {
		o.recursive = recursive
	}
}

// WithChecksum computes a checksum of every file
func WithChecksum(algorithm filetype.ChecksumAlgorithm) Option {
	return func(o *options) {
		o.checksum = algorithm
	}
}

// WithEntryLimit caps the bytes read from each zip entry
func WithEntryLimit(n int64) Option {
	return func(o *options) {
		o.entryLimit = n
	}
}

// WithLogger sets the logger for per-file debug output
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) (*options, *Filter, error) {
	o := &options{
		workers:    runtime.NumCPU(),
		entryLimit: DefaultEntryLimit,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.detector == nil {
		o.detector = filetype.New()
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.checksum != "" {
		algorithm, err := filetype.ParseChecksumAlgorithm(string(o.checksum))
		if err != nil {
			return nil, nil, err
		}
		o.checksum = algorithm
	}

	filter, err := NewFilter(o.include, o.exclude)
	if err != nil {
		return nil, nil, err
	}
	o.recursive = o.recursive || filter.Recursive()
	return o, filter, nil
}

// fsReader opens files of an fs.FS for Detector.DetectSource.
type fsReader struct {
	fsys fs.FS
}

func (r fsReader) Read(_ context.Context, name string) (io.ReadCloser, error) {
	return r.fsys.Open(name)
}

// Dir detects every regular file of fsys that passes the include and
// exclude patterns. Results are sorted by path.
func Dir(ctx context.Context, fsys fs.FS, opts ...Option) ([]Result, error) {
	o, filter, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	var files []Result
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			files = append(files, Result{Path: p, Err: err})
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && !o.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Match(p) {
			return nil
		}

		r := Result{Path: p}
		if fi, err := d.Info(); err == nil {
			r.Size = fi.Size()
		}
		files = append(files, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	src := fsReader{fsys: fsys}
	results := run(ctx, o.workers, files, func(ctx context.Context, r Result) Result {
		if r.Err != nil {
			return r
		}
		r.Info, r.Err = o.detector.DetectSource(ctx, src, r.Path)
		if r.Err == nil && o.checksum != "" {
			r.Checksum, r.Err = checksumOf(func() (io.ReadCloser, error) { return fsys.Open(r.Path) }, o.checksum)
		}
		o.logger.Debug("scanned file", "path", r.Path, "error", r.Err)
		return r
	})
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Zip detects every entry of the zip archive in r. Entries are decompressed
// through readers that cannot seek, so each is read up to the entry limit.
func Zip(ctx context.Context, r io.ReaderAt, size int64, opts ...Option) ([]Result, error) {
	o, filter, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*zip.File, len(zr.File))
	var files []Result
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !filter.Match(f.Name) {
			continue
		}
		entries[f.Name] = f
		files = append(files, Result{Path: f.Name, Size: int64(f.UncompressedSize64)})
	}

	results := run(ctx, o.workers, files, func(ctx context.Context, r Result) Result {
		f := entries[r.Path]
		r.Info, r.Err = detectEntry(o, f)
		if r.Err == nil && o.checksum != "" {
			r.Checksum, r.Err = checksumOf(f.Open, o.checksum)
		}
		o.logger.Debug("scanned zip entry", "path", r.Path, "error", r.Err)
		return r
	})
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func detectEntry(o *options, f *zip.File) (*filetype.Info, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	s, err := content.FromReader(rc, content.WithDrainLimit(o.entryLimit))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	info, err := o.detector.DetectStream(s)
	if filetype.IsNotDetected(err) {
		return o.detector.DetectByFileName(f.Name)
	}
	return info, err
}

func checksumOf(open func() (io.ReadCloser, error), algorithm filetype.ChecksumAlgorithm) (string, error) {
	rc, err := open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return filetype.CalculateChecksum(rc, algorithm)
}

// run processes jobs with n workers and returns the results sorted by path.
// Jobs not started before ctx is done are returned with ctx.Err().
func run(ctx context.Context, n int, jobs []Result, fn func(context.Context, Result) Result) []Result {
	results := make([]Result, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < n && w < len(jobs); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if err := ctx.Err(); err != nil {
					results[i] = jobs[i]
					results[i].Err = err
					continue
				}
				results[i] = fn(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results
}
