// filetype prints the format of files, directory trees, zip archive entries
// and S3 objects, identified from their content or, failing that, their
// names.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	"github.com/gobeaver/filetype"
	"github.com/gobeaver/filetype/diskcache"
	s3remote "github.com/gobeaver/filetype/remote/s3"
	"github.com/gobeaver/filetype/scan"
	"github.com/gobeaver/filetype/watch"
)

// exitError carries a process exit code without a message.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return exitCode(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr), os.Stderr)
}

// exitCode turns the result of run into a process exit status. Errors that
// carry no status of their own are printed and exit with 2.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 2
}

type flags struct {
	nameOnly   bool
	recursive  bool
	include    []string
	exclude    []string
	zip        bool
	unwrap     bool
	checksum   string
	format     string
	watch      bool
	cacheDir   string
	signatures string
	logLevel   string
	workers    int
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := filetype.GetConfig()
	if err != nil {
		return err
	}

	var f flags
	flagSet := pflag.NewFlagSet("filetype", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&f.nameOnly, "name-only", false, "identify by file name only, never read content")
	flagSet.BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories")
	flagSet.StringSliceVar(&f.include, "include", nil, "only report paths matching these glob patterns")
	flagSet.StringSliceVar(&f.exclude, "exclude", nil, "skip paths matching these glob patterns")
	flagSet.BoolVar(&f.zip, "zip", false, "treat arguments as zip archives and report their entries")
	flagSet.BoolVar(&f.unwrap, "unwrap", cfg.Unwrap, "also identify the payload of gzip, zstd, lz4 and bzip2 files")
	flagSet.StringVar(&f.checksum, "checksum", cfg.Checksum, "checksum algorithm (md5, sha1, sha256, sha512, crc32, xxhash, blake3)")
	flagSet.StringVar(&f.format, "format", "text", "output format: text, json, yaml or cbor")
	flagSet.BoolVar(&f.watch, "watch", false, "keep watching directory arguments for new files")
	flagSet.StringVar(&f.cacheDir, "cache-dir", cfg.CacheDir, "directory of the persistent result cache")
	flagSet.StringVar(&f.signatures, "signatures", cfg.SignaturesFile, "YAML or JSONC file with extra signature rules")
	flagSet.StringVar(&f.logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flagSet.IntVar(&f.workers, "workers", cfg.Workers, "concurrent detections during directory scans")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	paths := flagSet.Args()
	if len(paths) == 0 {
		printHelp(stderr, flagSet)
		return exitError(2)
	}

	cfg.Unwrap = f.unwrap
	cfg.Checksum = f.checksum
	if f.checksum != "" {
		algorithm, err := filetype.ParseChecksumAlgorithm(f.checksum)
		if err != nil {
			return err
		}
		cfg.Checksum = string(algorithm)
	}
	cfg.CacheDir = f.cacheDir
	cfg.SignaturesFile = f.signatures
	cfg.LogLevel = f.logLevel
	cfg.Workers = f.workers
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := newWriter(f.format, stdout)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts = append(opts, filetype.WithLogger(logger))
	if cfg.CacheDir != "" {
		cache, err := diskcache.Open(cfg.CacheDir, diskcache.WithLogger(logger))
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, filetype.WithCache(cache, cfg.CacheLifetime()))
	}

	c := &cli{
		flags:    f,
		cfg:      cfg,
		detector: filetype.New(opts...),
		logger:   logger,
		out:      out,
		stdin:    stdin,
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			break
		}
		c.handle(ctx, p)
	}
	if f.watch {
		if err := c.watchAll(ctx, paths); err != nil {
			return err
		}
	}

	if err := out.Close(); err != nil {
		return err
	}
	if c.failed {
		return exitError(1)
	}
	return nil
}

type cli struct {
	flags    flags
	cfg      *filetype.Config
	detector *filetype.Detector
	logger   *slog.Logger
	out      writer
	stdin    io.Reader
	failed   bool

	s3client *awss3.Client
}

func (c *cli) emit(r record) {
	if r.Error != "" {
		c.failed = true
	}
	if err := c.out.Write(r); err != nil {
		c.logger.Error("cannot write output", "error", err)
		c.failed = true
	}
}

func (c *cli) handle(ctx context.Context, p string) {
	switch {
	case p == "-":
		info, err := c.detector.DetectByContent(c.stdin)
		c.emit(newRecord(p, 0, info, "", err))
		return
	case c.flags.nameOnly:
		info, err := c.detector.DetectByFileName(p)
		c.emit(newRecord(p, 0, info, "", err))
		return
	}

	if bucket, key, ok := s3remote.ParseURL(p); ok {
		c.handleS3(ctx, p, bucket, key)
		return
	}

	fi, err := os.Stat(p)
	if err != nil {
		c.emit(newRecord(p, 0, nil, "", err))
		return
	}

	switch {
	case c.flags.zip:
		c.handleZip(ctx, p, fi.Size())
	case fi.IsDir():
		c.handleDir(ctx, p)
	default:
		info, err := c.detector.DetectFromFilePath(p)
		var sum string
		if err == nil && c.cfg.Checksum != "" {
			sum, err = checksumFile(p, filetype.ChecksumAlgorithm(c.cfg.Checksum))
		}
		c.emit(newRecord(p, fi.Size(), info, sum, err))
	}
}

func (c *cli) scanOptions() []scan.Option {
	opts := []scan.Option{
		scan.WithDetector(c.detector),
		scan.WithInclude(c.flags.include...),
		scan.WithExclude(c.flags.exclude...),
		scan.WithWorkers(c.cfg.Workers),
		scan.WithRecursive(c.flags.recursive),
		scan.WithLogger(c.logger),
	}
	if c.cfg.Checksum != "" {
		opts = append(opts, scan.WithChecksum(filetype.ChecksumAlgorithm(c.cfg.Checksum)))
	}
	return opts
}

func (c *cli) handleDir(ctx context.Context, dir string) {
	results, err := scan.Dir(ctx, os.DirFS(dir), c.scanOptions()...)
	if err != nil {
		c.emit(newRecord(dir, 0, nil, "", err))
		return
	}
	for _, r := range results {
		c.emit(newRecord(filepath.Join(dir, filepath.FromSlash(r.Path)), r.Size, r.Info, r.Checksum, r.Err))
	}
}

func (c *cli) handleZip(ctx context.Context, archive string, size int64) {
	f, err := os.Open(archive)
	if err != nil {
		c.emit(newRecord(archive, 0, nil, "", err))
		return
	}
	defer f.Close()

	results, err := scan.Zip(ctx, f, size, c.scanOptions()...)
	if err != nil {
		c.emit(newRecord(archive, size, nil, "", err))
		return
	}
	for _, r := range results {
		c.emit(newRecord(archive+"/"+r.Path, r.Size, r.Info, r.Checksum, r.Err))
	}
}

func (c *cli) handleS3(ctx context.Context, url, bucket, key string) {
	if c.s3client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			c.emit(newRecord(url, 0, nil, "", err))
			return
		}
		c.s3client = awss3.NewFromConfig(awsCfg)
	}

	bucketReader := s3remote.Bucket{Client: c.s3client, Name: bucket}
	info, err := c.detector.DetectSource(ctx, bucketReader, key)
	c.emit(newRecord(url, 0, info, "", err))
}

func (c *cli) watchAll(ctx context.Context, paths []string) error {
	var watchers []*watch.Watcher
	for _, p := range paths {
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			continue
		}
		w, err := watch.New(p, c.detector,
			watch.WithInclude(c.flags.include...),
			watch.WithExclude(c.flags.exclude...),
			watch.WithRecursive(c.flags.recursive),
			watch.WithLogger(c.logger),
		)
		if err != nil {
			return err
		}
		watchers = append(watchers, w)
	}
	if len(watchers) == 0 {
		return errors.New("--watch needs at least one directory argument")
	}

	events := make(chan watch.Event)
	done := make(chan struct{})
	for _, w := range watchers {
		go func() {
			go w.Run(ctx)
			for ev := range w.Events() {
				events <- ev
			}
			done <- struct{}{}
		}()
	}

	for running := len(watchers); running > 0; {
		select {
		case ev := <-events:
			var size int64
			if fi, err := os.Stat(ev.Path); err == nil {
				size = fi.Size()
			}
			c.emit(newRecord(ev.Path, size, ev.Info, "", ev.Err))
		case <-done:
			running--
		}
	}
	return nil
}

func checksumFile(path string, algorithm filetype.ChecksumAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return filetype.CalculateChecksum(f, algorithm)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `filetype identifies file formats from their content.

Files are identified by magic bytes; when no signature matches, the file
extension is used instead. Directories are scanned with a pool of workers.

Usage:
  filetype [flags] PATH...

PATH may be a file, a directory, "-" for standard input or an
s3://bucket/key URL (credentials come from the usual AWS configuration).

Examples:
  # Identify a few files
  filetype photo.jpg download.bin

  # Scan a tree for images and print JSON lines with SHA-256 sums
  filetype -r --include '*.{png,jpg,gif}' --checksum sha256 --format json ./uploads

  # List what is inside an archive, looking through compression layers
  filetype --zip --unwrap backup.zip

  # Report new files as they arrive
  filetype --watch -r ./incoming

Settings can also come from the environment (BEAVER_FILETYPE_UNWRAP,
BEAVER_FILETYPE_CHECKSUM, BEAVER_FILETYPE_CACHE_DIR, ...).

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
