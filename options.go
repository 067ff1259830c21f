package filetype

import (
	"log/slog"
	"time"

	"github.com/gobeaver/filetype/signature"
)

// Option configures a Detector
type Option func(*Options)

// Options contains all possible Detector settings
type Options struct {
	// Database is the signature database used for content detection
	Database *signature.Database

	// Logger receives debug records about detections and read failures
	Logger *slog.Logger

	// Cache stores results of DetectFromFilePath
	Cache Cache

	// CacheTTL is how long cached results stay valid. Zero means forever.
	CacheTTL time.Duration

	// UnwrapLimit is the most decompressed bytes inspected inside a
	// compressed file. Zero disables unwrapping.
	UnwrapLimit int64
}

// WithDatabase replaces the built-in signature database
func WithDatabase(db *signature.Database) Option {
	return func(o *Options) {
		o.Database = db
	}
}

// WithRules puts custom rules in front of the built-in signature database
func WithRules(rules ...signature.Rule) Option {
	return func(o *Options) {
		if o.Database == nil {
			o.Database = signature.Default()
		}
		o.Database = o.Database.Prepend(rules...)
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCache caches path detections in c for ttl
func WithCache(c Cache, ttl time.Duration) Option {
	return func(o *Options) {
		o.Cache = c
		o.CacheTTL = ttl
	}
}

// WithUnwrap enables detection of the payload of gzip, zstd, lz4 and bzip2
// files, reading at most limit decompressed bytes
func WithUnwrap(limit int64) Option {
	return func(o *Options) {
		o.UnwrapLimit = limit
	}
}

func defaultOptions() Options {
	return Options{
		Database: signature.Default(),
		Logger:   slog.New(slog.DiscardHandler),
	}
}
