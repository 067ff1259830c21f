package filetype

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/filetype/signature"
)

type Config struct {
	// Detect the payload of gzip, zstd, lz4 and bzip2 files
	Unwrap bool `env:"FILETYPE_UNWRAP,default:false"`

	// Most decompressed bytes read when unwrapping
	UnwrapLimit int64 `env:"FILETYPE_UNWRAP_LIMIT,default:1048576" validate:"gte=0"`

	// Lifetime of cached path detections in seconds, 0 keeps them forever
	CacheTTL int `env:"FILETYPE_CACHE_TTL,default:0" validate:"gte=0"`

	// Most results kept by the in-memory cache used when CacheTTL is set
	CacheEntries int `env:"FILETYPE_CACHE_ENTRIES,default:10000" validate:"gte=0"`

	// Directory of the persistent result cache, empty disables it
	CacheDir string `env:"FILETYPE_CACHE_DIR"`

	// YAML or JSONC file with extra signature rules
	SignaturesFile string `env:"FILETYPE_SIGNATURES_FILE"`

	// Concurrent detections during directory scans
	Workers int `env:"FILETYPE_WORKERS,default:4" validate:"gte=1,lte=256"`

	// Checksum computed next to each detection, empty for none
	Checksum string `env:"FILETYPE_CHECKSUM" validate:"omitempty,oneof=md5 sha1 sha256 sha512 crc32 xxhash blake3"`

	LogLevel string `env:"FILETYPE_LOG_LEVEL,default:info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

var validate = validator.New()

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the field constraints of c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config: %s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	return nil
}

// CacheLifetime returns CacheTTL as a duration.
func (c *Config) CacheLifetime() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Options translates c into Detector options. A positive CacheTTL adds a
// bounded MemoryCache. The persistent cache is not included; callers open it
// from CacheDir themselves and pass it after these options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option
	if c.SignaturesFile != "" {
		rules, err := signature.LoadFile(c.SignaturesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRules(rules...))
	}
	if c.CacheTTL > 0 {
		opts = append(opts, WithCache(NewMemoryCache(WithMaxEntries(c.CacheEntries)), c.CacheLifetime()))
	}
	if c.Unwrap {
		opts = append(opts, WithUnwrap(c.UnwrapLimit))
	}
	return opts, nil
}
