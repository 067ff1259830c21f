package filetype

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for k, v := range envVars {
		k := k // capture for closure
		os.Setenv(k, v)
		t.Cleanup(func() { os.Unsetenv(k) })
	}
}

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: Config{
				UnwrapLimit:  1048576,
				CacheEntries: 10000,
				Workers:      4,
				LogLevel:     "info",
			},
		},
		{
			name: "unwrap configuration",
			envVars: map[string]string{
				"BEAVER_FILETYPE_UNWRAP":       "true",
				"BEAVER_FILETYPE_UNWRAP_LIMIT": "65536",
			},
			want: Config{
				Unwrap:       true,
				UnwrapLimit:  65536,
				CacheEntries: 10000,
				Workers:      4,
				LogLevel:     "info",
			},
		},
		{
			name: "scan configuration",
			envVars: map[string]string{
				"BEAVER_FILETYPE_WORKERS":         "16",
				"BEAVER_FILETYPE_CHECKSUM":        "blake3",
				"BEAVER_FILETYPE_CACHE_TTL":       "300",
				"BEAVER_FILETYPE_CACHE_ENTRIES":   "500",
				"BEAVER_FILETYPE_CACHE_DIR":       "/var/cache/filetype",
				"BEAVER_FILETYPE_SIGNATURES_FILE": "/etc/filetype/rules.yaml",
				"BEAVER_FILETYPE_LOG_LEVEL":       "debug",
			},
			want: Config{
				UnwrapLimit:    1048576,
				CacheTTL:       300,
				CacheEntries:   500,
				CacheDir:       "/var/cache/filetype",
				SignaturesFile: "/etc/filetype/rules.yaml",
				Workers:        16,
				Checksum:       "blake3",
				LogLevel:       "debug",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}

			if *cfg != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}

func TestGetConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"zero workers", map[string]string{"BEAVER_FILETYPE_WORKERS": "0"}},
		{"too many workers", map[string]string{"BEAVER_FILETYPE_WORKERS": "1000"}},
		{"unknown checksum", map[string]string{"BEAVER_FILETYPE_CHECKSUM": "md4"}},
		{"unknown log level", map[string]string{"BEAVER_FILETYPE_LOG_LEVEL": "verbose"}},
		{"negative cache entries", map[string]string{"BEAVER_FILETYPE_CACHE_ENTRIES": "-5"}},
		{"negative unwrap limit", map[string]string{"BEAVER_FILETYPE_UNWRAP_LIMIT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			if _, err := GetConfig(); err == nil {
				t.Error("GetConfig() returned no error")
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := Config{CacheTTL: 90, LogLevel: "warn"}
	if got := cfg.CacheLifetime(); got != 90*time.Second {
		t.Errorf("CacheLifetime() = %v, want 1m30s", got)
	}
	if got := cfg.Level(); got != slog.LevelWarn {
		t.Errorf("Level() = %v, want WARN", got)
	}
	cfg.LogLevel = "nonsense"
	if got := cfg.Level(); got != slog.LevelInfo {
		t.Errorf("Level() = %v, want INFO for unknown names", got)
	}
}

func TestConfigOptions(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	data := "rules:\n  - extension: txt\n    all:\n      - offset: 0\n        text: \"MAGIC\"\n"
	if err := os.WriteFile(rules, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Unwrap: true, UnwrapLimit: 1 << 16, SignaturesFile: rules}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	d := New(opts...)
	info, err := d.DetectFromContent([]byte("MAGIC!"))
	if err != nil {
		t.Fatalf("DetectFromContent() error = %v", err)
	}
	if info.Extension() != "txt" {
		t.Errorf("Extension() = %q, want txt", info.Extension())
	}
	if d.unwrapLimit != 1<<16 {
		t.Errorf("unwrapLimit = %d, want %d", d.unwrapLimit, 1<<16)
	}

	if d.cache != nil {
		t.Error("cache set without CacheTTL")
	}
	cfg.CacheTTL = 60
	cfg.CacheEntries = 10
	opts, err = cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	d = New(opts...)
	if _, ok := d.cache.(*MemoryCache); !ok || d.cacheTTL != time.Minute {
		t.Errorf("cache = %T, ttl %v; want *MemoryCache for 1m", d.cache, d.cacheTTL)
	}

	cfg.SignaturesFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Options(); err == nil {
		t.Error("Options() with missing rule file returned no error")
	}
}
