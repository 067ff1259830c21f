package diskcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gobeaver/filetype"
	"github.com/gobeaver/filetype/extension"
)

func newInfo(t *testing.T, ext extension.Extension) *filetype.Info {
	t.Helper()
	info, err := filetype.NewInfo(ext, false)
	if err != nil {
		t.Fatal(err)
	}
	return info
}

func TestCache(t *testing.T) {
	c, err := Open("", InMemory())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache returned a value")
	}

	c.Set("a", newInfo(t, extension.PNG), 0)
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() after Set returned nothing")
	}
	if got.Extension() != extension.PNG || got.FromFileName() {
		t.Errorf("Get() = %v, want png from content", got)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() after Delete returned a value")
	}

	c.Set("a", newInfo(t, extension.PNG), 0)
	c.Set("b", newInfo(t, extension.PDF), 0)
	c.Clear()
	for _, key := range []string{"a", "b"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("Get(%q) after Clear returned a value", key)
		}
	}
}

func TestCacheTTL(t *testing.T) {
	c, err := Open("", InMemory())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Set("short", newInfo(t, extension.GIF), time.Second)
	if _, ok := c.Get("short"); !ok {
		t.Fatal("entry missing before expiry")
	}
	time.Sleep(1500 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("entry returned after expiry")
	}
}

func TestCachePersists(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	c.Set("k", newInfo(t, extension.GZIP), 0)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if got.Extension() != extension.GZIP {
		t.Errorf("Extension() = %q, want gzip", got.Extension())
	}
}

func TestDetectorWithDiskCache(t *testing.T) {
	c, err := Open("", InMemory())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	path := filepath.Join(t.TempDir(), "image")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	d := filetype.New(filetype.WithCache(c, 0))
	if _, err := d.DetectFromFilePath(path); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(filetype.CacheKey(path, fi.Size(), fi.ModTime()))
	if !ok {
		t.Fatal("detection was not stored")
	}
	if got.Extension() != extension.PNG {
		t.Errorf("cached Extension() = %q, want png", got.Extension())
	}
}
