package scan

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zip"

	"github.com/gobeaver/filetype"
	"github.com/gobeaver/filetype/extension"
)

var (
	png = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pdf = []byte("%PDF-1.7\n")
	gif = []byte("GIF89a")
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"logo.png":            {Data: png},
		"notes.txt":           {Data: []byte("plain")},
		"docs/manual.pdf":     {Data: pdf},
		"docs/img/banner.bin": {Data: gif},
		"docs/img/skip.png":   {Data: png},
		"mystery":             {Data: []byte{0x01, 0x02}},
	}
}

func paths(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Path
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDir(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "top level only",
			want: []string{"logo.png", "mystery", "notes.txt"},
		},
		{
			name: "recursive",
			opts: []Option{WithRecursive(true)},
			want: []string{"docs/img/banner.bin", "docs/img/skip.png", "docs/manual.pdf", "logo.png", "mystery", "notes.txt"},
		},
		{
			name: "include base name pattern",
			opts: []Option{WithRecursive(true), WithInclude("*.png")},
			want: []string{"docs/img/skip.png", "logo.png"},
		},
		{
			name: "include path pattern",
			opts: []Option{WithRecursive(true), WithInclude("docs/**")},
			want: []string{"docs/img/banner.bin", "docs/img/skip.png", "docs/manual.pdf"},
		},
		{
			name: "double star implies recursion",
			opts: []Option{WithInclude("docs/**")},
			want: []string{"docs/img/banner.bin", "docs/img/skip.png", "docs/manual.pdf"},
		},
		{
			name: "single segment star",
			opts: []Option{WithRecursive(true), WithInclude("docs/*")},
			want: []string{"docs/manual.pdf"},
		},
		{
			name: "exclude wins",
			opts: []Option{WithRecursive(true), WithInclude("**"), WithExclude("skip.*", "mystery")},
			want: []string{"docs/img/banner.bin", "docs/manual.pdf", "logo.png", "notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Dir(context.Background(), testFS(), append(tt.opts, WithWorkers(3))...)
			if err != nil {
				t.Fatalf("Dir() error = %v", err)
			}
			if got := paths(results); !equal(got, tt.want) {
				t.Errorf("Dir() paths = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirResults(t *testing.T) {
	results, err := Dir(context.Background(), testFS(), WithRecursive(true), WithChecksum(filetype.ChecksumCRC32))
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}

	want := map[string]struct {
		ext          extension.Extension
		fromFileName bool
	}{
		"logo.png":            {extension.PNG, false},
		"docs/manual.pdf":     {extension.PDF, false},
		"docs/img/banner.bin": {extension.GIF, false},
		"notes.txt":           {extension.TXT, true},
	}

	for _, r := range results {
		if r.Path == "mystery" {
			if !filetype.IsNotDetected(r.Err) {
				t.Errorf("mystery: error = %v, want ErrNotDetected", r.Err)
			}
			continue
		}
		w, ok := want[r.Path]
		if !ok {
			continue
		}
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", r.Path, r.Err)
			continue
		}
		if r.Info.Extension() != w.ext {
			t.Errorf("%s: Extension() = %q, want %q", r.Path, r.Info.Extension(), w.ext)
		}
		if r.Info.FromFileName() != w.fromFileName {
			t.Errorf("%s: FromFileName() = %v, want %v", r.Path, r.Info.FromFileName(), w.fromFileName)
		}
		if len(r.Checksum) != 8 {
			t.Errorf("%s: Checksum = %q, want 8 hex digits", r.Path, r.Checksum)
		}
	}
}

func TestDirInvalidOptions(t *testing.T) {
	if _, err := Dir(context.Background(), testFS(), WithInclude("[")); err == nil {
		t.Error("Dir() with invalid pattern returned no error")
	}
	if _, err := Dir(context.Background(), testFS(), WithChecksum("md4")); err == nil {
		t.Error("Dir() with unknown checksum returned no error")
	}
}

func TestDirCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Dir(ctx, testFS(), WithRecursive(true)); err != context.Canceled {
		t.Errorf("Dir() error = %v, want context.Canceled", err)
	}
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := zw.Create("empty-dir/"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestZip(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"a/logo.png":  png,
		"b/doc.pdf":   pdf,
		"c/readme.md": []byte("# title"),
	})

	results, err := Zip(context.Background(), bytes.NewReader(data), int64(len(data)), WithChecksum(filetype.ChecksumSHA256))
	if err != nil {
		t.Fatalf("Zip() error = %v", err)
	}

	want := []struct {
		path string
		ext  extension.Extension
	}{
		{"a/logo.png", extension.PNG},
		{"b/doc.pdf", extension.PDF},
		{"c/readme.md", extension.MARKDOWN},
	}
	if len(results) != len(want) {
		t.Fatalf("Zip() returned %d results, want %d: %v", len(results), len(want), paths(results))
	}
	for i, w := range want {
		r := results[i]
		if r.Path != w.path {
			t.Errorf("results[%d].Path = %q, want %q", i, r.Path, w.path)
			continue
		}
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", r.Path, r.Err)
			continue
		}
		if r.Info.Extension() != w.ext {
			t.Errorf("%s: Extension() = %q, want %q", r.Path, r.Info.Extension(), w.ext)
		}
		if len(r.Checksum) != 64 {
			t.Errorf("%s: Checksum = %q, want 64 hex digits", r.Path, r.Checksum)
		}
	}

	filtered, err := Zip(context.Background(), bytes.NewReader(data), int64(len(data)), WithInclude("a/**"))
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(filtered); !equal(got, []string{"a/logo.png"}) {
		t.Errorf("filtered paths = %v, want [a/logo.png]", got)
	}

	if _, err := Zip(context.Background(), bytes.NewReader([]byte("not a zip")), 9); err == nil {
		t.Error("Zip() on garbage returned no error")
	}
}

func TestZipEntryLimit(t *testing.T) {
	iso := make([]byte, 0x8001+2048)
	copy(iso[0x8001:], "CD001")
	data := buildZip(t, map[string][]byte{"disk.iso": iso})

	tests := []struct {
		name   string
		opts   []Option
		byName bool
	}{
		{"default limit", nil, false},
		{"limit before signature", []Option{WithEntryLimit(1024)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Zip(context.Background(), bytes.NewReader(data), int64(len(data)), tt.opts...)
			if err != nil {
				t.Fatalf("Zip() error = %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("Zip() returned %d results, want 1: %v", len(results), paths(results))
			}
			r := results[0]
			if r.Err != nil {
				t.Fatalf("%s: unexpected error %v", r.Path, r.Err)
			}
			if r.Info.Extension() != extension.ISO {
				t.Errorf("Extension() = %q, want %q", r.Info.Extension(), extension.ISO)
			}
			if r.Info.FromFileName() != tt.byName {
				t.Errorf("FromFileName() = %v, want %v", r.Info.FromFileName(), tt.byName)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	f, err := NewFilter([]string{"*.go", "cmd/**"}, []string{"*_test.go"})
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]bool{
		"main.go":            true,
		"pkg/util.go":        true,
		"pkg/util_test.go":   false,
		"cmd/tool/README":    true,
		"docs/guide.md":      false,
		"cmd/tool/x_test.go": false,
	}
	for p, want := range tests {
		if got := f.Match(p); got != want {
			t.Errorf("Match(%q) = %v, want %v", p, got, want)
		}
	}

	if !f.Recursive() {
		t.Error("Recursive() = false with a ** pattern")
	}

	var none *Filter
	if !none.Match("anything") || none.Recursive() {
		t.Error("nil Filter should match everything and not be recursive")
	}
}
