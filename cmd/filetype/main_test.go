package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

var png = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunText(t *testing.T) {
	dir := writeTree(t, map[string][]byte{
		"image.bin": png,
		"table.csv": []byte("a,b\n1,2\n"),
	})

	out, _, err := execute(t, "", filepath.Join(dir, "image.bin"), filepath.Join(dir, "table.csv"))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "image.bin") + ": png (image, image/png)",
		filepath.Join(dir, "table.csv") + ": csv (spreadsheet, text/csv) [by name]",
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunJSONDirectory(t *testing.T) {
	dir := writeTree(t, map[string][]byte{
		"a.png":        png,
		"sub/b.png":    png,
		"sub/skip.txt": []byte("hello"),
	})

	out, _, err := execute(t, "", "--format", "json", "-r", "--include", "*.png", "--checksum", "sha256", dir)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var got []record
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r record
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, r)
	}

	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %s", len(got), out)
	}
	for _, r := range got {
		if r.Result == nil || r.Result.Extension != "png" {
			t.Errorf("%s: result = %+v, want png", r.Path, r.Result)
		}
		if len(r.Checksum) != 64 {
			t.Errorf("%s: checksum = %q, want a sha256 hex digest", r.Path, r.Checksum)
		}
		if r.Size != int64(len(png)) {
			t.Errorf("%s: size = %d, want %d", r.Path, r.Size, len(png))
		}
	}
}

func TestRunYAMLAndCBOR(t *testing.T) {
	path := writeTree(t, map[string][]byte{"x.bin": png})
	path = filepath.Join(path, "x.bin")

	out, _, err := execute(t, "", "--format", "yaml", path)
	if err != nil {
		t.Fatalf("yaml run() error = %v", err)
	}
	var y record
	if err := yaml.Unmarshal([]byte(out), &y); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if y.Path != path || y.Result == nil || y.Result.MIMEType != "image/png" {
		t.Errorf("yaml record = %+v", y)
	}

	out, _, err = execute(t, "", "--format", "cbor", path)
	if err != nil {
		t.Fatalf("cbor run() error = %v", err)
	}
	var c record
	if err := cbor.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("cbor decode: %v", err)
	}
	if c.Path != path || c.Result == nil || c.Result.Extension != "png" {
		t.Errorf("cbor record = %+v", c)
	}
}

func TestRunStdinAndNameOnly(t *testing.T) {
	out, _, err := execute(t, string(png), "-")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.HasPrefix(out, "-: png ") {
		t.Errorf("stdin output = %q", out)
	}

	out, _, err = execute(t, "", "--name-only", "does/not/exist.gif")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out, "gif (image, image/gif) [by name]") {
		t.Errorf("name-only output = %q", out)
	}
}

func TestRunFailures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.png")
	out, _, err := execute(t, "", missing)
	var code interface{ ExitCode() int }
	if !errors.As(err, &code) || code.ExitCode() != 1 {
		t.Fatalf("run() error = %v, want exit status 1", err)
	}
	if !strings.Contains(out, missing+": error:") {
		t.Errorf("output = %q, want an error line", out)
	}

	if _, _, err := execute(t, "", "--format", "xml", missing); err == nil {
		t.Error("unknown format accepted")
	}
	if _, _, err := execute(t, "", "--checksum", "md4", missing); err == nil {
		t.Error("unknown checksum accepted")
	}
	if _, _, err := execute(t, ""); !errors.As(err, &code) || code.ExitCode() != 2 {
		t.Errorf("run() without paths error = %v, want exit status 2", err)
	}
	if _, stderr, err := execute(t, "", "--help"); err != nil || !strings.Contains(stderr, "Usage:") {
		t.Errorf("--help = %v, stderr %q", err, stderr)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"success", nil, 0, ""},
		{"failed paths", exitError(1), 1, ""},
		{"wrapped status", fmt.Errorf("scan: %w", exitError(3)), 3, ""},
		{"plain error", errors.New("bad flag"), 2, "error: bad flag\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if stderr.String() != tt.message {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.message)
			}
		})
	}
}
