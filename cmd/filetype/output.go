package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/gobeaver/filetype"
)

// record is one line of output.
type record struct {
	Path     string           `json:"path" yaml:"path" cbor:"path"`
	Size     int64            `json:"size,omitempty" yaml:"size,omitempty" cbor:"size,omitempty"`
	Result   *filetype.Report `json:"result,omitempty" yaml:"result,omitempty" cbor:"result,omitempty"`
	Checksum string           `json:"checksum,omitempty" yaml:"checksum,omitempty" cbor:"checksum,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
}

func newRecord(path string, size int64, info *filetype.Info, checksum string, err error) record {
	r := record{Path: path, Size: size, Checksum: checksum}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if info != nil {
		report := info.Report()
		r.Result = &report
	}
	return r
}

// writer streams records in one output format.
type writer interface {
	Write(r record) error
	Close() error
}

func newWriter(format string, w io.Writer) (writer, error) {
	switch format {
	case "", "text":
		return &textWriter{w: bufio.NewWriter(w)}, nil
	case "json":
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case "yaml":
		return &yamlWriter{enc: yaml.NewEncoder(w)}, nil
	case "cbor":
		return &cborWriter{enc: cbor.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json, yaml or cbor)", format)
	}
}

type textWriter struct {
	w *bufio.Writer
}

func (t *textWriter) Write(r record) error {
	var err error
	switch {
	case r.Error != "":
		_, err = fmt.Fprintf(t.w, "%s: error: %s\n", r.Path, r.Error)
	case r.Result != nil:
		line := describe(r.Result)
		if r.Checksum != "" {
			line += " " + r.Checksum
		}
		_, err = fmt.Fprintf(t.w, "%s: %s\n", r.Path, line)
	}
	if err != nil {
		return err
	}
	return t.w.Flush()
}

func (t *textWriter) Close() error { return t.w.Flush() }

func describe(r *filetype.Report) string {
	s := fmt.Sprintf("%s (%s, %s)", r.Extension, r.FileType, r.MIMEType)
	if r.FromFileName {
		s += " [by name]"
	}
	if r.Inner != nil {
		s += " containing " + describe(r.Inner)
	}
	return s
}

// jsonWriter emits JSON lines.
type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(r record) error { return j.enc.Encode(r) }
func (j *jsonWriter) Close() error         { return nil }

// yamlWriter emits one YAML document per record.
type yamlWriter struct {
	enc *yaml.Encoder
}

func (y *yamlWriter) Write(r record) error { return y.enc.Encode(r) }
func (y *yamlWriter) Close() error         { return y.enc.Close() }

// cborWriter emits a CBOR sequence.
type cborWriter struct {
	enc *cbor.Encoder
}

func (c *cborWriter) Write(r record) error { return c.enc.Encode(r) }
func (c *cborWriter) Close() error         { return nil }
