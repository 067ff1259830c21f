package filetype

import (
	"fmt"

	"github.com/gobeaver/filetype/extension"
)

// Info is the immutable result of a detection.
type Info struct {
	ext          extension.Extension
	fromFileName bool
	inner        *Info
}

// NewInfo returns the Info for ext. fromFileName records whether the
// extension came from a file name rather than from content.
func NewInfo(ext extension.Extension, fromFileName bool) (*Info, error) {
	if !ext.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
	return &Info{ext: ext, fromFileName: fromFileName}, nil
}

// Extension returns the canonical extension of the detected format.
func (i *Info) Extension() extension.Extension { return i.ext }

// FileType returns the category of the detected format.
func (i *Info) FileType() extension.FileType { return i.ext.FileType() }

// MIMEType returns the MIME type of the detected format.
func (i *Info) MIMEType() string { return i.ext.MIMEType() }

// FromFileName reports whether the result came from the file name rather
// than from content.
func (i *Info) FromFileName() bool { return i.fromFileName }

// Inner returns the format of the decompressed payload of a compressed
// file, or nil when the payload was not inspected or not recognized.
func (i *Info) Inner() *Info { return i.inner }

func (i *Info) withInner(inner *Info) *Info {
	out := *i
	out.inner = inner
	return &out
}

func (i *Info) String() string {
	s := fmt.Sprintf("%s (%s, %s)", i.ext, i.FileType(), i.MIMEType())
	if i.inner != nil {
		s += " containing " + i.inner.String()
	}
	return s
}

// Report is the serializable form of an Info.
type Report struct {
	Extension    string  `json:"extension" yaml:"extension" cbor:"extension"`
	FileType     string  `json:"file_type" yaml:"file_type" cbor:"file_type"`
	MIMEType     string  `json:"mime_type" yaml:"mime_type" cbor:"mime_type"`
	FromFileName bool    `json:"from_file_name" yaml:"from_file_name" cbor:"from_file_name"`
	Inner        *Report `json:"inner,omitempty" yaml:"inner,omitempty" cbor:"inner,omitempty"`
}

// Report returns the serializable form of i.
func (i *Info) Report() Report {
	r := Report{
		Extension:    string(i.ext),
		FileType:     string(i.FileType()),
		MIMEType:     i.MIMEType(),
		FromFileName: i.fromFileName,
	}
	if i.inner != nil {
		inner := i.inner.Report()
		r.Inner = &inner
	}
	return r
}

// Info rebuilds the Info a Report was made from.
func (r Report) Info() (*Info, error) {
	info, err := NewInfo(extension.Extension(r.Extension), r.FromFileName)
	if err != nil {
		return nil, err
	}
	if r.Inner != nil {
		inner, err := r.Inner.Info()
		if err != nil {
			return nil, err
		}
		info.inner = inner
	}
	return info, nil
}
