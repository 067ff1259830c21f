package extension

import (
	"errors"
	"strings"
	"testing"
)

func TestEveryExtensionHasMIMETypeAndFileType(t *testing.T) {
	known := make(map[FileType]bool)
	for _, ft := range FileTypes() {
		known[ft] = true
	}

	for _, ext := range All() {
		t.Run(string(ext), func(t *testing.T) {
			if ext.MIMEType() == "" {
				t.Errorf("extension %q has no MIME type", ext)
			}
			if !strings.Contains(ext.MIMEType(), "/") {
				t.Errorf("MIME type %q of %q is malformed", ext.MIMEType(), ext)
			}
			if !known[ext.FileType()] {
				t.Errorf("extension %q has unknown file type %q", ext, ext.FileType())
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Extension
	}{
		{"jpeg", JPEG},
		{"jpg", JPEG},
		{"JPG", JPEG},
		{".png", PNG},
		{"tif", TIFF},
		{"mpg", MPEG},
		{"mpe", MPEG},
		{"m4a", AAC},
		{"yml", YAML},
		{"md", MARKDOWN},
		{"mid", MIDI},
		{"7z", SevenZip},
		{"3gp", ThreeGP},
		{"pkpass", PKPASS},
		{" Mp3 ", MP3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseUnknown(t *testing.T) {
	for _, input := range []string{"", "foo", ".", "jpgx"} {
		if _, err := Parse(input); !errors.Is(err, ErrUnknownExtension) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownExtension", input, err)
		}
	}
}

func TestFromFileName(t *testing.T) {
	tests := []struct {
		name    string
		want    Extension
		wantErr bool
	}{
		{"image.jpg", JPEG, false},
		{"image.JPG", JPEG, false},
		{"sample.mp3", MP3, false},
		{"/var/data/archive.tar.gz", GZIP, false},
		{`C:\docs\report.docx`, DOCX, false},
		{"README", "", true},
		{"trailing.", "", true},
		{"dir.d/noext", "", true},
		{"unknown.xyz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFileName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromFileName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FromFileName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileTypes(t *testing.T) {
	tests := []struct {
		ext  Extension
		want FileType
		mime string
	}{
		{JPEG, Image, "image/jpeg"},
		{PNG, Image, "image/png"},
		{GZIP, Archive, "application/gzip"},
		{PDF, Document, "application/pdf"},
		{MP3, Audio, "audio/mpeg"},
		{XLSX, Spreadsheet, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{ISO, DiskImage, "application/x-iso9660-image"},
	}

	for _, tt := range tests {
		if got := tt.ext.FileType(); got != tt.want {
			t.Errorf("%s.FileType() = %q, want %q", tt.ext, got, tt.want)
		}
		if got := tt.ext.MIMEType(); got != tt.mime {
			t.Errorf("%s.MIMEType() = %q, want %q", tt.ext, got, tt.mime)
		}
	}
}

func TestByFileType(t *testing.T) {
	for _, ft := range FileTypes() {
		exts := ByFileType(ft)
		if len(exts) == 0 {
			t.Errorf("ByFileType(%q) is empty", ft)
		}
		for _, ext := range exts {
			if ext.FileType() != ft {
				t.Errorf("ByFileType(%q) returned %q of type %q", ft, ext, ext.FileType())
			}
		}
	}
}

func TestInvalidExtension(t *testing.T) {
	var ext Extension = "nope"
	if ext.Valid() {
		t.Error("Valid() = true for unknown extension")
	}
	if ext.MIMEType() != "" || ext.FileType() != "" {
		t.Error("unknown extension should have no MIME type or file type")
	}
}
