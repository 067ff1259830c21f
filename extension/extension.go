package extension

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownExtension is returned by Parse for names outside the table.
var ErrUnknownExtension = errors.New("unknown extension")

// Extension is the canonical, lower-case extension of a format.
type Extension string

// Canonical extensions
const (
	JPEG Extension = "jpeg"
	BMP  Extension = "bmp"
	GIF  Extension = "gif"
	PNG  Extension = "png"
	TIFF Extension = "tiff"
	PSD  Extension = "psd"
	ICO  Extension = "ico"
	SVG  Extension = "svg"
	WEBP Extension = "webp"

	CAF Extension = "caf"
	PEM Extension = "pem"

	ARJ      Extension = "arj"
	BZIP2    Extension = "bzip2"
	GZIP     Extension = "gzip"
	LZMA2    Extension = "lzma2"
	SevenZip Extension = "7z"
	CAB      Extension = "cab"
	JAR      Extension = "jar"
	RAR      Extension = "rar"
	TAR      Extension = "tar"
	ZIP      Extension = "zip"
	ARC      Extension = "arc"
	DAR      Extension = "dar"
	ZSTD     Extension = "zst"
	LZ4      Extension = "lz4"

	ISO Extension = "iso"
	NRG Extension = "nrg"
	VHD Extension = "vhd"

	ACCDB  Extension = "accdb"
	MDB    Extension = "mdb"
	ODB    Extension = "odb"
	SQLITE Extension = "sqlite"

	DOC      Extension = "doc"
	DOCX     Extension = "docx"
	HTML     Extension = "html"
	ODT      Extension = "odt"
	PDF      Extension = "pdf"
	RTF      Extension = "rtf"
	TXT      Extension = "txt"
	XML      Extension = "xml"
	MARKDOWN Extension = "markdown"
	JSON     Extension = "json"
	YAML     Extension = "yaml"
	ATOM     Extension = "atom"
	RSS      Extension = "rss"

	OTF Extension = "otf"
	TTF Extension = "ttf"

	APK Extension = "apk"
	COM Extension = "com"
	EXE Extension = "exe"
	XAP Extension = "xap"

	PPT  Extension = "ppt"
	PPTX Extension = "pptx"
	ODP  Extension = "odp"

	FLAC Extension = "flac"
	WMA  Extension = "wma"
	AMR  Extension = "amr"
	MP3  Extension = "mp3"
	AAC  Extension = "aac"
	M3U  Extension = "m3u"
	OGG  Extension = "ogg"
	WAV  Extension = "wav"
	MIDI Extension = "midi"
	M4A  Extension = "m4a"

	ODS  Extension = "ods"
	XLS  Extension = "xls"
	XLSX Extension = "xlsx"
	CSV  Extension = "csv"
	TSV  Extension = "tsv"

	ThreeGP Extension = "3gp"
	ASF     Extension = "asf"
	AVI     Extension = "avi"
	FLV     Extension = "flv"
	M4V     Extension = "m4v"
	MKV     Extension = "mkv"
	MOV     Extension = "mov"
	MPEG    Extension = "mpeg"
	MP4     Extension = "mp4"
	SWF     Extension = "swf"
	VOB     Extension = "vob"
	WMV     Extension = "wmv"
	WEBM    Extension = "webm"

	VCF    Extension = "vcf"
	REG    Extension = "reg"
	PKPASS Extension = "pkpass"
)

// aliases maps alternative spellings to their canonical extension.
// "m4a" resolves to AAC even though M4A is itself canonical.
var aliases = map[string]Extension{
	"jpg":  JPEG,
	"jpe":  JPEG,
	"tif":  TIFF,
	"mpg":  MPEG,
	"mpe":  MPEG,
	"m4a":  AAC,
	"yml":  YAML,
	"md":   MARKDOWN,
	"mid":  MIDI,
	"htm":  HTML,
	"gz":   GZIP,
	"bz2":  BZIP2,
	"xz":   LZMA2,
	"zstd": ZSTD,
	"db":   SQLITE,
}

type entry struct {
	mime     string
	fileType FileType
}

// table holds the MIME type and category of every canonical extension.
var table = map[Extension]entry{
	JPEG: {"image/jpeg", Image},
	BMP:  {"image/bmp", Image},
	GIF:  {"image/gif", Image},
	PNG:  {"image/png", Image},
	TIFF: {"image/tiff", Image},
	PSD:  {"image/vnd.adobe.photoshop", Image},
	ICO:  {"image/x-icon", Image},
	SVG:  {"image/svg+xml", Image},
	WEBP: {"image/webp", Image},

	ARJ:      {"application/arj", Archive},
	BZIP2:    {"application/x-bzip2", Archive},
	GZIP:     {"application/gzip", Archive},
	SevenZip: {"application/x-7z-compressed", Archive},
	LZMA2:    {"application/x-xz", Archive},
	CAB:      {"application/vnd.ms-cab-compressed", Archive},
	JAR:      {"application/java-archive", Archive},
	RAR:      {"application/x-rar-compressed", Archive},
	TAR:      {"application/x-tar", Archive},
	ZIP:      {"application/zip", Archive},
	ARC:      {"application/x-freearc", Archive},
	DAR:      {"application/x-dar", Archive},
	ZSTD:     {"application/zstd", Archive},
	LZ4:      {"application/x-lz4", Archive},

	ISO: {"application/x-iso9660-image", DiskImage},
	NRG: {"application/x-nrg", DiskImage},
	VHD: {"application/x-vhd", DiskImage},

	ACCDB:  {"application/x-msaccess", Database},
	MDB:    {"application/x-msaccess", Database},
	ODB:    {"application/vnd.oasis.opendocument.database", Database},
	SQLITE: {"application/x-sqlite3", Database},

	DOC:      {"application/msword", Document},
	DOCX:     {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", Document},
	HTML:     {"text/html", Document},
	ODT:      {"application/vnd.oasis.opendocument.text", Document},
	PDF:      {"application/pdf", Document},
	RTF:      {"application/rtf", Document},
	TXT:      {"text/plain", Document},
	MARKDOWN: {"text/markdown", Document},
	YAML:     {"text/yaml", Document},
	JSON:     {"application/json", Document},
	XML:      {"application/xml", Document},
	ATOM:     {"application/atom+xml", Document},
	RSS:      {"application/rss+xml", Document},

	OTF: {"application/x-font-otf", Font},
	TTF: {"application/x-font-ttf", Font},

	APK: {"application/vnd.android.package-archive", Executable},
	COM: {"application/x-msdownload", Executable},
	EXE: {"application/x-msdownload", Executable},
	XAP: {"application/x-silverlight-app", Executable},

	PPT:  {"application/vnd.ms-powerpoint", Presentation},
	PPTX: {"application/vnd.openxmlformats-officedocument.presentationml.presentation", Presentation},
	ODP:  {"application/vnd.oasis.opendocument.presentation", Presentation},

	FLAC: {"audio/x-flac", Audio},
	WMA:  {"audio/x-ms-wma", Audio},
	AMR:  {"audio/amr", Audio},
	MP3:  {"audio/mpeg", Audio},
	AAC:  {"audio/x-aac", Audio},
	M3U:  {"audio/x-mpegurl", Audio},
	OGG:  {"audio/ogg", Audio},
	WAV:  {"audio/x-wav", Audio},
	MIDI: {"audio/midi", Audio},
	M4A:  {"audio/x-m4a", Audio},
	CAF:  {"audio/x-caf", Audio},

	ODS:  {"application/vnd.oasis.opendocument.spreadsheet", Spreadsheet},
	XLS:  {"application/vnd.ms-excel", Spreadsheet},
	XLSX: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Spreadsheet},
	CSV:  {"text/csv", Spreadsheet},
	TSV:  {"text/tab-separated-values", Spreadsheet},

	ThreeGP: {"video/3gpp", Video},
	ASF:     {"application/vnd.ms-asf", Video},
	AVI:     {"video/x-msvideo", Video},
	FLV:     {"video/x-flv", Video},
	M4V:     {"video/x-m4v", Video},
	MKV:     {"video/x-matroska", Video},
	MOV:     {"video/quicktime", Video},
	MPEG:    {"video/mpeg", Video},
	MP4:     {"video/mp4", Video},
	SWF:     {"application/x-shockwave-flash", Video},
	VOB:     {"video/x-ms-vob", Video},
	WMV:     {"video/x-ms-wmv", Video},
	WEBM:    {"video/webm", Video},

	REG: {"text/plain", Document},
	VCF: {"text/x-vcard", Document},

	PEM: {"application/x-x509-ca-cert", Certificate},

	PKPASS: {"application/vnd.apple.pkpass", Archive},
}

// Parse resolves a file extension, with or without its leading dot and in
// any letter case, to its canonical Extension. Aliases such as "jpg" or
// "yml" are accepted.
func Parse(s string) (Extension, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if ext, ok := aliases[name]; ok {
		return ext, nil
	}
	if _, ok := table[Extension(name)]; ok {
		return Extension(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExtension, s)
}

// FromFileName returns the Extension of a file name or path, based on the
// text after its last dot.
func FromFileName(name string) (Extension, error) {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownExtension, name)
	}
	return Parse(base[dot+1:])
}

// Valid reports whether e is a canonical extension.
func (e Extension) Valid() bool {
	_, ok := table[e]
	return ok
}

// MIMEType returns the MIME type registered for e, or an empty string for
// an invalid extension.
func (e Extension) MIMEType() string {
	return table[e].mime
}

// FileType returns the category e belongs to, or an empty FileType for an
// invalid extension.
func (e Extension) FileType() FileType {
	return table[e].fileType
}

func (e Extension) String() string {
	return string(e)
}
