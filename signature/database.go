package signature

import (
	"unicode/utf16"

	"github.com/gobeaver/filetype/content"
	"github.com/gobeaver/filetype/extension"
)

// Rule ties a signature to the extension it identifies.
type Rule struct {
	Extension extension.Extension
	Matcher   Matcher
}

// Database is an ordered list of rules. The first matching rule wins, so
// specific signatures must come before the generic ones they refine.
// A Database is immutable and safe for concurrent use.
type Database struct {
	rules []Rule
}

// NewDatabase returns a Database holding rules in the given order.
func NewDatabase(rules ...Rule) *Database {
	return &Database{rules: append([]Rule(nil), rules...)}
}

// Detect returns the extension of the first rule that matches src.
func (d *Database) Detect(src Source) (extension.Extension, bool) {
	for _, r := range d.rules {
		if r.Matcher.Match(src) {
			return r.Extension, true
		}
	}
	return "", false
}

// Prepend returns a new Database that tries rules before the rules of d.
func (d *Database) Prepend(rules ...Rule) *Database {
	merged := make([]Rule, 0, len(rules)+len(d.rules))
	merged = append(merged, rules...)
	merged = append(merged, d.rules...)
	return &Database{rules: merged}
}

// Rules returns a copy of the rules of d.
func (d *Database) Rules() []Rule {
	return append([]Rule(nil), d.rules...)
}

// Len returns the number of rules.
func (d *Database) Len() int {
	return len(d.rules)
}

var (
	bs  = content.Bytes
	txt = content.Text
)

// utf16le encodes s the way OLE directory entries store stream names.
func utf16le(s string) content.Pattern {
	units := utf16.Encode([]rune(s))
	p := make(content.Pattern, 0, len(units)*2)
	for _, u := range units {
		p = append(p, byte(u), byte(u>>8))
	}
	return p
}

var (
	zipLocal = At(0, bs(0x50, 0x4B, 0x03, 0x04))
	riff     = At(0, txt("RIFF"))
	ole      = At(0, bs(0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1))
	ebml     = At(0, bs(0x1A, 0x45, 0xDF, 0xA3))
	ftyp     = At(4, txt("ftyp"))
	asf      = At(0, bs(0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C))
	xmlDecl  = At(0, txt("<?xml"))

	asfVideoMedia = bs(0xC0, 0xEF, 0x19, 0xBC, 0x4D, 0x5B, 0xCF, 0x11, 0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B)
	asfAudioMedia = bs(0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11, 0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B)
)

// zipEntry matches a zip archive that names the given member close to the
// start of the file.
func zipEntry(name string) Matcher {
	return All(zipLocal, Near(0, txt(name), content.MaxDepth(4096)))
}

// openDocument matches the uncompressed mimetype member that OpenDocument
// files store first.
func openDocument(mime string) Matcher {
	return All(zipLocal, At(30, txt("mimetype")), At(38, txt(mime)))
}

// oleStream matches an OLE compound file by its sub-header at 512 or by a
// stream name in its directory.
func oleStream(name string, subHeaders ...content.Pattern) Matcher {
	alts := make([]Matcher, 0, len(subHeaders)+1)
	for _, h := range subHeaders {
		alts = append(alts, At(512, h))
	}
	alts = append(alts, Near(0, utf16le(name), content.MaxDepth(8192)))
	return All(ole, Any(alts...))
}

func brand(s string) Matcher {
	return All(ftyp, At(8, txt(s)))
}

var defaultDatabase = NewDatabase(
	// Images
	Rule{extension.PNG, At(0, bs(0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A))},
	Rule{extension.JPEG, At(0, bs(0xFF, 0xD8, 0xFF))},
	Rule{extension.GIF, Any(At(0, txt("GIF87a")), At(0, txt("GIF89a")))},
	Rule{extension.WEBP, All(riff, At(8, txt("WEBP")))},
	Rule{extension.TIFF, Any(At(0, bs(0x49, 0x49, 0x2A, 0x00)), At(0, bs(0x4D, 0x4D, 0x00, 0x2A)))},
	Rule{extension.PSD, At(0, txt("8BPS"))},
	Rule{extension.ICO, At(0, bs(0x00, 0x00, 0x01, 0x00))},
	Rule{extension.BMP, All(At(0, txt("BM")), At(6, bs(0x00, 0x00, 0x00, 0x00)))},
	Rule{extension.SVG, Any(At(0, txt("<svg")), All(xmlDecl, Near(0, txt("<svg"))))},

	// Documents
	Rule{extension.PDF, At(0, txt("%PDF"))},
	Rule{extension.RTF, At(0, txt(`{\rtf`))},
	Rule{extension.DOC, oleStream("WordDocument", bs(0xEC, 0xA5, 0xC1, 0x00))},
	Rule{extension.XLS, oleStream("Workbook",
		bs(0x09, 0x08, 0x10, 0x00, 0x00, 0x06, 0x05, 0x00),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x10),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x1F),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x22),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x23),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x28),
		bs(0xFD, 0xFF, 0xFF, 0xFF, 0x29),
	)},
	Rule{extension.PPT, oleStream("PowerPoint Document",
		bs(0x00, 0x6E, 0x1E, 0xF0),
		bs(0x0F, 0x00, 0xE8, 0x03),
		bs(0xA0, 0x46, 0x1D, 0xF0),
	)},

	// Zip containers, most specific first
	Rule{extension.ODT, openDocument("application/vnd.oasis.opendocument.text")},
	Rule{extension.ODS, openDocument("application/vnd.oasis.opendocument.spreadsheet")},
	Rule{extension.ODP, openDocument("application/vnd.oasis.opendocument.presentation")},
	Rule{extension.ODB, openDocument("application/vnd.oasis.opendocument.base")},
	Rule{extension.DOCX, zipEntry("word/")},
	Rule{extension.XLSX, zipEntry("xl/")},
	Rule{extension.PPTX, zipEntry("ppt/")},
	Rule{extension.APK, zipEntry("AndroidManifest.xml")},
	Rule{extension.XAP, zipEntry("AppManifest.xaml")},
	Rule{extension.PKPASS, zipEntry("pass.json")},
	Rule{extension.JAR, zipEntry("META-INF/MANIFEST.MF")},
	Rule{extension.ZIP, Any(zipLocal, At(0, bs(0x50, 0x4B, 0x05, 0x06)), At(0, bs(0x50, 0x4B, 0x07, 0x08)))},

	// Archives and compressors
	Rule{extension.GZIP, At(0, bs(0x1F, 0x8B))},
	Rule{extension.BZIP2, At(0, txt("BZh"))},
	Rule{extension.LZMA2, At(0, bs(0xFD, '7', 'z', 'X', 'Z', 0x00))},
	Rule{extension.SevenZip, At(0, bs('7', 'z', 0xBC, 0xAF, 0x27, 0x1C))},
	Rule{extension.RAR, At(0, txt("Rar!\x1a\x07"))},
	Rule{extension.CAB, At(0, txt("MSCF"))},
	Rule{extension.ZSTD, At(0, bs(0x28, 0xB5, 0x2F, 0xFD))},
	Rule{extension.LZ4, At(0, bs(0x04, 0x22, 0x4D, 0x18))},
	Rule{extension.ARJ, At(0, bs(0x60, 0xEA))},
	Rule{extension.ARC, At(0, bs('A', 'r', 'C', 0x01))},
	Rule{extension.DAR, At(0, bs(0x00, 0x00, 0x00, 0x7B))},
	Rule{extension.TAR, At(257, txt("ustar"))},

	// Disk images
	Rule{extension.ISO, Any(At(0x8001, txt("CD001")), At(0x8801, txt("CD001")), At(0x9001, txt("CD001")))},
	Rule{extension.VHD, Any(At(0, txt("conectix")), At(-512, txt("conectix")))},
	Rule{extension.NRG, Any(At(-8, txt("NERO")), At(-12, txt("NER5")))},

	// Databases
	Rule{extension.SQLITE, At(0, txt("SQLite format 3\x00"))},
	Rule{extension.MDB, At(0, txt("\x00\x01\x00\x00Standard Jet DB"))},
	Rule{extension.ACCDB, At(0, txt("\x00\x01\x00\x00Standard ACE DB"))},

	// Fonts
	Rule{extension.OTF, At(0, txt("OTTO"))},
	Rule{extension.TTF, At(0, bs(0x00, 0x01, 0x00, 0x00, 0x00))},

	// Executables
	Rule{extension.EXE, At(0, txt("MZ"))},

	// Audio
	Rule{extension.WAV, All(riff, At(8, txt("WAVE")))},
	Rule{extension.FLAC, At(0, txt("fLaC"))},
	Rule{extension.OGG, At(0, txt("OggS"))},
	Rule{extension.MIDI, At(0, txt("MThd"))},
	Rule{extension.AMR, At(0, txt("#!AMR"))},
	Rule{extension.CAF, At(0, txt("caff"))},
	Rule{extension.M3U, At(0, txt("#EXTM3U"))},
	Rule{extension.MP3, Any(
		At(0, txt("ID3")),
		At(0, bs(0xFF, 0xFB)),
		At(0, bs(0xFF, 0xFA)),
		At(0, bs(0xFF, 0xF3)),
		At(0, bs(0xFF, 0xF2)),
	)},
	Rule{extension.AAC, Any(At(0, bs(0xFF, 0xF1)), At(0, bs(0xFF, 0xF9)), At(0, txt("ADIF")))},
	Rule{extension.M4A, brand("M4A ")},

	// Video
	Rule{extension.WMV, All(asf, Near(0, asfVideoMedia, content.MaxDepth(4096)))},
	Rule{extension.WMA, All(asf, Near(0, asfAudioMedia, content.MaxDepth(4096)))},
	Rule{extension.ASF, asf},
	Rule{extension.AVI, All(riff, At(8, txt("AVI ")))},
	Rule{extension.M4V, brand("M4V ")},
	Rule{extension.MOV, Any(brand("qt  "), At(4, txt("moov")), At(4, txt("mdat")), At(4, txt("wide")), At(4, txt("free")))},
	Rule{extension.ThreeGP, Any(brand("3gp"), brand("3g2"))},
	Rule{extension.MP4, ftyp},
	Rule{extension.WEBM, All(ebml, Near(0, txt("webm"), content.MaxDepth(64)))},
	Rule{extension.MKV, ebml},
	Rule{extension.FLV, At(0, txt("FLV\x01"))},
	Rule{extension.SWF, Any(At(0, txt("FWS")), At(0, txt("CWS")), At(0, txt("ZWS")))},
	Rule{extension.MPEG, Any(At(0, bs(0x00, 0x00, 0x01, 0xBA)), At(0, bs(0x00, 0x00, 0x01, 0xB3)))},

	// Text formats
	Rule{extension.PEM, At(0, txt("-----BEGIN "))},
	Rule{extension.VCF, At(0, txt("BEGIN:VCARD"))},
	Rule{extension.REG, Any(At(0, txt("Windows Registry Editor")), At(0, txt("REGEDIT4")))},
	Rule{extension.RSS, Any(At(0, txt("<rss")), All(xmlDecl, Near(0, txt("<rss"))))},
	Rule{extension.ATOM, Any(At(0, txt("<feed")), All(xmlDecl, Near(0, txt("<feed"))))},
	Rule{extension.HTML, Any(
		At(0, txt("<!DOCTYPE html")),
		At(0, txt("<!doctype html")),
		At(0, txt("<html")),
		At(0, txt("<HTML")),
	)},
	Rule{extension.XML, xmlDecl},
	Rule{extension.JSON, Any(At(0, txt("{")), At(0, txt("[")))},

	// A PDF header shifted by leading junk. Last, so containers holding
	// the text keep their own type.
	Rule{extension.PDF, Near(0, txt("%PDF"), content.MaxDepth(1024))},
)

// Default returns the built-in signature database.
func Default() *Database {
	return defaultDatabase
}
