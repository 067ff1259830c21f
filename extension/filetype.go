package extension

import (
	"slices"
)

// FileType is the broad category of a format.
type FileType string

const (
	Image        FileType = "image"
	Audio        FileType = "audio"
	Video        FileType = "video"
	Archive      FileType = "archive"
	Document     FileType = "document"
	Spreadsheet  FileType = "spreadsheet"
	Presentation FileType = "presentation"
	Database     FileType = "database"
	Font         FileType = "font"
	Executable   FileType = "executable"
	DiskImage    FileType = "disk_image"
	Certificate  FileType = "certificate"
)

// FileTypes lists every category.
func FileTypes() []FileType {
	return []FileType{
		Image, Audio, Video, Archive, Document, Spreadsheet,
		Presentation, Database, Font, Executable, DiskImage, Certificate,
	}
}

func (t FileType) String() string {
	return string(t)
}

// All returns every canonical extension in lexical order.
func All() []Extension {
	all := make([]Extension, 0, len(table))
	for ext := range table {
		all = append(all, ext)
	}
	slices.Sort(all)
	return all
}

// ByFileType returns the canonical extensions of one category in lexical
// order.
func ByFileType(t FileType) []Extension {
	var exts []Extension
	for _, ext := range All() {
		if ext.FileType() == t {
			exts = append(exts, ext)
		}
	}
	return exts
}
