// Package filetype classifies files by extension into the document
// categories the extractor and anchor manager dispatch on.
package filetype

import (
	"path/filepath"
	"strings"
)

// Category is the document category derived from a file extension.
type Category string

const (
	Word       Category = "word"
	Excel      Category = "excel"
	PowerPoint Category = "powerpoint"
	Text       Category = "text"
	PDF        Category = "pdf"
	Image      Category = "image"
	CAD        Category = "cad"
	Audio      Category = "audio"
	Video      Category = "video"
	Other      Category = "other"
)

// extensions maps a lowercased extension (without dot) to its category.
var extensions = map[string]Category{
	// Word-like
	"doc": Word, "docx": Word, "docm": Word, "rtf": Word, "odt": Word,

	// Spreadsheets
	"xls": Excel, "xlsx": Excel, "xlsm": Excel, "ods": Excel,

	// Presentations
	"ppt": PowerPoint, "pptx": PowerPoint, "pptm": PowerPoint, "odp": PowerPoint,

	// Plain text and code
	"txt": Text, "md": Text, "markdown": Text, "log": Text,
	"json": Text, "yaml": Text, "yml": Text, "xml": Text, "toml": Text,
	"csv": Text, "tsv": Text, "ini": Text, "cfg": Text, "conf": Text,
	"go": Text, "py": Text, "js": Text, "ts": Text, "jsx": Text, "tsx": Text,
	"c": Text, "h": Text, "cpp": Text, "hpp": Text, "cs": Text, "java": Text,
	"rb": Text, "rs": Text, "php": Text, "swift": Text, "kt": Text,
	"sh": Text, "bat": Text, "ps1": Text, "sql": Text,
	"html": Text, "htm": Text, "css": Text, "scss": Text,

	"pdf": PDF,

	"png": Image, "jpg": Image, "jpeg": Image, "gif": Image,
	"bmp": Image, "svg": Image, "webp": Image, "tiff": Image, "ico": Image,

	"dwg": CAD, "dxf": CAD, "step": CAD, "stp": CAD, "iges": CAD, "igs": CAD,

	"mp3": Audio, "wav": Audio, "flac": Audio, "ogg": Audio, "m4a": Audio,

	"mp4": Video, "avi": Video, "mkv": Video, "mov": Video, "wmv": Video, "webm": Video,
}

// Classify returns the category for a file path.
// Unknown or missing extensions classify as Other.
func Classify(path string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return Other
	}
	if cat, ok := extensions[ext]; ok {
		return cat
	}
	return Other
}

// Indexable reports whether files of this category carry extractable text.
// PDF is classified but not yet extracted; media and CAD formats never are.
func (c Category) Indexable() bool {
	switch c {
	case Word, Excel, PowerPoint, Text:
		return true
	default:
		return false
	}
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}
