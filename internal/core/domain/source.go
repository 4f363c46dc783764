package domain

import (
	"path/filepath"
	"strings"
)

// SourceKind distinguishes how a source is obtained.
type SourceKind string

// Available source kinds.
const (
	// SourceKindFile is an uploaded document.
	SourceKindFile SourceKind = "file"

	// SourceKindVideo is a video whose transcript is ingested.
	SourceKindVideo SourceKind = "video"

	// SourceKindWeb is a web page.
	SourceKindWeb SourceKind = "web"
)

// IsValid returns true if the kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindFile, SourceKindVideo, SourceKindWeb:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// FileType is the closed set of document formats that can be extracted.
type FileType string

// Supported file types. FileTypeUnsupported is the explicit variant for
// everything else.
const (
	FileTypePDF         FileType = "pdf"
	FileTypeDOCX        FileType = "docx"
	FileTypePPTX        FileType = "pptx"
	FileTypeTXT         FileType = "txt"
	FileTypeXLSX        FileType = "xlsx"
	FileTypeUnsupported FileType = ""
)

var fileTypesByExtension = map[string]FileType{
	".pdf":  FileTypePDF,
	".docx": FileTypeDOCX,
	".pptx": FileTypePPTX,
	".txt":  FileTypeTXT,
	".xlsx": FileTypeXLSX,
}

// FileTypeFromName resolves a file name's extension, case-insensitively.
// Unknown extensions resolve to FileTypeUnsupported.
func FileTypeFromName(name string) FileType {
	ext := strings.ToLower(filepath.Ext(name))
	if ft, ok := fileTypesByExtension[ext]; ok {
		return ft
	}
	return FileTypeUnsupported
}

// ParseFileType parses a configured type name such as "pdf" or ".PDF".
func ParseFileType(s string) FileType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FileTypeUnsupported
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return fileTypesByExtension[s]
}

// IsSupported returns true for every variant except FileTypeUnsupported.
func (t FileType) IsSupported() bool {
	return t != FileTypeUnsupported
}

// String returns the string representation.
func (t FileType) String() string {
	if t == FileTypeUnsupported {
		return "unsupported"
	}
	return string(t)
}

// AllFileTypes returns every supported file type.
func AllFileTypes() []FileType {
	return []FileType{FileTypePDF, FileTypeDOCX, FileTypeTXT, FileTypePPTX, FileTypeXLSX}
}

// Source is a single item submitted for ingestion.
type Source struct {
	// ID identifies the source inside a session: the file's base name or the URL.
	ID string

	// Kind is how the source is obtained.
	Kind SourceKind

	// FileType is set for file sources only.
	FileType FileType

	// Path is where a file source was persisted before extraction.
	Path string

	// URL is set for video and web sources.
	URL string
}

// NewFileSource creates a file source identified by its base name.
func NewFileSource(name string) *Source {
	base := filepath.Base(name)
	return &Source{
		ID:       base,
		Kind:     SourceKindFile,
		FileType: FileTypeFromName(base),
	}
}

// NewVideoSource creates a video source identified by its URL.
func NewVideoSource(url string) *Source {
	return &Source{ID: url, Kind: SourceKindVideo, URL: url}
}

// NewWebSource creates a web source identified by its URL.
func NewWebSource(url string) *Source {
	return &Source{ID: url, Kind: SourceKindWeb, URL: url}
}

// IsHTTPURL reports whether s begins with an HTTP(S) scheme.
func IsHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
