// Package document holds helpers shared by the extractors: stable document
// identifiers, titles and OOXML archive access.
package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ragify/ragify/internal/core/domain"
)

// ID derives a stable document ID from the source ID and the part number
// (page, or 0 for single-document sources).
func ID(sourceID string, part int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", sourceID, part))).String()
}

// New builds the document for one part of a source.
func New(src *domain.Source, part int, title, content string, metadata map[string]any) domain.Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["source_kind"] = string(src.Kind)
	if src.FileType.IsSupported() {
		metadata["format"] = string(src.FileType)
	}

	uri := src.Path
	if uri == "" {
		uri = src.URL
	}
	if title == "" {
		title = TitleFromName(src.ID)
	}

	return domain.Document{
		ID:       ID(src.ID, part),
		SourceID: src.ID,
		URI:      uri,
		Title:    title,
		Content:  content,
		Metadata: metadata,
	}
}

// TitleFromName turns a file name into a readable title.
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// Failed wraps err as an extraction failure of the given format.
func Failed(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, format, err)
}

// ReadZipFile returns the content of the named archive member.
// Returns domain.ErrNotFound when the member does not exist.
func ReadZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, file := range r.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, domain.ErrNotFound
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// CoreTitle reads the title from an OOXML package's docProps/core.xml.
// Returns "" when absent.
func CoreTitle(r *zip.Reader) string {
	content, err := ReadZipFile(r, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
