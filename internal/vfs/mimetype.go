package vfs

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// knownTypes covers the extensions users upload most. It is consulted
// before the platform MIME database, whose contents vary between hosts.
var knownTypes = map[string]string{
	".txt":  graph.MimePlainText,
	".md":   "text/markdown",
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".pdf":  graph.MimePDF,
	".zip":  "application/zip",
	".png":  graph.MimePNG,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": graph.MimeSpreadsheetXML,
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// typeByExtension returns the MIME type for name's extension, or "".
func typeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}

	if t, ok := knownTypes[ext]; ok {
		return t
	}

	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}

	return mediaType
}

// inferMimeType picks the upload MIME type: an explicit type wins, then the
// leaf name's extension, then a local source file's extension, then the
// payload kind.
func inferMimeType(explicit, leaf string, c Content) string {
	if explicit != "" {
		return explicit
	}

	if t := typeByExtension(leaf); t != "" {
		return t
	}

	switch c := c.(type) {
	case ContentFile:
		if t := typeByExtension(c.Path); t != "" {
			return t
		}

		return graph.MimeOctetStream
	case ContentText:
		return graph.MimePlainText
	default:
		return graph.MimeOctetStream
	}
}
