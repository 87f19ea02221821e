package vfs

import "github.com/tonimelisma/gdrive-go/internal/graph"

// exportFormats maps native document kinds to the format they are read as.
var exportFormats = map[string]string{
	graph.MimeDocument:     graph.MimePDF,
	graph.MimeSpreadsheet:  graph.MimeSpreadsheetXML,
	graph.MimePresentation: graph.MimePDF,
	graph.MimeDrawing:      graph.MimePNG,
}

// ExportMimeType returns the format a native document of the given kind is
// exported to. Unmapped kinds export as PDF.
func ExportMimeType(nativeMime string) string {
	if t, ok := exportFormats[nativeMime]; ok {
		return t
	}

	return graph.MimePDF
}
