package graph

import (
	"strings"
	"time"
)

// RootID is the Drive alias for the caller's "My Drive" root folder.
const RootID = "root"

// MIME types with special meaning in Drive.
const (
	MimeFolder         = "application/vnd.google-apps.folder"
	MimeShortcut       = "application/vnd.google-apps.shortcut"
	MimeDocument       = "application/vnd.google-apps.document"
	MimeSpreadsheet    = "application/vnd.google-apps.spreadsheet"
	MimePresentation   = "application/vnd.google-apps.presentation"
	MimeDrawing        = "application/vnd.google-apps.drawing"
	MimeNativePrefix   = "application/vnd.google-apps."
	MimeOctetStream    = "application/octet-stream"
	MimePlainText      = "text/plain"
	MimePDF            = "application/pdf"
	MimeSpreadsheetXML = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePNG            = "image/png"
)

// Kind classifies a Node by how the path layer treats it.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
	KindShortcut
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindShortcut:
		return "shortcut"
	default:
		return "file"
	}
}

// KindOf derives the Kind from a Drive MIME type.
func KindOf(mimeType string) Kind {
	switch mimeType {
	case MimeFolder:
		return KindFolder
	case MimeShortcut:
		return KindShortcut
	default:
		return KindFile
	}
}

// Node is a Drive file, folder, or shortcut.
// Fields are normalized from the API response; callers never see *drive.File.
type Node struct {
	ID       string
	Name     string
	Kind     Kind
	MimeType string
	Parents  []string
	Size     int64

	CreatedAt  time.Time
	ModifiedAt time.Time

	// Set only for shortcuts.
	ShortcutTarget     string
	ShortcutTargetMime string

	Trashed      bool
	SharedWithMe bool
	WebViewLink  string
}

func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

func (n *Node) IsShortcut() bool {
	return n.Kind == KindShortcut
}

// IsNative reports whether the node is a Google-native document with no raw
// byte form (Docs, Sheets, Slides, Drawings...). Folders and shortcuts are
// not native documents even though they share the MIME prefix.
func (n *Node) IsNative() bool {
	return n.Kind == KindFile && strings.HasPrefix(n.MimeType, MimeNativePrefix)
}

// HasParent reports whether parentID is one of the node's parents.
func (n *Node) HasParent(parentID string) bool {
	for _, p := range n.Parents {
		if p == parentID {
			return true
		}
	}

	return false
}

// Account is the authenticated user as reported by about.get.
type Account struct {
	DisplayName string
	Email       string
	QuotaUsed   int64
	QuotaLimit  int64 // 0 when the account has no limit
}
