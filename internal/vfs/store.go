package vfs

import (
	"context"
	"io"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// Store is the object-graph surface the path layer needs. *graph.Client
// satisfies it; tests use an in-memory graph.
type Store interface {
	GetNode(ctx context.Context, id string) (*graph.Node, error)
	Query(ctx context.Context, q graph.Expr) ([]graph.Node, error)
	CreateFolder(ctx context.Context, parentID, name string) (*graph.Node, error)
	CreateFile(ctx context.Context, parentID, name string, up graph.Upload) (*graph.Node, error)
	UpdateFile(ctx context.Context, id string, upd graph.Update) (*graph.Node, error)
	Delete(ctx context.Context, id string) error
	Trash(ctx context.Context, id string) (*graph.Node, error)
	Download(ctx context.Context, id string, w io.Writer, progress graph.ProgressFunc) (int64, error)
	Export(ctx context.Context, id, mimeType string, w io.Writer, progress graph.ProgressFunc) (int64, error)
}

var _ Store = (*graph.Client)(nil)

// childrenOf matches the non-trashed children of parentID.
func childrenOf(parentID string) graph.Expr {
	return graph.And(graph.InParents(parentID), graph.NotTrashed())
}

// parentClause restricts a lookup to parentID, optionally widened to items
// shared with the caller that sit outside their own hierarchy.
func parentClause(parentID string, shared bool) graph.Expr {
	if shared {
		return graph.Or(graph.InParents(parentID), graph.SharedWithMe())
	}

	return graph.InParents(parentID)
}

// containerNamed matches a folder or shortcut called name.
func containerNamed(name, parentID string, shared bool) graph.Expr {
	return graph.And(
		graph.NameEq(name),
		graph.Or(graph.MimeEq(graph.MimeFolder), graph.MimeEq(graph.MimeShortcut)),
		graph.NotTrashed(),
		parentClause(parentID, shared),
	)
}

// entryNamed matches any node called name directly under parentID. Leaves
// are never widened to shared items: a mutation must only reach what the
// path names inside the hierarchy.
func entryNamed(name, parentID string) graph.Expr {
	return graph.And(
		graph.NameEq(name),
		graph.NotTrashed(),
		graph.InParents(parentID),
	)
}
