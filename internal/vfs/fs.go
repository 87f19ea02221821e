// Package vfs presents a Drive object graph as a path-addressed hierarchy.
//
// Drive stores nodes with parent links rather than directories: a node can
// have several parents, names are not unique among siblings, and shortcuts
// point at other nodes. Resolver walks paths through that graph, Enumerator
// lists subtrees without looping, and FS composes both into create, read,
// update, delete, and list operations keyed by path.
package vfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

const tracerName = "github.com/tonimelisma/gdrive-go/internal/vfs"

// Options configures an FS.
type Options struct {
	// RootID is the folder the empty path names. Defaults to graph.RootID.
	RootID string

	// SearchSharedRoots lets a path's first folder segment match folders
	// shared with the caller. Leaf lookups stay inside the hierarchy.
	SearchSharedRoots bool

	// StrictNames fails lookups that match several same-named nodes with
	// ErrAmbiguousMatch instead of taking the oldest.
	StrictNames bool

	// UseTrash moves deleted nodes to the trash instead of removing them.
	UseTrash bool

	Logger *slog.Logger
}

// CreateOptions controls CreateByPath.
type CreateOptions struct {
	MimeType                  string
	CreateIntermediateFolders bool
	Progress                  graph.ProgressFunc
}

// ReadOptions controls ReadByPath and ReadByPathTo.
type ReadOptions struct {
	Progress graph.ProgressFunc
}

// UpdateOptions controls UpdateByPath.
type UpdateOptions struct {
	MimeType string
	NewName  string
	Progress graph.ProgressFunc
}

// FS is the path-keyed file API over a Store.
type FS struct {
	store    Store
	resolver *Resolver
	enum     *Enumerator
	shared   bool
	useTrash bool
	strict   bool
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(store Store, opts Options) *FS {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FS{
		store:    store,
		resolver: NewResolver(store, opts.RootID, opts.StrictNames, logger),
		enum:     NewEnumerator(store, logger),
		shared:   opts.SearchSharedRoots,
		useTrash: opts.UseTrash,
		strict:   opts.StrictNames,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Resolver returns the resolver FS walks paths with.
func (f *FS) Resolver() *Resolver {
	return f.resolver
}

// Enumerator returns the enumerator FS lists folders with.
func (f *FS) Enumerator() *Enumerator {
	return f.enum
}

// CreateByPath uploads content as a new file at path. Missing parent
// folders are created when opts.CreateIntermediateFolders is set;
// otherwise a missing parent is ErrMissingParent and nothing is created.
// Drive permits duplicate names, so an existing file at path is not
// replaced; a second file with the same name is added beside it.
func (f *FS) CreateByPath(ctx context.Context, path string, content Content, opts CreateOptions) (_ *graph.Node, err error) {
	ctx, span := f.start(ctx, "CreateByPath", path)
	defer f.end(span, &err)

	parent, leaf, err := splitLeaf(path)
	if err != nil {
		return nil, err
	}

	body, size, err := openContent(content)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	parentID, _, err := f.resolver.walk(ctx, parent, ResolveOptions{
		CreateIfMissing:   opts.CreateIntermediateFolders,
		SearchSharedRoots: f.shared,
	})
	if err != nil {
		if !opts.CreateIntermediateFolders && errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("vfs: creating %q: parent %q: %w", path, JoinPath(parent), ErrMissingParent)
		}

		return nil, err
	}

	mimeType := inferMimeType(opts.MimeType, leaf, content)

	node, err := f.store.CreateFile(ctx, parentID, leaf, graph.Upload{
		Content:  body,
		Size:     size,
		MimeType: mimeType,
		Progress: opts.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("vfs: creating %q: %w", path, err)
	}

	f.logger.Debug("created file",
		slog.String("path", path),
		slog.String("id", node.ID),
		slog.String("mime", mimeType),
		slog.Int64("size", size),
	)

	return node, nil
}

// FindByPath returns the node at path, of any kind. The leaf is not
// dereferenced: a shortcut is returned as the shortcut. The empty path
// returns the root folder.
func (f *FS) FindByPath(ctx context.Context, path string) (_ *graph.Node, err error) {
	ctx, span := f.start(ctx, "FindByPath", path)
	defer f.end(span, &err)

	return f.find(ctx, path)
}

func (f *FS) find(ctx context.Context, path string) (*graph.Node, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	if len(segs) == 0 {
		return f.resolver.ResolveNode(ctx, "", ResolveOptions{})
	}

	parent, leaf := segs[:len(segs)-1], segs[len(segs)-1]

	parentID, _, err := f.resolver.walk(ctx, parent, ResolveOptions{SearchSharedRoots: f.shared})
	if err != nil {
		return nil, err
	}

	matches, err := f.store.Query(ctx, entryNamed(leaf, parentID))
	if err != nil {
		return nil, fmt.Errorf("vfs: looking up %q: %w", path, err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("vfs: %q: %w", path, ErrNotFound)
	case len(matches) > 1 && f.strict:
		return nil, fmt.Errorf("vfs: %q: %d candidates: %w", path, len(matches), ErrAmbiguousMatch)
	}

	return &matches[0], nil
}

// ReadByPath returns the content at path. See ReadByPathTo.
func (f *FS) ReadByPath(ctx context.Context, path string, opts ReadOptions) ([]byte, error) {
	var buf bytes.Buffer

	if _, err := f.ReadByPathTo(ctx, path, &buf, opts); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadByPathTo streams the content at path into w and returns the number of
// bytes written. A shortcut leaf is read through to its target. Native
// documents are exported (see ExportMimeType). Folders cannot be read.
func (f *FS) ReadByPathTo(ctx context.Context, path string, w io.Writer, opts ReadOptions) (_ int64, err error) {
	ctx, span := f.start(ctx, "ReadByPath", path)
	defer f.end(span, &err)

	node, err := f.find(ctx, path)
	if err != nil {
		return 0, err
	}

	if node.IsShortcut() {
		node, err = f.resolver.deref(ctx, node, path)
		if err != nil {
			return 0, err
		}
	}

	if node.IsFolder() {
		return 0, fmt.Errorf("vfs: reading %q: is a folder: %w", path, ErrInvalidArgument)
	}

	if node.IsNative() {
		exportMime := ExportMimeType(node.MimeType)
		span.SetAttributes(attribute.String("vfs.export_mime", exportMime))

		f.logger.Debug("exporting native document",
			slog.String("path", path),
			slog.String("kind", node.MimeType),
			slog.String("as", exportMime),
		)

		n, err := f.store.Export(ctx, node.ID, exportMime, w, opts.Progress)
		if err != nil {
			return n, fmt.Errorf("vfs: exporting %q: %w", path, err)
		}

		return n, nil
	}

	n, err := f.store.Download(ctx, node.ID, w, opts.Progress)
	if err != nil {
		return n, fmt.Errorf("vfs: reading %q: %w", path, err)
	}

	return n, nil
}

// UpdateByPath replaces the content of the file at path, renames it, or
// both. content may be nil when only renaming.
func (f *FS) UpdateByPath(ctx context.Context, path string, content Content, opts UpdateOptions) (_ *graph.Node, err error) {
	ctx, span := f.start(ctx, "UpdateByPath", path)
	defer f.end(span, &err)

	if content == nil && opts.NewName == "" {
		return nil, fmt.Errorf("vfs: updating %q: nothing to change: %w", path, ErrInvalidArgument)
	}

	if opts.NewName != "" {
		if err := validName(opts.NewName); err != nil {
			return nil, err
		}
	}

	var upd graph.Update

	upd.Name = opts.NewName

	if content != nil {
		body, size, err := openContent(content)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		leaf := opts.NewName
		if leaf == "" {
			_, leaf, _ = splitLeaf(path)
		}

		upd.Content = &graph.Upload{
			Content:  body,
			Size:     size,
			MimeType: inferMimeType(opts.MimeType, leaf, content),
			Progress: opts.Progress,
		}
	}

	node, err := f.find(ctx, path)
	if err != nil {
		return nil, err
	}

	if upd.Content != nil && (node.IsFolder() || node.IsShortcut() || node.IsNative()) {
		return nil, fmt.Errorf("vfs: updating %q: cannot replace content of a %s: %w",
			path, describe(node), ErrInvalidArgument)
	}

	updated, err := f.store.UpdateFile(ctx, node.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("vfs: updating %q: %w", path, err)
	}

	return updated, nil
}

// DeleteByPath deletes the node at path. An absent path is ErrNotFound and
// nothing is changed. Folders are deleted with their contents.
func (f *FS) DeleteByPath(ctx context.Context, path string) (err error) {
	ctx, span := f.start(ctx, "DeleteByPath", path)
	defer f.end(span, &err)

	if _, _, err := splitLeaf(path); err != nil {
		return err
	}

	node, err := f.find(ctx, path)
	if err != nil {
		return err
	}

	return f.deleteID(ctx, node.ID)
}

// DeleteByID deletes a node by id. Deleting an id that no longer exists
// is ErrNotFound, so a repeated delete is reported, not ignored.
func (f *FS) DeleteByID(ctx context.Context, id string) (err error) {
	ctx, span := f.start(ctx, "DeleteByID", id)
	defer f.end(span, &err)

	return f.deleteID(ctx, id)
}

func (f *FS) deleteID(ctx context.Context, id string) error {
	if id == "" || id == graph.RootID || id == f.resolver.RootID() {
		return fmt.Errorf("vfs: refusing to delete root folder: %w", ErrInvalidArgument)
	}

	if f.useTrash {
		if _, err := f.store.Trash(ctx, id); err != nil {
			return fmt.Errorf("vfs: trashing %s: %w", id, err)
		}

		f.logger.Debug("moved to trash", slog.String("id", id))

		return nil
	}

	if err := f.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("vfs: deleting %s: %w", id, err)
	}

	f.logger.Debug("deleted", slog.String("id", id))

	return nil
}

// ListByPath lists the folder at path, recursively if asked. Shortcuts in
// the path are followed; shortcuts inside the listing are not.
func (f *FS) ListByPath(ctx context.Context, path string, recursive bool) (_ []graph.Node, err error) {
	ctx, span := f.start(ctx, "ListByPath", path)
	defer f.end(span, &err)

	id, err := f.resolver.Resolve(ctx, path, ResolveOptions{SearchSharedRoots: f.shared})
	if err != nil {
		return nil, err
	}

	return f.enum.List(ctx, id, recursive)
}

// Mkdir returns the folder at path, creating it and any missing parents.
func (f *FS) Mkdir(ctx context.Context, path string) (_ *graph.Node, err error) {
	ctx, span := f.start(ctx, "Mkdir", path)
	defer f.end(span, &err)

	return f.resolver.ResolveNode(ctx, path, ResolveOptions{
		CreateIfMissing:   true,
		SearchSharedRoots: f.shared,
	})
}

func (f *FS) start(ctx context.Context, op, path string) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "vfs."+op, trace.WithAttributes(attribute.String("vfs.path", path)))
}

func (f *FS) end(span trace.Span, errp *error) {
	if *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}

	span.End()
}

func describe(n *graph.Node) string {
	if n.IsNative() {
		return "native document"
	}

	return n.Kind.String()
}
