package vfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// ResolveOptions controls a path walk.
type ResolveOptions struct {
	// CreateIfMissing creates a folder for every segment that does not exist.
	CreateIfMissing bool

	// SearchSharedRoots lets the first segment also match items shared with
	// the caller that are not in their own tree.
	SearchSharedRoots bool
}

// Resolver maps slash-delimited paths to folder ids, one sequential query
// per segment. It never deletes or renames anything; with CreateIfMissing
// it creates folders. Creation is not serialized: two callers resolving the
// same missing path concurrently may each create a folder.
type Resolver struct {
	store  Store
	rootID string
	strict bool
	logger *slog.Logger
}

// NewResolver returns a Resolver rooted at rootID ("" means graph.RootID).
// With strict set, a segment matching more than one node fails with
// ErrAmbiguousMatch instead of picking the oldest.
func NewResolver(store Store, rootID string, strict bool, logger *slog.Logger) *Resolver {
	if rootID == "" {
		rootID = graph.RootID
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{store: store, rootID: rootID, strict: strict, logger: logger}
}

// RootID is the id the empty path resolves to.
func (r *Resolver) RootID() string {
	return r.rootID
}

// Resolve returns the id of the folder at path. Shortcuts along the way are
// replaced by their targets.
func (r *Resolver) Resolve(ctx context.Context, path string, opts ResolveOptions) (string, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return "", err
	}

	id, _, err := r.walk(ctx, segs, opts)

	return id, err
}

// ResolveNode is Resolve returning the folder's metadata.
func (r *Resolver) ResolveNode(ctx context.Context, path string, opts ResolveOptions) (*graph.Node, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	id, node, err := r.walk(ctx, segs, opts)
	if err != nil {
		return nil, err
	}

	if node != nil {
		return node, nil
	}

	root, err := r.store.GetNode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("vfs: reading root folder: %w", err)
	}

	return root, nil
}

// walk consumes segs from the root. It returns the final id and, unless
// segs is empty, the node it names.
func (r *Resolver) walk(ctx context.Context, segs []string, opts ResolveOptions) (string, *graph.Node, error) {
	current := r.rootID

	var node *graph.Node

	for i, seg := range segs {
		shared := i == 0 && opts.SearchSharedRoots
		at := JoinPath(segs[:i+1])

		matches, err := r.store.Query(ctx, containerNamed(seg, current, shared))
		if err != nil {
			return "", nil, fmt.Errorf("vfs: resolving %q: %w", at, err)
		}

		if len(matches) == 0 {
			if !opts.CreateIfMissing {
				return "", nil, fmt.Errorf("vfs: resolving %q: %w", at, ErrNotFound)
			}

			created, err := r.store.CreateFolder(ctx, current, seg)
			if err != nil {
				return "", nil, fmt.Errorf("vfs: creating folder %q: %w", at, err)
			}

			r.logger.Debug("created missing folder",
				slog.String("path", at),
				slog.String("id", created.ID),
			)

			current, node = created.ID, created

			continue
		}

		if len(matches) > 1 {
			if r.strict {
				return "", nil, fmt.Errorf("vfs: resolving %q: %d candidates: %w", at, len(matches), ErrAmbiguousMatch)
			}

			r.logger.Debug("duplicate names, taking oldest",
				slog.String("path", at),
				slog.Int("candidates", len(matches)),
				slog.String("id", matches[0].ID),
			)
		}

		m := matches[0]
		if !m.IsShortcut() {
			current, node = m.ID, &m
			continue
		}

		target, err := r.deref(ctx, &m, at)
		if err != nil {
			return "", nil, err
		}

		if !target.IsFolder() {
			return "", nil, fmt.Errorf("vfs: resolving %q: shortcut target is a %s, not a folder: %w",
				at, target.Kind, ErrNotFound)
		}

		current, node = target.ID, target
	}

	return current, node, nil
}

// deref reads the target of a shortcut. A missing target id or a target
// that is gone or unreadable is ErrTargetUnresolvable; any other failure
// is passed through.
func (r *Resolver) deref(ctx context.Context, sc *graph.Node, at string) (*graph.Node, error) {
	if sc.ShortcutTarget == "" {
		return nil, fmt.Errorf("vfs: shortcut %q has no target: %w", at, ErrTargetUnresolvable)
	}

	target, err := r.store.GetNode(ctx, sc.ShortcutTarget)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied) {
			return nil, fmt.Errorf("vfs: shortcut %q -> %s: %w (%v)", at, sc.ShortcutTarget, ErrTargetUnresolvable, err)
		}

		return nil, fmt.Errorf("vfs: reading shortcut target of %q: %w", at, err)
	}

	if target.Trashed {
		return nil, fmt.Errorf("vfs: shortcut %q -> %s: target is trashed: %w", at, sc.ShortcutTarget, ErrTargetUnresolvable)
	}

	r.logger.Debug("followed shortcut",
		slog.String("path", at),
		slog.String("target", target.ID),
	)

	return target, nil
}
