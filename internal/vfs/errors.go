package vfs

import (
	"errors"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// Errors returned by this package. Store failures keep their graph
// sentinel, so errors.Is(err, vfs.ErrNotFound) and
// errors.Is(err, graph.ErrNotFound) are equivalent.
var (
	ErrNotFound         = graph.ErrNotFound
	ErrPermissionDenied = graph.ErrPermissionDenied
	ErrAuth             = graph.ErrAuth
	ErrTransport        = graph.ErrTransport

	// ErrAmbiguousMatch is returned in strict mode when several nodes share
	// the name being looked up.
	ErrAmbiguousMatch = errors.New("vfs: ambiguous match")

	// ErrTargetUnresolvable is returned for a shortcut whose target is
	// missing or unreadable.
	ErrTargetUnresolvable = errors.New("vfs: shortcut target unresolvable")

	// ErrMissingParent is returned by CreateByPath when the parent folder
	// does not exist and intermediate folder creation is disabled.
	ErrMissingParent = errors.New("vfs: missing parent folder")

	ErrInvalidArgument = errors.New("vfs: invalid argument")
)
