package vfs

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// Enumerator lists folder contents. It keeps no state between calls.
type Enumerator struct {
	store  Store
	logger *slog.Logger
}

func NewEnumerator(store Store, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Enumerator{store: store, logger: logger}
}

// All yields the children of folderID, or with recursive set, every node
// below it in breadth-first order. Each folder is queried at most once and
// each node is yielded at most once, even when it has several parents.
// Shortcuts are yielded as leaves and never followed, so a shortcut back to
// an ancestor cannot loop. Stopping the iteration stops further queries.
// A query failure is yielded as the final element.
func (e *Enumerator) All(ctx context.Context, folderID string, recursive bool) iter.Seq2[graph.Node, error] {
	return func(yield func(graph.Node, error) bool) {
		frontier := []string{folderID}
		visited := make(map[string]bool)
		emitted := make(map[string]bool)
		queries := 0

		for len(frontier) > 0 {
			id := frontier[0]
			frontier = frontier[1:]

			if visited[id] {
				continue
			}

			visited[id] = true

			children, err := e.store.Query(ctx, childrenOf(id))
			queries++

			if err != nil {
				yield(graph.Node{}, fmt.Errorf("vfs: listing folder %s: %w", id, err))
				return
			}

			for _, child := range children {
				if emitted[child.ID] {
					continue
				}

				emitted[child.ID] = true

				if !yield(child, nil) {
					e.logger.Debug("enumeration stopped early", slog.Int("queries", queries))
					return
				}

				if recursive && child.IsFolder() {
					frontier = append(frontier, child.ID)
				}
			}
		}

		e.logger.Debug("enumeration complete",
			slog.String("folder", folderID),
			slog.Bool("recursive", recursive),
			slog.Int("queries", queries),
			slog.Int("nodes", len(emitted)),
		)
	}
}

// List collects All into a slice.
func (e *Enumerator) List(ctx context.Context, folderID string, recursive bool) ([]graph.Node, error) {
	var nodes []graph.Node

	for n, err := range e.All(ctx, folderID, recursive) {
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}
