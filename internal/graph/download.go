package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// Download streams the raw content of a non-native file into w and
// returns the number of bytes written. Native documents have no raw form;
// use Export for them.
func (c *Client) Download(ctx context.Context, id string, w io.Writer, progress ProgressFunc) (_ int64, err error) {
	ctx, done := c.begin(ctx, "files.get.media", attribute.String("drive.id", id))
	defer done(&err)

	resp, err := c.svc.Files.Get(id).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := copyWithProgress(w, resp.Body, resp.ContentLength, progress)
	if err != nil {
		return n, fmt.Errorf("reading content of %s: %w", id, err)
	}

	c.logger.Debug("downloaded content", slog.String("id", id), slog.Int64("bytes", n))

	return n, nil
}

// Export converts a native document to mimeType and streams the result
// into w. Drive caps export size at 10 MB.
func (c *Client) Export(ctx context.Context, id, mimeType string, w io.Writer, progress ProgressFunc) (_ int64, err error) {
	ctx, done := c.begin(ctx, "files.export",
		attribute.String("drive.id", id),
		attribute.String("drive.export_mime", mimeType),
	)
	defer done(&err)

	resp, err := c.svc.Files.Export(id, mimeType).Context(ctx).Download()
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := copyWithProgress(w, resp.Body, resp.ContentLength, progress)
	if err != nil {
		return n, fmt.Errorf("reading export of %s: %w", id, err)
	}

	c.logger.Debug("exported document",
		slog.String("id", id),
		slog.String("mime", mimeType),
		slog.Int64("bytes", n),
	)

	return n, nil
}
