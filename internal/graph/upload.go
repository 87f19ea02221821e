package graph

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Upload describes file content sent to CreateFile or UpdateFile.
type Upload struct {
	Content  io.Reader
	Size     int64 // -1 when unknown
	MimeType string
	Progress ProgressFunc
}

// Update is a partial modification of an existing file. Zero fields are
// left unchanged.
type Update struct {
	Name    string
	Content *Upload
}

// CreateFile uploads a new file named name under parentID. Content that
// fits in one chunk goes up in a single request; anything larger uses a
// resumable session with one request per chunk.
func (c *Client) CreateFile(ctx context.Context, parentID, name string, up Upload) (_ *Node, err error) {
	ctx, done := c.begin(ctx, "files.create.media",
		attribute.String("drive.parent", parentID),
		attribute.Int64("drive.size", up.Size),
	)
	defer done(&err)

	call := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: up.MimeType,
		Parents:  []string{parentID},
	}).
		SupportsAllDrives(true).
		Fields(nodeFields).
		Context(ctx)

	call.Media(up.Content, c.mediaOptions(up)...)

	var prog *uploadProgress
	if up.Progress != nil {
		prog = &uploadProgress{fn: up.Progress, total: up.Size}
		call.ProgressUpdater(prog.update)
	}

	f, err := call.Do()
	if err != nil {
		return nil, err
	}

	if prog != nil {
		prog.finish()
	}

	n := c.toNode(f)

	c.logger.Debug("uploaded file",
		slog.String("parent", parentID),
		slog.String("name", name),
		slog.String("id", n.ID),
		slog.Int64("size", n.Size),
	)

	return &n, nil
}

// UpdateFile renames a file, replaces its content, or both.
func (c *Client) UpdateFile(ctx context.Context, id string, upd Update) (_ *Node, err error) {
	ctx, done := c.begin(ctx, "files.update", attribute.String("drive.id", id))
	defer done(&err)

	call := c.svc.Files.Update(id, &drive.File{Name: upd.Name}).
		SupportsAllDrives(true).
		Fields(nodeFields).
		Context(ctx)

	var prog *uploadProgress
	if upd.Content != nil {
		call.Media(upd.Content.Content, c.mediaOptions(*upd.Content)...)

		if upd.Content.Progress != nil {
			prog = &uploadProgress{fn: upd.Content.Progress, total: upd.Content.Size}
			call.ProgressUpdater(prog.update)
		}
	}

	f, err := call.Do()
	if err != nil {
		return nil, err
	}

	if prog != nil {
		prog.finish()
	}

	n := c.toNode(f)

	c.logger.Debug("updated file",
		slog.String("id", id),
		slog.Bool("renamed", upd.Name != ""),
		slog.Bool("content", upd.Content != nil),
	)

	return &n, nil
}

func (c *Client) mediaOptions(up Upload) []googleapi.MediaOption {
	opts := []googleapi.MediaOption{googleapi.ChunkSize(c.chunkSize)}
	if up.MimeType != "" {
		opts = append(opts, googleapi.ContentType(up.MimeType))
	}

	return opts
}
