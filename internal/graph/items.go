package graph

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
)

// Field masks. Drive returns only id, name, and mimeType unless asked.
const (
	nodeFields  = "id,name,mimeType,parents,size,createdTime,modifiedTime,shortcutDetails(targetId,targetMimeType),trashed,sharedWithMeTime,webViewLink"
	listFields  = "nextPageToken,files(" + nodeFields + ")"
	aboutFields = "user(displayName,emailAddress),storageQuota(limit,usage)"

	// listPageSize is the largest page files.list accepts.
	listPageSize = 1000

	// queryOrder makes the oldest match come first, so duplicate names
	// resolve deterministically.
	queryOrder = "createdTime"
)

// GetNode reads the metadata of a single node by id.
func (c *Client) GetNode(ctx context.Context, id string) (_ *Node, err error) {
	ctx, done := c.begin(ctx, "files.get", attribute.String("drive.id", id))
	defer done(&err)

	f, err := c.svc.Files.Get(id).
		SupportsAllDrives(true).
		Fields(nodeFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	n := c.toNode(f)

	return &n, nil
}

// Query lists every node matching q, oldest first, following
// nextPageToken until the result set is exhausted.
func (c *Client) Query(ctx context.Context, q Expr) (_ []Node, err error) {
	qs := q.String()

	ctx, done := c.begin(ctx, "files.list", attribute.String("drive.query", qs))
	defer done(&err)

	var nodes []Node

	pages := 0
	err = c.svc.Files.List().
		Q(qs).
		OrderBy(queryOrder).
		PageSize(listPageSize).
		Fields(listFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(list *drive.FileList) error {
			pages++

			for _, f := range list.Files {
				nodes = append(nodes, c.toNode(f))
			}

			return nil
		})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("query complete",
		slog.String("query", qs),
		slog.Int("pages", pages),
		slog.Int("count", len(nodes)),
	)

	return nodes, nil
}

// CreateFolder creates a folder named name under parentID. Drive allows
// duplicate names, so this never fails because a sibling already exists.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (_ *Node, err error) {
	ctx, done := c.begin(ctx, "files.create", attribute.String("drive.parent", parentID))
	defer done(&err)

	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: MimeFolder,
		Parents:  []string{parentID},
	}).
		SupportsAllDrives(true).
		Fields(nodeFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	n := c.toNode(f)

	c.logger.Debug("created folder",
		slog.String("parent", parentID),
		slog.String("name", name),
		slog.String("id", n.ID),
	)

	return &n, nil
}

// Delete permanently removes a node, skipping the trash.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	ctx, done := c.begin(ctx, "files.delete", attribute.String("drive.id", id))
	defer done(&err)

	return c.svc.Files.Delete(id).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// Trash moves a node to the trash.
func (c *Client) Trash(ctx context.Context, id string) (_ *Node, err error) {
	ctx, done := c.begin(ctx, "files.update", attribute.String("drive.id", id))
	defer done(&err)

	f, err := c.svc.Files.Update(id, &drive.File{Trashed: true}).
		SupportsAllDrives(true).
		Fields(nodeFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	n := c.toNode(f)

	return &n, nil
}

// About returns the authenticated account.
func (c *Client) About(ctx context.Context) (_ *Account, err error) {
	ctx, done := c.begin(ctx, "about.get")
	defer done(&err)

	a, err := c.svc.About.Get().Fields(aboutFields).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	acct := &Account{}
	if a.User != nil {
		acct.DisplayName = a.User.DisplayName
		acct.Email = a.User.EmailAddress
	}

	if a.StorageQuota != nil {
		acct.QuotaUsed = a.StorageQuota.Usage
		acct.QuotaLimit = a.StorageQuota.Limit
	}

	return acct, nil
}

// toNode converts an API file into a Node. Unparseable timestamps are
// logged and left zero rather than failing the call.
func (c *Client) toNode(f *drive.File) Node {
	n := Node{
		ID:           f.Id,
		Name:         f.Name,
		Kind:         KindOf(f.MimeType),
		MimeType:     f.MimeType,
		Parents:      f.Parents,
		Size:         f.Size,
		Trashed:      f.Trashed,
		SharedWithMe: f.SharedWithMeTime != "",
		WebViewLink:  f.WebViewLink,
		CreatedAt:    c.parseTime(f.Id, "createdTime", f.CreatedTime),
		ModifiedAt:   c.parseTime(f.Id, "modifiedTime", f.ModifiedTime),
	}

	if f.ShortcutDetails != nil {
		n.ShortcutTarget = f.ShortcutDetails.TargetId
		n.ShortcutTargetMime = f.ShortcutDetails.TargetMimeType
	}

	return n
}

func (c *Client) parseTime(id, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.logger.Warn("unparseable timestamp",
			slog.String("id", id),
			slog.String("field", field),
			slog.String("value", raw),
		)

		return time.Time{}
	}

	return t
}
