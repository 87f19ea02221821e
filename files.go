package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/gdrive-go/internal/graph"
	"github.com/tonimelisma/gdrive-go/internal/vfs"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().BoolP("recursive", "r", false, "list every node below the folder")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Write a file's content to stdout (native documents are exported)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCat,
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "Download files into a local directory",
		Long: `Download one or more files. Google Docs, Sheets, Slides, and Drawings
are exported (PDF, XLSX, PDF, and PNG) and saved with the matching extension.
Downloads run concurrently, up to transfers.parallel_downloads at a time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGet,
	}

	cmd.Flags().StringP("output", "o", ".", "local directory to save into")

	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> [remote-path]",
		Short: "Upload a file",
		Long: `Upload a local file. Drive allows several files with the same name in
one folder, so put adds a new file even when one already exists unless
--replace is given, in which case the existing file's content is replaced.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPut,
	}

	cmd.Flags().BoolP("parents", "p", false, "create missing parent folders")
	cmd.Flags().Bool("replace", false, "replace the content of an existing file at remote-path")
	cmd.Flags().String("mime", "", "MIME type to store (default: inferred from the name)")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Long: `Delete a file or folder. Deletion is permanent unless --trash is given or
drive.use_trash is set. Folder deletion includes all contents and
requires --recursive (-r).`,
		Args: cobra.ExactArgs(1),
		RunE: runRm,
	}

	cmd.Flags().BoolP("recursive", "r", false, "confirm recursive folder deletion")
	cmd.Flags().Bool("trash", false, "move to the trash instead of deleting permanently")
	cmd.Flags().Bool("id", false, "treat the argument as a Drive id instead of a path")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	remotePath := "/"
	if len(args) > 0 {
		remotePath = args[0]
	}

	recursive, _ := cmd.Flags().GetBool("recursive")

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	nodes, err := s.FS.ListByPath(ctx, remotePath, recursive)
	if err != nil {
		return err
	}

	cc.Logger.Debug("ls", "path", remotePath, "recursive", recursive, "count", len(nodes))

	if cc.Flags.JSON {
		out := make([]nodeJSON, 0, len(nodes))
		for i := range nodes {
			out = append(out, toNodeJSON(&nodes[i]))
		}

		return writeJSON(cc.Stdout, out)
	}

	printNodesTable(cc.Stdout, nodes, recursive)

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	node, err := s.FS.FindByPath(ctx, args[0])
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, toNodeJSON(node))
	}

	printStat(cc.Stdout, node)

	return nil
}

func runCat(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	_, err = s.FS.ReadByPathTo(ctx, args[0], cc.Stdout, vfs.ReadOptions{})

	return err
}

func runGet(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	outDir, _ := cmd.Flags().GetString("output")

	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return fmt.Errorf("output directory %q does not exist", outDir)
	}

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cc.Cfg.Transfers.ParallelDownloads)

	var total atomic.Int64

	claims := &localClaims{byPath: make(map[string]string)}

	for _, remotePath := range args {
		g.Go(func() error {
			n, err := downloadOne(gctx, cc, s.FS, claims, remotePath, outDir)
			if err != nil {
				return err
			}

			total.Add(n)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if len(args) > 1 {
		cc.Statusf("Downloaded %d files (%s)\n", len(args), formatSize(total.Load()))
	}

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	localPath := args[0]

	fi, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local file: %w", err)
	}

	if fi.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", localPath)
	}

	remotePath := "/" + filepath.Base(localPath)
	if len(args) > 1 {
		remotePath = args[1]
	}

	parents, _ := cmd.Flags().GetBool("parents")
	replace, _ := cmd.Flags().GetBool("replace")
	mimeType, _ := cmd.Flags().GetString("mime")

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	progress := newProgressPrinter(cc, remotePath)
	content := vfs.LocalFile(localPath)

	var node *graph.Node

	if replace {
		node, err = s.FS.UpdateByPath(ctx, remotePath, content, vfs.UpdateOptions{
			MimeType: mimeType,
			Progress: progress,
		})
		if err != nil && !errors.Is(err, vfs.ErrNotFound) {
			return err
		}
	}

	if node == nil {
		node, err = s.FS.CreateByPath(ctx, remotePath, content, vfs.CreateOptions{
			MimeType:                  mimeType,
			CreateIntermediateFolders: parents,
			Progress:                  progress,
		})
		if errors.Is(err, vfs.ErrMissingParent) {
			return fmt.Errorf("%w (use --parents to create it)", err)
		}

		if err != nil {
			return err
		}
	}

	cc.Logger.Debug("put complete", "remote_path", remotePath, "id", node.ID, "mime", node.MimeType)

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, toNodeJSON(node))
	}

	cc.Statusf("Uploaded %s (%s)\n", remotePath, formatSize(fi.Size()))

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	node, err := s.FS.Mkdir(ctx, args[0])
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, toNodeJSON(node))
	}

	cc.Statusf("Created %s\n", args[0])

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	recursive, _ := cmd.Flags().GetBool("recursive")
	byID, _ := cmd.Flags().GetBool("id")

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	target := args[0]
	verb := "Deleted"

	if cc.Cfg.Drive.UseTrash {
		verb = "Trashed"
	}

	switch {
	case byID:
		err = s.FS.DeleteByID(ctx, target)
	case recursive:
		err = s.FS.DeleteByPath(ctx, target)
	default:
		var node *graph.Node

		node, err = s.FS.FindByPath(ctx, target)
		if err != nil {
			return err
		}

		if node.IsFolder() {
			return fmt.Errorf("cannot delete folder %q without --recursive (-r)", target)
		}

		err = s.FS.DeleteByID(ctx, node.ID)
	}

	if err != nil {
		return err
	}

	cc.Statusf("%s %s\n", verb, target)

	return nil
}

// localClaims records which remote path each local file of one get
// invocation belongs to.
type localClaims struct {
	mu     sync.Mutex
	byPath map[string]string
}

// claim reserves localPath for remotePath. Two remote paths that would
// overwrite each other are an error.
func (c *localClaims) claim(localPath, remotePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.byPath[localPath]; ok {
		return fmt.Errorf("%q and %q would both be saved as %s", prev, remotePath, localPath)
	}

	c.byPath[localPath] = remotePath

	return nil
}

// downloadOne saves remotePath into outDir through a private .partial file
// that is renamed into place on success, and returns the bytes written.
func downloadOne(
	ctx context.Context, cc *CLIContext, fsys *vfs.FS, claims *localClaims, remotePath, outDir string,
) (int64, error) {
	node, err := fsys.FindByPath(ctx, remotePath)
	if err != nil {
		return 0, err
	}

	name := localName(node)
	localPath := filepath.Join(outDir, name)

	if err := claims.claim(localPath, remotePath); err != nil {
		return 0, err
	}

	f, err := os.CreateTemp(outDir, name+".*.partial")
	if err != nil {
		return 0, fmt.Errorf("creating partial download for %s: %w", localPath, err)
	}

	partial := f.Name()

	n, err := fsys.ReadByPathTo(ctx, remotePath, f, vfs.ReadOptions{
		Progress: newProgressPrinter(cc, remotePath),
	})

	// CreateTemp opens 0600; saved files get the usual 0644.
	if err == nil {
		err = f.Chmod(0o644)
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(partial)
		return 0, err
	}

	if err := os.Rename(partial, localPath); err != nil {
		return 0, fmt.Errorf("renaming download to %q: %w", localPath, err)
	}

	cc.Logger.Debug("download complete", "remote_path", remotePath, "local_path", localPath, "bytes", n)
	cc.Statusf("Downloaded %s (%s)\n", localPath, formatSize(n))

	return n, nil
}

// exportExtensions names the file extension of each export format.
var exportExtensions = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"image/png": ".png",
}

// localName is the file name a downloaded node is saved under. Native
// documents, and shortcuts to them, get the extension of the format they
// are exported to.
func localName(n *graph.Node) string {
	name := filepath.Base(filepath.Clean("/" + n.Name))
	if name == "/" || name == "." {
		name = n.ID
	}

	mime, native := n.MimeType, n.IsNative()
	if n.IsShortcut() {
		mime = n.ShortcutTargetMime
		native = strings.HasPrefix(mime, graph.MimeNativePrefix) && mime != graph.MimeFolder
	}

	if native {
		if ext := exportExtensions[vfs.ExportMimeType(mime)]; filepath.Ext(name) != ext {
			name += ext
		}
	}

	return name
}

// nodeJSON is the JSON output schema for a node.
type nodeJSON struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	MimeType       string   `json:"mime_type"`
	Size           int64    `json:"size"`
	Parents        []string `json:"parents,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
	ModifiedAt     string   `json:"modified_at,omitempty"`
	ShortcutTarget string   `json:"shortcut_target,omitempty"`
	WebViewLink    string   `json:"web_view_link,omitempty"`
}

func toNodeJSON(n *graph.Node) nodeJSON {
	return nodeJSON{
		ID:             n.ID,
		Name:           n.Name,
		Kind:           n.Kind.String(),
		MimeType:       n.MimeType,
		Size:           n.Size,
		Parents:        n.Parents,
		CreatedAt:      formatRFC3339(n.CreatedAt),
		ModifiedAt:     formatRFC3339(n.ModifiedAt),
		ShortcutTarget: n.ShortcutTarget,
		WebViewLink:    n.WebViewLink,
	}
}

func formatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

// sortNodes orders folders first, then by name.
func sortNodes(nodes []graph.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsFolder() != nodes[j].IsFolder() {
			return nodes[i].IsFolder()
		}

		return nodes[i].Name < nodes[j].Name
	})
}
