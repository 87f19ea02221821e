package vfs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

func newTestFS(s *memStore) *FS {
	return New(s, Options{})
}

func TestCreateByPath_CreatesIntermediateFolders(t *testing.T) {
	s := newMemStore()
	reports := s.addFolder("Reports", graph.RootID)
	fsys := newTestFS(s)
	ctx := context.Background()

	node, err := fsys.CreateByPath(ctx, "Reports/2024/summary.txt", Text("Q4 numbers"), CreateOptions{
		CreateIntermediateFolders: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.count("CreateFolder"), "exactly one new folder")
	assert.Equal(t, 1, s.count("CreateFile"), "exactly one new file")

	y2024 := s.childrenNamed(reports, "2024")
	require.Len(t, y2024, 1)
	assert.True(t, y2024[0].IsFolder())
	assert.Equal(t, []string{y2024[0].ID}, node.Parents)
	assert.Equal(t, "summary.txt", node.Name)
	assert.Equal(t, graph.MimePlainText, node.MimeType)

	id, err := fsys.Resolver().Resolve(ctx, "Reports/2024", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, y2024[0].ID, id)
}

func TestCreateByPath_MissingParent(t *testing.T) {
	s := newMemStore()
	s.addFolder("a", graph.RootID)

	_, err := newTestFS(s).CreateByPath(context.Background(), "a/b/c.txt", Text("x"), CreateOptions{})
	require.ErrorIs(t, err, ErrMissingParent)
	assert.Zero(t, s.mutations(), "nothing created")
}

func TestCreateByPath_NilContent(t *testing.T) {
	s := newMemStore()

	_, err := newTestFS(s).CreateByPath(context.Background(), "x.txt", nil, CreateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, s.totalCalls(), "rejected before any store call")
}

func TestCreateByPath_MissingLocalFile(t *testing.T) {
	s := newMemStore()

	_, err := newTestFS(s).CreateByPath(context.Background(), "x.txt",
		LocalFile(filepath.Join(t.TempDir(), "absent")), CreateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, s.totalCalls())
}

func TestCreateByPath_RootPath(t *testing.T) {
	s := newMemStore()

	_, err := newTestFS(s).CreateByPath(context.Background(), "/", Text("x"), CreateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, s.totalCalls())
}

func TestCreateByPath_LocalFile(t *testing.T) {
	s := newMemStore()
	src := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"k":1}`), 0o600))

	var last [2]int64

	node, err := newTestFS(s).CreateByPath(context.Background(), "upload", LocalFile(src), CreateOptions{
		Progress: func(done, total int64) { last = [2]int64{done, total} },
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", node.MimeType, "local file extension used when the leaf has none")
	assert.Equal(t, int64(7), node.Size)
	assert.Equal(t, [2]int64{7, 7}, last)
	assert.Equal(t, []byte(`{"k":1}`), s.content[node.ID])
}

func TestCreateByPath_MimeInference(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  Content
		explicit string
		want     string
	}{
		{"explicit wins", "a.txt", Text("x"), "text/markdown", "text/markdown"},
		{"leaf extension", "table.csv", Bytes([]byte("a,b")), "", "text/csv"},
		{"text default", "README", Text("hi"), "", graph.MimePlainText},
		{"bytes default", "blob", Bytes([]byte{0}), "", graph.MimeOctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()

			node, err := newTestFS(s).CreateByPath(context.Background(), tt.path, tt.content, CreateOptions{MimeType: tt.explicit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.MimeType)
		})
	}
}

func TestCreateByPath_DuplicateNameAddsSibling(t *testing.T) {
	s := newMemStore()
	fsys := newTestFS(s)
	ctx := context.Background()

	first, err := fsys.CreateByPath(ctx, "same.txt", Text("1"), CreateOptions{})
	require.NoError(t, err)

	second, err := fsys.CreateByPath(ctx, "same.txt", Text("2"), CreateOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, s.childrenNamed(graph.RootID, "same.txt"), 2)

	found, err := fsys.FindByPath(ctx, "same.txt")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID, "oldest wins")
}

func TestFindByPath_ThroughShortcut(t *testing.T) {
	s := newMemStore()
	shared := s.addFolder("Shared", graph.RootID)
	x := s.addFolder("X", graph.RootID)
	file := s.addFile("file.txt", "hello", x)
	s.addShortcut("LinkToX", x, shared)

	node, err := newTestFS(s).FindByPath(context.Background(), "Shared/LinkToX/file.txt")
	require.NoError(t, err)
	assert.Equal(t, file, node.ID)
}

func TestFindByPath_NotFound(t *testing.T) {
	s := newMemStore()
	s.addFolder("A", graph.RootID)

	_, err := newTestFS(s).FindByPath(context.Background(), "A/absent.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = newTestFS(s).FindByPath(context.Background(), "absent/absent.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByPath_ReturnsShortcutItself(t *testing.T) {
	s := newMemStore()
	f := s.addFile("real.txt", "x", graph.RootID)
	sc := s.addShortcut("alias.txt", f, graph.RootID)

	node, err := newTestFS(s).FindByPath(context.Background(), "alias.txt")
	require.NoError(t, err)
	assert.Equal(t, sc, node.ID)
	assert.True(t, node.IsShortcut())
}

func TestFindByPath_Strict(t *testing.T) {
	s := newMemStore()
	s.addFile("dup.txt", "1", graph.RootID)
	s.addFile("dup.txt", "2", graph.RootID)

	_, err := New(s, Options{StrictNames: true}).FindByPath(context.Background(), "dup.txt")
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestFindByPath_Root(t *testing.T) {
	s := newMemStore()

	node, err := newTestFS(s).FindByPath(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, graph.RootID, node.ID)
}

func TestReadByPath_RawContent(t *testing.T) {
	s := newMemStore()
	docs := s.addFolder("Docs", graph.RootID)
	s.addFile("notes.txt", "plain bytes", docs)

	var calls int

	data, err := newTestFS(s).ReadByPath(context.Background(), "Docs/notes.txt", ReadOptions{
		Progress: func(_, _ int64) { calls++ },
	})
	require.NoError(t, err)
	assert.Equal(t, "plain bytes", string(data))
	assert.Positive(t, calls)
	assert.Zero(t, s.count("Export"))
}

func TestReadByPath_NativeExports(t *testing.T) {
	tests := []struct {
		kind   string
		prefix []byte
	}{
		{graph.MimePresentation, []byte("%PDF")},
		{graph.MimeDocument, []byte("%PDF")},
		{graph.MimeSpreadsheet, []byte("PK\x03\x04")},
		{graph.MimeDrawing, []byte("\x89PNG\r\n\x1a\n")},
		{"application/vnd.google-apps.jam", []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			s := newMemStore()
			s.addNative("Deck", tt.kind, graph.RootID)

			data, err := newTestFS(s).ReadByPath(context.Background(), "Deck", ReadOptions{})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, tt.prefix), "got %q", data[:min(len(data), 8)])
			assert.Equal(t, 1, s.count("Export"))
			assert.Zero(t, s.count("Download"))
		})
	}
}

func TestReadByPathTo_Streams(t *testing.T) {
	s := newMemStore()
	s.addFile("big.bin", "0123456789", graph.RootID)

	var buf bytes.Buffer

	n, err := newTestFS(s).ReadByPathTo(context.Background(), "big.bin", &buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", buf.String())
}

func TestReadByPath_LeafShortcut(t *testing.T) {
	s := newMemStore()
	f := s.addFile("real.txt", "through the link", graph.RootID)
	s.addShortcut("alias", f, graph.RootID)
	s.addShortcut("dangling", "deleted-id", graph.RootID)

	fsys := newTestFS(s)

	data, err := fsys.ReadByPath(context.Background(), "alias", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "through the link", string(data))

	_, err = fsys.ReadByPath(context.Background(), "dangling", ReadOptions{})
	assert.ErrorIs(t, err, ErrTargetUnresolvable)
}

func TestReadByPath_FolderIsInvalid(t *testing.T) {
	s := newMemStore()
	s.addFolder("Dir", graph.RootID)

	_, err := newTestFS(s).ReadByPath(context.Background(), "Dir", ReadOptions{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateByPath_ContentAndRename(t *testing.T) {
	s := newMemStore()
	id := s.addFile("draft.txt", "v1", graph.RootID)
	fsys := newTestFS(s)
	ctx := context.Background()

	node, err := fsys.UpdateByPath(ctx, "draft.txt", Text("version two"), UpdateOptions{NewName: "final.md"})
	require.NoError(t, err)

	assert.Equal(t, id, node.ID, "identity preserved")
	assert.Equal(t, "final.md", node.Name)
	assert.Equal(t, "text/markdown", node.MimeType)

	data, err := fsys.ReadByPath(ctx, "final.md", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "version two", string(data))

	_, err = fsys.FindByPath(ctx, "draft.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateByPath_RenameOnly(t *testing.T) {
	s := newMemStore()
	id := s.addFolder("Old", graph.RootID)

	node, err := newTestFS(s).UpdateByPath(context.Background(), "Old", nil, UpdateOptions{NewName: "New"})
	require.NoError(t, err)
	assert.Equal(t, id, node.ID)
	assert.Equal(t, "New", node.Name)
}

func TestUpdateByPath_Invalid(t *testing.T) {
	s := newMemStore()
	s.addFolder("Dir", graph.RootID)
	s.addNative("Sheet", graph.MimeSpreadsheet, graph.RootID)
	s.addFile("f.txt", "x", graph.RootID)

	fsys := newTestFS(s)
	ctx := context.Background()

	_, err := fsys.UpdateByPath(ctx, "f.txt", nil, UpdateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument, "nothing to change")

	_, err = fsys.UpdateByPath(ctx, "f.txt", nil, UpdateOptions{NewName: "a/b"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fsys.UpdateByPath(ctx, "Dir", Text("x"), UpdateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fsys.UpdateByPath(ctx, "Sheet", Text("x"), UpdateOptions{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, s.mutations())
}

func TestDeleteByPath_Absent(t *testing.T) {
	s := newMemStore()
	s.addFile("keep.txt", "x", graph.RootID)

	err := newTestFS(s).DeleteByPath(context.Background(), "nonexistent/path")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.mutations())
}

func TestLeafLookup_IgnoresSharedItemsOutsideRoot(t *testing.T) {
	s := newMemStore()
	stray := s.addFile("notes.txt", "theirs", "someone-elses-folder")
	s.node(stray).SharedWithMe = true
	fsys := New(s, Options{SearchSharedRoots: true})
	ctx := context.Background()

	_, err := fsys.FindByPath(ctx, "notes.txt")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = fsys.UpdateByPath(ctx, "notes.txt", Text("mine"), UpdateOptions{})
	require.ErrorIs(t, err, ErrNotFound)

	err = fsys.DeleteByPath(ctx, "notes.txt")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, s.mutations())
	assert.NotNil(t, s.node(stray))
}

func TestDeleteByPath_ThenRepeatByID(t *testing.T) {
	s := newMemStore()
	a := s.addFolder("A", graph.RootID)
	id := s.addFile("x.txt", "x", a)
	fsys := newTestFS(s)
	ctx := context.Background()

	require.NoError(t, fsys.DeleteByPath(ctx, "A/x.txt"))
	assert.Nil(t, s.node(id))

	err := fsys.DeleteByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound, "repeat delete surfaces the store's not found")

	err = fsys.DeleteByPath(ctx, "A/x.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_RootRefused(t *testing.T) {
	s := newMemStore()
	fsys := newTestFS(s)
	ctx := context.Background()

	require.ErrorIs(t, fsys.DeleteByPath(ctx, "/"), ErrInvalidArgument)
	require.ErrorIs(t, fsys.DeleteByID(ctx, graph.RootID), ErrInvalidArgument)
	require.ErrorIs(t, fsys.DeleteByID(ctx, ""), ErrInvalidArgument)
	assert.Zero(t, s.totalCalls())
}

func TestDelete_UseTrash(t *testing.T) {
	s := newMemStore()
	id := s.addFile("old.txt", "x", graph.RootID)
	fsys := New(s, Options{UseTrash: true})
	ctx := context.Background()

	require.NoError(t, fsys.DeleteByPath(ctx, "old.txt"))

	require.NotNil(t, s.node(id))
	assert.True(t, s.node(id).Trashed)
	assert.Zero(t, s.count("Delete"))

	_, err := fsys.FindByPath(ctx, "old.txt")
	assert.ErrorIs(t, err, ErrNotFound, "trashed nodes are invisible")
}

func TestListByPath(t *testing.T) {
	s := newMemStore()
	projects := s.addFolder("Projects", graph.RootID)
	top, want := cyclicTree(s)
	s.node(top).Parents = []string{projects}

	fsys := newTestFS(s)
	ctx := context.Background()

	flat, err := fsys.ListByPath(ctx, "Projects/Top", false)
	require.NoError(t, err)
	assert.Len(t, flat, 2)

	all, err := fsys.ListByPath(ctx, "Projects/Top", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids(all))

	_, err = fsys.ListByPath(ctx, "Projects/Nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByPath_Root(t *testing.T) {
	s := newMemStore()
	a := s.addFolder("A", graph.RootID)
	f := s.addFile("f", "", graph.RootID)

	nodes, err := newTestFS(s).ListByPath(context.Background(), "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{a, f}, ids(nodes))
}

func TestMkdir(t *testing.T) {
	s := newMemStore()
	fsys := newTestFS(s)
	ctx := context.Background()

	node, err := fsys.Mkdir(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "c", node.Name)
	assert.True(t, node.IsFolder())
	assert.Equal(t, 3, s.count("CreateFolder"))

	again, err := fsys.Mkdir(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, node.ID, again.ID)
	assert.Equal(t, 3, s.count("CreateFolder"))
}

func TestCustomRoot(t *testing.T) {
	s := newMemStore()
	base := s.addFolder("Base", graph.RootID)
	fsys := New(s, Options{RootID: base})
	ctx := context.Background()

	node, err := fsys.CreateByPath(ctx, "note.txt", Text("x"), CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{base}, node.Parents)

	require.ErrorIs(t, fsys.DeleteByID(ctx, base), ErrInvalidArgument)
}
