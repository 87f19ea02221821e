package vfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// Export payloads carry the real signature bytes of each format.
var fakeExports = map[string]string{
	graph.MimePDF:            "%PDF-1.7\nfake export",
	graph.MimeSpreadsheetXML: "PK\x03\x04fake xlsx",
	graph.MimePNG:            "\x89PNG\r\n\x1a\nfake png",
}

// memStore is an in-memory Drive graph. Queries are answered with
// graph.Expr.Match over nodes in creation order, the same order Drive's
// createdTime sort produces.
type memStore struct {
	mu      sync.Mutex
	nodes   map[string]*graph.Node
	order   []string
	content map[string][]byte
	clock   time.Time
	nextID  int

	calls   map[string]int
	queries []string

	// Failure injection.
	unreadable   map[string]bool // GetNode -> permission denied
	denyCreateIn map[string]bool // CreateFolder/CreateFile under parent -> permission denied
	queryErr     error
}

func newMemStore() *memStore {
	s := &memStore{
		nodes:        make(map[string]*graph.Node),
		content:      make(map[string][]byte),
		clock:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls:        make(map[string]int),
		unreadable:   make(map[string]bool),
		denyCreateIn: make(map[string]bool),
	}

	s.put(&graph.Node{ID: graph.RootID, Name: "My Drive", Kind: graph.KindFolder, MimeType: graph.MimeFolder})

	return s
}

// --- fixture helpers ---

func (s *memStore) put(n *graph.Node) {
	n.CreatedAt = s.clock
	n.ModifiedAt = s.clock
	s.clock = s.clock.Add(time.Minute)
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
}

func (s *memStore) newID() string {
	s.nextID++
	return fmt.Sprintf("n%d", s.nextID)
}

func (s *memStore) addFolder(name string, parents ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.put(&graph.Node{ID: id, Name: name, Kind: graph.KindFolder, MimeType: graph.MimeFolder, Parents: parents})

	return id
}

func (s *memStore) addFile(name, content string, parents ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.put(&graph.Node{
		ID: id, Name: name, Kind: graph.KindFile, MimeType: graph.MimePlainText,
		Parents: parents, Size: int64(len(content)),
	})
	s.content[id] = []byte(content)

	return id
}

func (s *memStore) addNative(name, mimeType string, parents ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.put(&graph.Node{ID: id, Name: name, Kind: graph.KindFile, MimeType: mimeType, Parents: parents})

	return id
}

func (s *memStore) addShortcut(name, target string, parents ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.put(&graph.Node{
		ID: id, Name: name, Kind: graph.KindShortcut, MimeType: graph.MimeShortcut,
		Parents: parents, ShortcutTarget: target,
	})

	return id
}

func (s *memStore) node(id string) *graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nodes[id]
}

func (s *memStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

func (s *memStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls["CreateFolder"] + s.calls["CreateFile"] + s.calls["UpdateFile"] +
		s.calls["Delete"] + s.calls["Trash"]
}

func (s *memStore) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}

	return total
}

// childrenNamed returns the non-trashed children of parent called name.
func (s *memStore) childrenNamed(parent, name string) []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []graph.Node

	for _, id := range s.order {
		n, ok := s.nodes[id]
		if ok && !n.Trashed && n.Name == name && n.HasParent(parent) {
			out = append(out, *n)
		}
	}

	return out
}

func apiErr(op string, status int, sentinel error, msg string) error {
	return &graph.GraphError{Op: op, StatusCode: status, Message: msg, Err: sentinel}
}

// --- Store implementation ---

func (s *memStore) GetNode(_ context.Context, id string) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["GetNode"]++

	if s.unreadable[id] {
		return nil, apiErr("files.get", http.StatusForbidden, graph.ErrPermissionDenied, "forbidden")
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, apiErr("files.get", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	cp := *n

	return &cp, nil
}

func (s *memStore) Query(_ context.Context, q graph.Expr) ([]graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["Query"]++
	s.queries = append(s.queries, q.String())

	if s.queryErr != nil {
		return nil, s.queryErr
	}

	var out []graph.Node

	for _, id := range s.order {
		n, ok := s.nodes[id]
		if ok && q.Match(n) {
			out = append(out, *n)
		}
	}

	return out, nil
}

func (s *memStore) CreateFolder(_ context.Context, parentID, name string) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["CreateFolder"]++

	if s.denyCreateIn[parentID] {
		return nil, apiErr("files.create", http.StatusForbidden, graph.ErrPermissionDenied, "insufficient permissions")
	}

	if _, ok := s.nodes[parentID]; !ok {
		return nil, apiErr("files.create", http.StatusNotFound, graph.ErrNotFound, "File not found: "+parentID)
	}

	n := &graph.Node{ID: s.newID(), Name: name, Kind: graph.KindFolder, MimeType: graph.MimeFolder, Parents: []string{parentID}}
	s.put(n)
	cp := *n

	return &cp, nil
}

func (s *memStore) CreateFile(_ context.Context, parentID, name string, up graph.Upload) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["CreateFile"]++

	if s.denyCreateIn[parentID] {
		return nil, apiErr("files.create.media", http.StatusForbidden, graph.ErrPermissionDenied, "insufficient permissions")
	}

	data, err := io.ReadAll(up.Content)
	if err != nil {
		return nil, err
	}

	n := &graph.Node{
		ID: s.newID(), Name: name, Kind: graph.KindOf(up.MimeType), MimeType: up.MimeType,
		Parents: []string{parentID}, Size: int64(len(data)),
	}
	s.put(n)
	s.content[n.ID] = data

	if up.Progress != nil {
		up.Progress(int64(len(data)), up.Size)
	}

	cp := *n

	return &cp, nil
}

func (s *memStore) UpdateFile(_ context.Context, id string, upd graph.Update) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["UpdateFile"]++

	n, ok := s.nodes[id]
	if !ok {
		return nil, apiErr("files.update", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	if upd.Name != "" {
		n.Name = upd.Name
	}

	if upd.Content != nil {
		data, err := io.ReadAll(upd.Content.Content)
		if err != nil {
			return nil, err
		}

		s.content[id] = data
		n.Size = int64(len(data))
		n.MimeType = upd.Content.MimeType
	}

	s.clock = s.clock.Add(time.Minute)
	n.ModifiedAt = s.clock
	cp := *n

	return &cp, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["Delete"]++

	if _, ok := s.nodes[id]; !ok {
		return apiErr("files.delete", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	delete(s.nodes, id)
	delete(s.content, id)

	return nil
}

func (s *memStore) Trash(_ context.Context, id string) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["Trash"]++

	n, ok := s.nodes[id]
	if !ok {
		return nil, apiErr("files.update", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	n.Trashed = true
	cp := *n

	return &cp, nil
}

func (s *memStore) Download(_ context.Context, id string, w io.Writer, progress graph.ProgressFunc) (int64, error) {
	s.mu.Lock()
	data, ok := s.content[id]
	s.calls["Download"]++
	s.mu.Unlock()

	if !ok {
		return 0, apiErr("files.get.media", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	n, err := w.Write(data)
	if progress != nil {
		progress(int64(n), int64(len(data)))
	}

	return int64(n), err
}

func (s *memStore) Export(_ context.Context, id, mimeType string, w io.Writer, progress graph.ProgressFunc) (int64, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	s.calls["Export"]++
	s.mu.Unlock()

	if !ok {
		return 0, apiErr("files.export", http.StatusNotFound, graph.ErrNotFound, "File not found: "+id)
	}

	if !strings.HasPrefix(n.MimeType, graph.MimeNativePrefix) {
		return 0, apiErr("files.export", http.StatusBadRequest, graph.ErrTransport, "Export only supports Docs Editors files.")
	}

	payload, ok := fakeExports[mimeType]
	if !ok {
		return 0, apiErr("files.export", http.StatusBadRequest, graph.ErrTransport, "unsupported export type")
	}

	written, err := io.WriteString(w, payload)
	if progress != nil {
		progress(int64(written), int64(len(payload)))
	}

	return int64(written), err
}
