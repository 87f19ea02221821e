package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/graph"
	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

// fakeFile is a Drive v3 file resource as the fake server returns it.
type fakeFile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	Parents      []string `json:"parents,omitempty"`
	Size         string   `json:"size,omitempty"`
	CreatedTime  string   `json:"createdTime,omitempty"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`

	content string
}

var (
	reName   = regexp.MustCompile(`name = '([^']*)'`)
	reParent = regexp.MustCompile(`'([^']*)' in parents`)
)

// fakeDrive serves just enough of the Drive v3 REST API for the CLI:
// files.list filtered by name, parent, and container type; files.get with
// and without alt=media; files.delete; and about.get.
type fakeDrive struct {
	mu      sync.Mutex
	files   []*fakeFile
	deleted []string
}

func (d *fakeDrive) add(id, name, mimeType, parent, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.files = append(d.files, &fakeFile{
		ID: id, Name: name, MimeType: mimeType, Parents: []string{parent},
		Size:         fmt.Sprint(len(content)),
		CreatedTime:  "2024-01-01T00:00:00.000Z",
		ModifiedTime: "2024-01-02T00:00:00.000Z",
		content:      content,
	})
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/drive/v3/")

	switch {
	case path == "about":
		fmt.Fprint(w, `{"user":{"displayName":"Test User","emailAddress":"test@example.com"},`+
			`"storageQuota":{"usage":"1024","limit":"2048"}}`)
	case path == "files" && r.Method == http.MethodGet:
		d.list(w, r.URL.Query().Get("q"))
	case strings.HasPrefix(path, "files/"):
		d.file(w, r, strings.TrimPrefix(path, "files/"))
	default:
		http.NotFound(w, r)
	}
}

func (d *fakeDrive) list(w http.ResponseWriter, q string) {
	containersOnly := strings.Contains(q, "mimeType = '"+graph.MimeFolder+"'")
	out := []*fakeFile{}

	for _, f := range d.files {
		if m := reName.FindStringSubmatch(q); m != nil && f.Name != m[1] {
			continue
		}

		if m := reParent.FindStringSubmatch(q); m != nil && (len(f.Parents) == 0 || f.Parents[0] != m[1]) {
			continue
		}

		if containersOnly && f.MimeType != graph.MimeFolder && f.MimeType != graph.MimeShortcut {
			continue
		}

		out = append(out, f)
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"files": out})
}

func (d *fakeDrive) file(w http.ResponseWriter, r *http.Request, id string) {
	idx := -1

	for i, f := range d.files {
		if f.ID == id {
			idx = i
		}
	}

	if idx < 0 {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":{"code":404,"message":"File not found: %s."}}`, id)

		return
	}

	f := d.files[idx]

	switch {
	case r.Method == http.MethodDelete:
		d.files = append(d.files[:idx], d.files[idx+1:]...)
		d.deleted = append(d.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Query().Get("alt") == "media":
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, f.content)
	default:
		_ = json.NewEncoder(w).Encode(f)
	}
}

// cliEnv is an isolated gdrive-go installation: config, client secrets,
// and a valid token in a temp dir, with the Drive endpoint pointed at a
// fakeDrive.
type cliEnv struct {
	dir        string
	configPath string
	tokenPath  string
	drive      *fakeDrive
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	t.Setenv("GDRIVE_GO_CONFIG", "")
	t.Setenv("GDRIVE_GO_ROOT_ID", "")
	t.Setenv("GDRIVE_GO_TOKEN_FILE", "")

	env := &cliEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		tokenPath:  filepath.Join(dir, "token.json"),
		drive:      &fakeDrive{},
	}

	secretsPath := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secretsPath, []byte(`{"installed":{
		"client_id":"test-client.apps.googleusercontent.com",
		"client_secret":"test-secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`), 0o600))

	require.NoError(t, tokenfile.Save(env.tokenPath, &tokenfile.File{
		Token: &oauth2.Token{
			AccessToken:  "test-access",
			RefreshToken: "test-refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
		Account: "test@example.com",
	}))

	env.writeConfig(t, "")

	srv := httptest.NewServer(env.drive)
	t.Cleanup(srv.Close)

	old := driveEndpoint
	driveEndpoint = srv.URL + "/drive/v3/"

	t.Cleanup(func() { driveEndpoint = old })

	return env
}

// writeConfig writes the auth section plus extra TOML.
func (e *cliEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()

	content := fmt.Sprintf("[auth]\nclient_secrets_file = %q\ntoken_file = %q\n\n%s",
		filepath.Join(e.dir, "client_secret.json"), e.tokenPath, extra)
	require.NoError(t, os.WriteFile(e.configPath, []byte(content), 0o600))
}

// run executes the root command with args and returns stdout and stderr.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}
