package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/graph"
	"github.com/tonimelisma/gdrive-go/internal/vfs"
)

// driveEndpoint is the Drive API base URL. Tests point it at an httptest
// server.
var driveEndpoint = graph.DefaultEndpoint

// session bundles the authenticated Drive client and the path facade over it.
type session struct {
	Client *graph.Client
	FS     *vfs.FS
}

// newSession loads the saved token and builds a client and facade from the
// resolved configuration.
func newSession(ctx context.Context, cc *CLIContext) (*session, error) {
	oauthCfg, err := loadOAuthConfig(cc)
	if err != nil {
		return nil, err
	}

	ts, err := graph.TokenSourceFromPath(ctx, oauthCfg, cc.Cfg.Auth.TokenFile, cc.Logger)
	if err != nil {
		if errors.Is(err, graph.ErrNotLoggedIn) {
			return nil, fmt.Errorf("not logged in: %s", notLoggedInHint)
		}

		return nil, err
	}

	client, err := newGraphClient(ctx, cc, ts)
	if err != nil {
		return nil, err
	}

	fsys := vfs.New(client, vfs.Options{
		RootID:            cc.Cfg.Drive.RootID,
		SearchSharedRoots: cc.Cfg.Drive.SearchSharedRoots,
		StrictNames:       cc.Cfg.Drive.StrictNames,
		UseTrash:          cc.Cfg.Drive.UseTrash,
		Logger:            cc.Logger,
	})

	cc.Logger.Debug("session ready",
		"root_id", fsys.Resolver().RootID(),
		"token_file", cc.Cfg.Auth.TokenFile,
	)

	return &session{Client: client, FS: fsys}, nil
}

func newGraphClient(ctx context.Context, cc *CLIContext, ts graph.TokenSource) (*graph.Client, error) {
	opts := []graph.Option{
		graph.WithMetrics(cc.Metrics),
		graph.WithChunkSize(int(cc.Cfg.ChunkSizeBytes)),
	}

	if cc.Cfg.Network.UserAgent != "" {
		opts = append(opts, graph.WithUserAgent(cc.Cfg.Network.UserAgent))
	}

	return graph.NewClient(ctx, driveEndpoint, newHTTPClient(cc.Cfg), ts, cc.Logger, opts...)
}

// newHTTPClient applies the network timeouts. There is no overall request
// timeout: a large transfer may legitimately run for a long time, so only
// connecting and waiting for response headers are bounded.
func newHTTPClient(cfg *config.Resolved) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.DataTimeout

	return &http.Client{Transport: transport}
}

func loadOAuthConfig(cc *CLIContext) (*oauth2.Config, error) {
	cfg, err := graph.LoadOAuthConfig(cc.Cfg.Auth.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("%w\ndownload an OAuth client (Desktop app) JSON from the Google Cloud console and save it as %s, or set auth.client_secrets_file",
			err, cc.Cfg.Auth.ClientSecretsFile)
	}

	return cfg, nil
}
