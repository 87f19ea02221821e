// Command integration-bootstrap writes the credentials the live tests use:
// it runs the browser login against .testdata/client_secret.json and saves
// the token as .testdata/token.json.
//
// Usage: go run ./cmd/integration-bootstrap [--dir .testdata]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tonimelisma/gdrive-go/internal/graph"
	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

func main() {
	dir := flag.String("dir", ".testdata", "directory holding client_secret.json")
	flag.Parse()

	ctx := context.Background()
	logger := slog.Default()

	cfg, err := graph.LoadOAuthConfig(filepath.Join(*dir, "client_secret.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	tokenPath := filepath.Join(*dir, "token.json")

	ts, err := graph.Login(ctx, cfg, tokenPath, func(url string) error {
		fmt.Printf("Open this URL in a browser signed in to the test account:\n\n  %s\n\n", url)
		return nil
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	client, err := graph.NewClient(ctx, graph.DefaultEndpoint, nil, ts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating client: %v\n", err)
		os.Exit(1)
	}

	acct, err := client.About(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetching account: %v\n", err)
		os.Exit(1)
	}

	if err := tokenfile.SetAccount(tokenPath, acct.Email); err != nil {
		logger.Warn("recording account in token file", slog.String("error", err.Error()))
	}

	fmt.Printf("Logged in as %s. Token saved to %s.\n", acct.Email, tokenPath)
	fmt.Printf("Add %s=%s to .env.\n", "GDRIVE_GO_TEST_ACCOUNT", acct.Email)
}
