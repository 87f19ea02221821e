package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/graph"
	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize gdrive-go in the browser and save the token",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}

	cmd.Flags().Bool("no-browser", false, "print the authorization URL instead of opening a browser")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account and storage quota",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	oauthCfg, err := loadOAuthConfig(cc)
	if err != nil {
		return err
	}

	open := openBrowser

	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); noBrowser {
		open = func(string) error { return fmt.Errorf("browser disabled") }
	}

	cc.Logger.Info("login started", "token_file", cc.Cfg.Auth.TokenFile)

	ts, err := graph.Login(ctx, oauthCfg, cc.Cfg.Auth.TokenFile, open, cc.Logger)
	if err != nil {
		return err
	}

	client, err := newGraphClient(ctx, cc, ts)
	if err != nil {
		return err
	}

	acct, err := client.About(ctx)
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}

	if err := tokenfile.SetAccount(cc.Cfg.Auth.TokenFile, acct.Email); err != nil {
		cc.Logger.Warn("could not record account in token file", "error", err)
	}

	cc.Logger.Info("login successful", "account", acct.Email)
	cc.Statusf("Logged in as %s.\n", acct.Email)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if err := graph.Logout(cc.Cfg.Auth.TokenFile, cc.Logger); err != nil {
		return err
	}

	cc.Statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	QuotaUsed   int64  `json:"quota_used"`
	QuotaLimit  int64  `json:"quota_limit"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	s, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	acct, err := s.Client.About(ctx)
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, whoamiOutput{
			DisplayName: acct.DisplayName,
			Email:       acct.Email,
			QuotaUsed:   acct.QuotaUsed,
			QuotaLimit:  acct.QuotaLimit,
		})
	}

	fmt.Fprintf(cc.Stdout, "User:  %s (%s)\n", acct.DisplayName, acct.Email)

	if acct.QuotaLimit > 0 {
		fmt.Fprintf(cc.Stdout, "Quota: %s / %s\n", formatSize(acct.QuotaUsed), formatSize(acct.QuotaLimit))
	} else {
		fmt.Fprintf(cc.Stdout, "Quota: %s used (unlimited)\n", formatSize(acct.QuotaUsed))
	}

	return nil
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var c *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}

	return c.Start()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}
