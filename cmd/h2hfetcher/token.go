package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"h2hfetcher/pkg/auth"
	"h2hfetcher/pkg/logger"
	"h2hfetcher/pkg/ui"
)

var (
	// Token command flags
	tokenHeadless bool
	tokenTimeout  int
	tokenOutput   string
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Extract an API token from the H2HGGL website",
	Long: `Extract the hudstats API bearer token from the H2HGGL website.

The command drives a headless Chromium instance to a match page, waits for
the site's scripts to authenticate, and reads the token out of the browser's
local storage. The token is saved for reuse by the fetch commands.`,
	Example: `  # Extract and save to auth_token.json
  h2hfetcher token

  # Watch the browser while it runs
  h2hfetcher token --headless=false

  # Save to the system keychain instead of a file
  h2hfetcher token --keyring`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runToken()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().BoolVar(&tokenHeadless, "headless", true, "run the browser in headless mode")
	tokenCmd.Flags().IntVar(&tokenTimeout, "timeout", 60, "timeout in seconds for the browser session")
	tokenCmd.Flags().StringVarP(&tokenOutput, "output", "o", "", "output file for the token (default: auth_token.json)")
}

func runToken() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := make(map[string]interface{})
	flags["headless"] = tokenHeadless
	if tokenOutput != "" {
		flags["token-file"] = tokenOutput
	}
	cfg := loadConfig(flags)
	if tokenTimeout > 0 {
		cfg.Browser.Timeout = time.Duration(tokenTimeout) * time.Second
	}
	log := logger.GetLogger()

	ui.PrintInfo("Target URL", cfg.Browser.TargetURL)
	ui.PrintInfo("Token key", cfg.Browser.TokenKey)

	provider := auth.NewBrowserProvider(&cfg.Browser, log)
	token, err := provider.Acquire(ctx)
	if err != nil {
		ui.PrintError("Failed to fetch authentication token", err.Error())
		os.Exit(1)
	}

	preview := token.Token
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	ui.PrintInfo("Token", preview)

	store := tokenStore(cfg)
	if err := store.Save(token); err != nil {
		ui.PrintError("Failed to save token", err.Error())
		os.Exit(1)
	}

	if fileStore, ok := store.(*auth.FileStore); ok {
		ui.PrintSuccess(fmt.Sprintf("Token saved to %s", fileStore.Path()))
	} else {
		ui.PrintSuccess("Token saved to system keychain")
	}
}
