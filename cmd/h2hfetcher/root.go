package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"h2hfetcher/pkg/auth"
	"h2hfetcher/pkg/config"
	"h2hfetcher/pkg/logger"
	"h2hfetcher/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
	authToken  string
	noRefresh  bool
	useKeyring bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "h2hfetcher",
	Short: "Fetch completed matches and statistics from the H2H GG League API",
	Long: `h2hfetcher pulls completed match results and detailed match statistics
from the H2H GG League (hudstats) API and saves them as JSON files.

The API requires a bearer token that the h2hggl.com frontend stores in the
browser's local storage. The 'token' command extracts one with a headless
browser; the fetch commands reuse it and refresh it automatically when the
API rejects it.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logLevel = "debug"
		}
		if quiet {
			logLevel = "error"
		}
		ui.SetNoColor(noColor)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .h2hfetcher.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&authToken, "auth-token", "", "API authentication token (default: stored token, or a refresh is triggered)")
	rootCmd.PersistentFlags().BoolVar(&noRefresh, "no-refresh", false, "disable automatic token refresh on authentication failure")
	rootCmd.PersistentFlags().BoolVar(&useKeyring, "keyring", false, "store and load the token via the system keychain instead of the token file")

	rootCmd.SetVersionTemplate(`h2hfetcher {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(flags map[string]interface{}) *config.Config {
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if useKeyring {
		flags["keyring"] = true
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	return cfg
}

// tokenStore picks the configured token persistence backend. Falls back to
// the token file when the keychain is unavailable.
func tokenStore(cfg *config.Config) auth.Store {
	if cfg.Auth.UseKeyring {
		store, err := auth.NewKeyringStore()
		if err == nil {
			return store
		}
		ui.PrintWarning("System keychain unavailable, using token file", err.Error())
	}
	return auth.NewFileStore(cfg.Auth.TokenFile)
}

// resolveToken determines the bearer token for a fetch run: the --auth-token
// flag wins, then a stored token, then a deliberately invalid placeholder so
// the first 401 triggers a refresh.
func resolveToken(cfg *config.Config, store auth.Store) string {
	if authToken != "" {
		return authToken
	}

	if token, err := store.Load(); err == nil {
		logger.WithField("extracted_at", token.ExtractedAt).Info("using stored token")
		return token.Token
	}

	return "test"
}
