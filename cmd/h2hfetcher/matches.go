package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"h2hfetcher/pkg/auth"
	"h2hfetcher/pkg/config"
	"h2hfetcher/pkg/fetcher"
	"h2hfetcher/pkg/hudstats"
	"h2hfetcher/pkg/logger"
	"h2hfetcher/pkg/storage"
	"h2hfetcher/pkg/ui"
)

var (
	// Matches command flags
	fromDate      string
	toDate        string
	tournamentID  int
	pageSize      int
	matchesOutput string
)

// matchesCmd represents the matches command
var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Fetch completed matches within a date range",
	Long: `Fetch all completed matches within a date range from the H2H GG League
API and save them to a JSON file.

The command pages through the schedule endpoint until the server reports the
last page. If a request fails partway through, whatever was fetched so far is
still written to the output file.`,
	Example: `  # Fetch the last 30 days of matches
  h2hfetcher matches

  # Fetch a specific window
  h2hfetcher matches --from "2025-04-29 04:00" --to "2025-04-30 03:59"

  # Different tournament and output file
  h2hfetcher matches --tournament-id 2 --output custom_matches.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runMatches()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().StringVar(&fromDate, "from", "", `start date and time, "YYYY-MM-DD HH:MM" (default: 30 days ago)`)
	matchesCmd.Flags().StringVar(&toDate, "to", "", `end date and time, "YYYY-MM-DD HH:MM" (default: now)`)
	matchesCmd.Flags().IntVar(&tournamentID, "tournament-id", 1, "tournament ID")
	matchesCmd.Flags().IntVar(&pageSize, "page-size", 100, "matches per page")
	matchesCmd.Flags().StringVarP(&matchesOutput, "output", "o", "", "output file path (default: <output-dir>/completed_matches.json)")
}

func runMatches() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := make(map[string]interface{})
	if tournamentID != 1 {
		flags["tournament-id"] = tournamentID
	}
	if pageSize != 100 {
		flags["page-size"] = pageSize
	}
	cfg := loadConfig(flags)
	log := logger.GetLogger()

	// Default range: the last 30 days.
	if fromDate == "" {
		fromDate = hudstats.FormatDateTime(time.Now().AddDate(0, 0, -30))
	}
	if toDate == "" {
		toDate = hudstats.FormatDateTime(time.Now())
	}

	from, err := hudstats.ParseDateTime(fromDate)
	if err != nil {
		ui.PrintError("Invalid --from date", err.Error())
		os.Exit(1)
	}
	to, err := hudstats.ParseDateTime(toDate)
	if err != nil {
		ui.PrintError("Invalid --to date", err.Error())
		os.Exit(1)
	}

	output := matchesOutput
	if output == "" {
		output = filepath.Join(cfg.Output.BaseDirectory, "completed_matches.json")
	}

	ui.PrintInfo("Date range", fmt.Sprintf("%s to %s", from, to))
	ui.PrintInfo("Tournament ID", fmt.Sprintf("%d", cfg.API.TournamentID))
	ui.PrintInfo("Output file", output)

	store := tokenStore(cfg)
	client := newAPIClient(cfg, store, log)

	f := fetcher.New(cfg, client, log)
	matches, fetchErr := f.FetchAllMatches(ctx, from, to)

	if len(matches) == 0 {
		if fetchErr != nil {
			ui.PrintError("No matches fetched", fetchErr.Error())
			os.Exit(1)
		}
		ui.PrintWarning("No matches found in the given date range")
		return
	}

	if fetchErr != nil {
		ui.PrintWarning("Fetch stopped early, saving partial results", fetchErr.Error())
	}

	writer := storage.NewWriter(log)
	endpoint := cfg.API.BaseURL + hudstats.ScheduleEndpoint
	if err := writer.WriteMatches(output, endpoint, matches); err != nil {
		ui.PrintError("Failed to save matches", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Saved %d matches to %s", len(matches), output))
	ui.PrintInfo("Date range", fmt.Sprintf("%s to %s", from, to))

	if verbose && len(matches) > 0 {
		sample := matches[0]
		ui.PrintInfo("Sample match", sample.ID())
		ui.PrintInfo("Teams", fmt.Sprintf("%v vs %v", sample.Field("homeTeamName"), sample.Field("awayTeamName")))
		ui.PrintInfo("Score", fmt.Sprintf("%v - %v", sample.Field("homeScore"), sample.Field("awayScore")))
	}
}

// newAPIClient builds the authenticated client with token resolution and,
// unless disabled, browser-based refresh wired in.
func newAPIClient(cfg *config.Config, store auth.Store, log logger.Logger) *hudstats.Client {
	client := hudstats.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	client.SetAuthToken(resolveToken(cfg, store))

	if !noRefresh {
		client.SetProvider(auth.NewBrowserProvider(&cfg.Browser, log))
		client.OnRefresh(func(token *auth.Token) {
			if err := store.Save(token); err != nil {
				log.WithError(err).Warn("failed to persist refreshed token")
			}
		})
	}

	return client
}
