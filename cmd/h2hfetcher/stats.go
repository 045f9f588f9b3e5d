package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"h2hfetcher/pkg/config"
	"h2hfetcher/pkg/errors"
	"h2hfetcher/pkg/fetcher"
	"h2hfetcher/pkg/hudstats"
	"h2hfetcher/pkg/logger"
	"h2hfetcher/pkg/storage"
	"h2hfetcher/pkg/ui"
)

var (
	// Stats command flags
	statsMatchID string
	matchesFile  string
	statsOutput  string
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetch detailed statistics for one match or a batch of matches",
	Long: `Fetch detailed match statistics from the H2H GG League API.

Statistics can be fetched for a single match by ID, or for every match in a
previously saved completed-matches file. In batch mode a match whose fetch
fails is logged and skipped; the rest of the batch continues.`,
	Example: `  # Single match
  h2hfetcher stats --match-id NB125120625

  # Every match from a previous 'matches' run
  h2hfetcher stats --matches-file h2hggl_data/completed_matches.json

  # Custom output file
  h2hfetcher stats --match-id NB125120625 --output stats.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runStats()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsMatchID, "match-id", "", "specific match ID to fetch statistics for")
	statsCmd.Flags().StringVar(&matchesFile, "matches-file", "", "JSON file containing completed matches (from 'h2hfetcher matches')")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "output file path (default: auto-generated based on input)")

	statsCmd.MarkFlagsMutuallyExclusive("match-id", "matches-file")
	statsCmd.MarkFlagsOneRequired("match-id", "matches-file")
}

func runStats() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(make(map[string]interface{}))
	log := logger.GetLogger()

	output := statsOutput
	if output == "" {
		if statsMatchID != "" {
			output = filepath.Join(cfg.Output.BaseDirectory, fmt.Sprintf("match_stats_%s.json", statsMatchID))
		} else {
			base := strings.TrimSuffix(filepath.Base(matchesFile), filepath.Ext(matchesFile))
			output = filepath.Join(cfg.Output.BaseDirectory, base+"_statistics.json")
		}
	}

	ui.PrintInfo("Output file", output)

	store := tokenStore(cfg)
	client := newAPIClient(cfg, store, log)
	writer := storage.NewWriter(log)

	if statsMatchID != "" {
		runSingleStats(ctx, cfg.API.BaseURL, client, writer, output)
		return
	}
	runBatchStats(ctx, cfg, client, writer, output)
}

func runSingleStats(ctx context.Context, baseURL string, client *hudstats.Client, writer *storage.Writer, output string) {
	stats, err := client.FetchMatchStats(ctx, statsMatchID)
	if err != nil {
		if errors.IsNotFound(err) {
			ui.PrintError(fmt.Sprintf("Match %s not found or statistics not available", statsMatchID))
		} else {
			ui.PrintError("Failed to fetch statistics", err.Error())
		}
		os.Exit(1)
	}

	endpoint := hudstats.MatchStatsURL(baseURL, statsMatchID)
	if err := writer.WriteMatchStats(output, endpoint, statsMatchID, stats); err != nil {
		ui.PrintError("Failed to save statistics", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Saved statistics for match %s to %s", statsMatchID, output))

	if verbose {
		ui.PrintInfo("Available periods", strings.Join(stats.Periods(), ", "))
		if endMatch := stats.EndMatch(); endMatch != nil {
			ui.PrintInfo("Final score", fmt.Sprintf("%v - %v", endMatch["homePoints"], endMatch["awayPoints"]))
		}
	}
}

func runBatchStats(ctx context.Context, cfg *config.Config, client *hudstats.Client, writer *storage.Writer, output string) {
	matches, err := storage.ReadMatchesFile(matchesFile)
	if err != nil {
		ui.PrintError("Failed to read matches file", err.Error())
		os.Exit(1)
	}
	if len(matches) == 0 {
		ui.PrintWarning("No matches found in " + matchesFile)
		return
	}

	ui.PrintInfo("Matches to fetch", fmt.Sprintf("%d", len(matches)))

	f := fetcher.New(cfg, client, logger.GetLogger())
	stats, summary := f.FetchStatsBatch(ctx, matches)

	if len(stats) == 0 {
		ui.PrintError("No statistics fetched")
		os.Exit(1)
	}

	endpoint := cfg.API.BaseURL + "/match/[match_id]/stats"
	if err := writer.WriteBatchStats(output, endpoint, stats); err != nil {
		ui.PrintError("Failed to save statistics", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Saved statistics for %d matches to %s", len(stats), output))
	ui.PrintInfo("Successful", fmt.Sprintf("%d", summary.Succeeded))
	if summary.Failed > 0 {
		ui.PrintWarning("Failed", fmt.Sprintf("%d", summary.Failed))
	}
}
