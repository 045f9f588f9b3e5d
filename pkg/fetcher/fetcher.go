package fetcher

import (
	"context"
	"time"

	"h2hfetcher/pkg/config"
	"h2hfetcher/pkg/hudstats"
	"h2hfetcher/pkg/logger"
	"h2hfetcher/pkg/ratelimit"
)

// Fetcher orchestrates the sequential fetch loops over the hudstats API:
// the paginated schedule and the per-match statistics batch.
type Fetcher struct {
	client       Client
	limiter      ratelimit.Limiter
	tournamentID int
	pageSize     int
	order        string
	logger       logger.Logger
}

// MatchInfo is the display subset of a match record kept alongside its
// statistics in batch output. Values pass through from the opaque record.
type MatchInfo struct {
	MatchID        string      `json:"matchId"`
	HomeTeamName   interface{} `json:"homeTeamName"`
	AwayTeamName   interface{} `json:"awayTeamName"`
	HomeScore      interface{} `json:"homeScore"`
	AwayScore      interface{} `json:"awayScore"`
	StartDate      interface{} `json:"startDate"`
	TournamentName interface{} `json:"tournamentName"`
}

// MatchStats pairs a match's info with its fetched statistics
type MatchStats struct {
	MatchInfo  MatchInfo     `json:"match_info"`
	Statistics hudstats.Stats `json:"statistics"`
}

// BatchSummary counts the outcomes of a statistics batch run
type BatchSummary struct {
	Succeeded int
	Failed    int
	Total     int
}

// New creates a fetcher using the configured page size, tournament and
// rate limit.
func New(cfg *config.Config, client Client, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	rpm := cfg.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Fetcher{
		client:       client,
		limiter:      ratelimit.NewTokenBucket(rpm, time.Minute),
		tournamentID: cfg.API.TournamentID,
		pageSize:     cfg.API.PageSize,
		order:        cfg.API.Order,
		logger:       log,
	}
}

// SetLimiter replaces the rate limiter, mainly for tests
func (f *Fetcher) SetLimiter(l ratelimit.Limiter) {
	f.limiter = l
}

// FetchAllMatches fetches every completed match in the date range, paging
// ascending until the server reports the last page or returns an empty
// page. On error the loop stops and returns whatever was accumulated along
// with the error; partial results are never discarded. The server's
// pagination is trusted to not return overlapping records.
func (f *Fetcher) FetchAllMatches(ctx context.Context, from, to string) ([]hudstats.Match, error) {
	var all []hudstats.Match
	page := 1

	for {
		if err := ctx.Err(); err != nil {
			f.logger.Warn("fetch interrupted, keeping partial results")
			return all, err
		}

		f.limiter.Wait()

		resp, err := f.client.FetchSchedulePage(ctx, hudstats.ScheduleParams{
			From:         from,
			To:           to,
			TournamentID: f.tournamentID,
			Page:         page,
			PageSize:     f.pageSize,
			Order:        f.order,
		})
		if err != nil {
			f.logger.ErrorWithFields("failed to fetch schedule page", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			return all, err
		}

		if len(resp.Data) == 0 {
			break
		}

		all = append(all, resp.Data...)

		f.logger.InfoWithFields("fetched schedule page", map[string]interface{}{
			"matches":      len(resp.Data),
			"current_page": resp.CurrentPage,
			"last_page":    resp.LastPage,
			"total":        resp.Total,
		})

		if resp.CurrentPage >= resp.LastPage {
			break
		}
		page++
	}

	return all, nil
}

// FetchStatsBatch fetches statistics for each match in order. A failed
// fetch is logged and skipped; the batch never aborts on a single match.
// Cancellation stops between items with the partial map intact.
func (f *Fetcher) FetchStatsBatch(ctx context.Context, matches []hudstats.Match) (map[string]MatchStats, BatchSummary) {
	stats := make(map[string]MatchStats)
	summary := BatchSummary{Total: len(matches)}

	for i, match := range matches {
		if ctx.Err() != nil {
			f.logger.Warn("batch interrupted, keeping partial results")
			break
		}

		matchID := match.ID()
		if matchID == "" {
			f.logger.WarnWithFields("match record has no identifier, skipping", map[string]interface{}{
				"index": i + 1,
			})
			summary.Failed++
			continue
		}

		f.logger.InfoWithFields("fetching match statistics", map[string]interface{}{
			"match_id": matchID,
			"index":    i + 1,
			"total":    len(matches),
		})

		f.limiter.Wait()

		result, err := f.client.FetchMatchStats(ctx, matchID)
		if err != nil {
			f.logger.WarnWithFields("failed to fetch match statistics", map[string]interface{}{
				"match_id": matchID,
				"error":    err.Error(),
			})
			summary.Failed++
			continue
		}

		stats[matchID] = MatchStats{
			MatchInfo: MatchInfo{
				MatchID:        matchID,
				HomeTeamName:   match.Field("homeTeamName"),
				AwayTeamName:   match.Field("awayTeamName"),
				HomeScore:      match.Field("homeScore"),
				AwayScore:      match.Field("awayScore"),
				StartDate:      match.Field("startDate"),
				TournamentName: match.Field("tournamentName"),
			},
			Statistics: result,
		}
		summary.Succeeded++
	}

	f.logger.InfoWithFields("statistics batch completed", map[string]interface{}{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"total":     summary.Total,
	})

	return stats, summary
}
