package fetcher

import (
	"context"

	"h2hfetcher/pkg/hudstats"
)

// Client defines the API operations the fetcher depends on
type Client interface {
	FetchSchedulePage(ctx context.Context, params hudstats.ScheduleParams) (*hudstats.SchedulePage, error)
	FetchMatchStats(ctx context.Context, matchID string) (hudstats.Stats, error)
}
