package hudstats

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the base URL for the hudstats API
	DefaultBaseURL = "https://api-sis-stats.hudstats.com/v1"

	// ScheduleEndpoint lists completed matches
	ScheduleEndpoint = "/schedule"

	// DateTimeLayout is the timestamp format the schedule endpoint accepts
	// for the from/to query parameters
	DateTimeLayout = "2006-01-02 15:04"

	// DefaultPageSize is the schedule page size used when none is configured
	DefaultPageSize = 100
)

// ScheduleParams are the query parameters for one schedule page request
type ScheduleParams struct {
	From         string
	To           string
	TournamentID int
	Page         int
	PageSize     int
	Order        string
}

// ScheduleURL constructs the URL for fetching one page of completed matches
func ScheduleURL(baseURL string, p ScheduleParams) string {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Order == "" {
		p.Order = "desc"
	}

	params := url.Values{}
	params.Set("schedule-type", "match")
	params.Set("from", p.From)
	params.Set("to", p.To)
	params.Set("order", p.Order)
	params.Set("tournament-id", strconv.Itoa(p.TournamentID))
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("page-size", strconv.Itoa(p.PageSize))

	return fmt.Sprintf("%s%s?%s", baseURL, ScheduleEndpoint, params.Encode())
}

// MatchStatsURL constructs the URL for fetching a single match's statistics
func MatchStatsURL(baseURL, matchID string) string {
	return fmt.Sprintf("%s/match/%s/stats", baseURL, url.PathEscape(matchID))
}

// ParseDateTime validates a "YYYY-MM-DD HH:MM" timestamp and returns it
// normalized to the layout the API expects.
func ParseDateTime(value string) (string, error) {
	t, err := time.Parse(DateTimeLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid datetime %q, use \"YYYY-MM-DD HH:MM\": %w", value, err)
	}
	return t.Format(DateTimeLayout), nil
}

// FormatDateTime renders a time in the layout the API expects
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}
