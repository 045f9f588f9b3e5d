package hudstats

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleURL(t *testing.T) {
	raw := ScheduleURL(DefaultBaseURL, ScheduleParams{
		From:         "2025-04-29 04:00",
		To:           "2025-04-30 03:59",
		TournamentID: 1,
		Page:         2,
		PageSize:     100,
		Order:        "desc",
	})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "/v1/schedule", parsed.Path)
	query := parsed.Query()
	assert.Equal(t, "match", query.Get("schedule-type"))
	assert.Equal(t, "2025-04-29 04:00", query.Get("from"))
	assert.Equal(t, "2025-04-30 03:59", query.Get("to"))
	assert.Equal(t, "desc", query.Get("order"))
	assert.Equal(t, "1", query.Get("tournament-id"))
	assert.Equal(t, "2", query.Get("page"))
	assert.Equal(t, "100", query.Get("page-size"))
}

func TestScheduleURLDefaults(t *testing.T) {
	raw := ScheduleURL(DefaultBaseURL, ScheduleParams{})

	query, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "1", query.Query().Get("page"))
	assert.Equal(t, "100", query.Query().Get("page-size"))
	assert.Equal(t, "desc", query.Query().Get("order"))
}

func TestMatchStatsURL(t *testing.T) {
	assert.Equal(t,
		"https://api-sis-stats.hudstats.com/v1/match/NB125120625/stats",
		MatchStatsURL(DefaultBaseURL, "NB125120625"),
	)
}

func TestParseDateTime(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		formatted, err := ParseDateTime("2025-04-29 04:00")
		require.NoError(t, err)
		assert.Equal(t, "2025-04-29 04:00", formatted)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseDateTime("29/04/2025")
		assert.Error(t, err)
	})
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2025, 4, 29, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-04-29 04:00", FormatDateTime(ts))
}
