package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h2hfetcher/pkg/fetcher"
	"h2hfetcher/pkg/hudstats"
	"h2hfetcher/pkg/logger"
)

func TestWriteMatchesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed_matches.json")

	matches := []hudstats.Match{
		{"matchId": "NB1", "homeTeamName": "Lakers", "homeScore": float64(87)},
		{"matchId": "NB2", "homeTeamName": "Celtics", "awayScore": float64(91)},
	}

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteMatches(path, "/schedule", matches))

	got, err := ReadMatchesFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NB1", got[0].ID())
	assert.Equal(t, "Lakers", got[0].Field("homeTeamName"))
	assert.Equal(t, float64(91), got[1].Field("awayScore"))
}

func TestWriteMatchesMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed_matches.json")

	matches := []hudstats.Match{
		{"matchId": "NB1"},
		{"matchId": "NB2"},
		{"matchId": "NB3"},
	}

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteMatches(path, "/schedule", matches))

	var doc MatchesFile
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, 3, doc.Metadata.TotalMatches)
	assert.Equal(t, "/schedule", doc.Metadata.APIEndpoint)
	assert.False(t, doc.Metadata.FetchedAt.IsZero())
	assert.Empty(t, doc.Metadata.MatchID)
}

func TestWriteMatchesEmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed_matches.json")

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteMatches(path, "/schedule", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Empty fetch writes an array, not null
	assert.Contains(t, string(data), `"matches": []`)

	got, err := ReadMatchesFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteMatchesCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h2hggl_data", "nested", "completed_matches.json")

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteMatches(path, "/schedule", []hudstats.Match{{"matchId": "NB1"}}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteMatchesOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed_matches.json")
	writer := NewWriter(logger.NewTestLogger())

	require.NoError(t, writer.WriteMatches(path, "/schedule", []hudstats.Match{{"matchId": "OLD"}}))
	require.NoError(t, writer.WriteMatches(path, "/schedule", []hudstats.Match{{"matchId": "NEW"}}))

	got, err := ReadMatchesFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NEW", got[0].ID())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is cleaned up after rename")
}

func TestWriteMatchStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match_stats_NB1.json")

	stats := hudstats.Stats{
		"1":        map[string]interface{}{"homePoints": float64(21)},
		"endMatch": map[string]interface{}{"homePoints": float64(87), "awayPoints": float64(91)},
	}

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteMatchStats(path, "/match/NB1/stats", "NB1", stats))

	var doc StatsFile
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "NB1", doc.Metadata.MatchID)
	assert.Equal(t, "/match/NB1/stats", doc.Metadata.APIEndpoint)
	assert.Zero(t, doc.Metadata.TotalMatches)
	assert.Equal(t, stats, doc.Statistics)
}

func TestWriteBatchStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed_matches_statistics.json")

	batch := map[string]fetcher.MatchStats{
		"NB1": {
			MatchInfo:  fetcher.MatchInfo{MatchID: "NB1", HomeTeamName: "Lakers"},
			Statistics: hudstats.Stats{"endMatch": map[string]interface{}{"homePoints": float64(87)}},
		},
		"NB2": {
			MatchInfo:  fetcher.MatchInfo{MatchID: "NB2"},
			Statistics: hudstats.Stats{},
		},
	}

	writer := NewWriter(logger.NewTestLogger())
	require.NoError(t, writer.WriteBatchStats(path, "/match/[match_id]/stats", batch))

	var doc BatchStatsFile
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, 2, doc.Metadata.TotalMatches)
	require.Contains(t, doc.MatchesStatistics, "NB1")
	assert.Equal(t, "Lakers", doc.MatchesStatistics["NB1"].MatchInfo.HomeTeamName)
	assert.Equal(t, "NB2", doc.MatchesStatistics["NB2"].MatchInfo.MatchID)
}

func TestReadMatchesFileMissing(t *testing.T) {
	_, err := ReadMatchesFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read matches file")
}

func TestReadMatchesFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := ReadMatchesFile(path)
	assert.ErrorContains(t, err, "failed to parse matches file")
}
