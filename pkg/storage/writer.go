package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"h2hfetcher/pkg/fetcher"
	"h2hfetcher/pkg/hudstats"
	"h2hfetcher/pkg/logger"
)

// Metadata is the envelope header written ahead of every payload. The count
// always equals the number of entries in the payload at time of write.
type Metadata struct {
	TotalMatches int       `json:"total_matches,omitempty"`
	MatchID      string    `json:"match_id,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	APIEndpoint  string    `json:"api_endpoint"`
}

// MatchesFile is the on-disk document for a completed-matches fetch
type MatchesFile struct {
	Metadata Metadata         `json:"metadata"`
	Matches  []hudstats.Match `json:"matches"`
}

// StatsFile is the on-disk document for a single match's statistics
type StatsFile struct {
	Metadata   Metadata       `json:"metadata"`
	Statistics hudstats.Stats `json:"statistics"`
}

// BatchStatsFile is the on-disk document for a batch statistics fetch
type BatchStatsFile struct {
	Metadata          Metadata                      `json:"metadata"`
	MatchesStatistics map[string]fetcher.MatchStats `json:"matches_statistics"`
}

// Writer persists fetch results as JSON documents with a metadata envelope
type Writer struct {
	logger logger.Logger
}

// NewWriter creates a result writer
func NewWriter(log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{logger: log}
}

// WriteMatches writes a completed-matches document to path
func (w *Writer) WriteMatches(path, endpoint string, matches []hudstats.Match) error {
	doc := MatchesFile{
		Metadata: Metadata{
			TotalMatches: len(matches),
			FetchedAt:    time.Now(),
			APIEndpoint:  endpoint,
		},
		Matches: matches,
	}
	if doc.Matches == nil {
		doc.Matches = []hudstats.Match{}
	}

	if err := w.writeJSON(path, doc); err != nil {
		return err
	}

	w.logger.InfoWithFields("saved matches", map[string]interface{}{
		"count": len(matches),
		"path":  path,
	})
	return nil
}

// WriteMatchStats writes a single match's statistics document to path
func (w *Writer) WriteMatchStats(path, endpoint, matchID string, stats hudstats.Stats) error {
	doc := StatsFile{
		Metadata: Metadata{
			MatchID:     matchID,
			FetchedAt:   time.Now(),
			APIEndpoint: endpoint,
		},
		Statistics: stats,
	}

	if err := w.writeJSON(path, doc); err != nil {
		return err
	}

	w.logger.InfoWithFields("saved match statistics", map[string]interface{}{
		"match_id": matchID,
		"path":     path,
	})
	return nil
}

// WriteBatchStats writes a batch statistics document to path
func (w *Writer) WriteBatchStats(path, endpoint string, stats map[string]fetcher.MatchStats) error {
	doc := BatchStatsFile{
		Metadata: Metadata{
			TotalMatches: len(stats),
			FetchedAt:    time.Now(),
			APIEndpoint:  endpoint,
		},
		MatchesStatistics: stats,
	}

	if err := w.writeJSON(path, doc); err != nil {
		return err
	}

	w.logger.InfoWithFields("saved batch statistics", map[string]interface{}{
		"count": len(stats),
		"path":  path,
	})
	return nil
}

// writeJSON writes v to path as indented JSON, creating parent directories
// and replacing any existing file. The write goes through a temp file and
// rename so a crash never leaves a half-written document.
func (w *Writer) writeJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename output file: %w", err)
	}

	return nil
}

// ReadMatchesFile loads a previously written completed-matches document and
// returns its match records.
func ReadMatchesFile(path string) ([]hudstats.Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matches file: %w", err)
	}

	var doc MatchesFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse matches file: %w", err)
	}

	return doc.Matches, nil
}
