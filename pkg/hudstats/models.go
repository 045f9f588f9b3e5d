package hudstats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Match is a completed match record as returned by the schedule endpoint.
// The record is server-defined and treated as an opaque passthrough value;
// the client only ever looks at the identifier and a handful of display
// fields by key.
type Match map[string]interface{}

// ID returns the match identifier as a string, or "" if the record has
// none. The API returns it as a string for some tournaments and as a
// number for others.
func (m Match) ID() string {
	switch v := m["matchId"].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Field returns the named field without interpretation. Missing fields
// come back as nil, which marshals to JSON null.
func (m Match) Field(key string) interface{} {
	return m[key]
}

// StringField returns the named field as a string, or "" if absent or not
// a string.
func (m Match) StringField(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// SchedulePage is one page of the paginated schedule response
type SchedulePage struct {
	Data        []Match `json:"data"`
	CurrentPage int     `json:"currentPage"`
	LastPage    int     `json:"lastPage"`
	Total       int     `json:"total"`
}

// Stats holds the detailed statistics for a single match. The object is
// keyed by period ("endMatch", quarter sections, ...) and passed through
// unmodified.
type Stats map[string]interface{}

// Periods returns the period keys present in the statistics, sorted
func (s Stats) Periods() []string {
	periods := make([]string, 0, len(s))
	for key := range s {
		periods = append(periods, key)
	}
	sort.Strings(periods)
	return periods
}

// EndMatch returns the final-score section, or nil if the server did not
// include one.
func (s Stats) EndMatch() map[string]interface{} {
	if v, ok := s["endMatch"].(map[string]interface{}); ok {
		return v
	}
	return nil
}
