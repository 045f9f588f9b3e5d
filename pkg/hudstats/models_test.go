package hudstats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchID(t *testing.T) {
	t.Run("string identifier", func(t *testing.T) {
		m := Match{"matchId": "NB125120625"}
		assert.Equal(t, "NB125120625", m.ID())
	})

	t.Run("numeric identifier", func(t *testing.T) {
		// Numbers decoded from JSON arrive as float64
		var m Match
		require.NoError(t, json.Unmarshal([]byte(`{"matchId": 125120625}`), &m))
		assert.Equal(t, "125120625", m.ID())
	})

	t.Run("missing identifier", func(t *testing.T) {
		m := Match{"homeTeamName": "Lakers"}
		assert.Equal(t, "", m.ID())
	})
}

func TestMatchFields(t *testing.T) {
	m := Match{"homeTeamName": "Lakers", "homeScore": float64(87)}

	assert.Equal(t, "Lakers", m.StringField("homeTeamName"))
	assert.Equal(t, "", m.StringField("homeScore"))
	assert.Equal(t, float64(87), m.Field("homeScore"))
	assert.Nil(t, m.Field("missing"))
}

func TestStatsPeriods(t *testing.T) {
	var stats Stats
	require.NoError(t, json.Unmarshal([]byte(`{
		"q2": {},
		"q1": {},
		"endMatch": {"homePoints": 87}
	}`), &stats))

	assert.Equal(t, []string{"endMatch", "q1", "q2"}, stats.Periods())
	require.NotNil(t, stats.EndMatch())
	assert.Equal(t, float64(87), stats.EndMatch()["homePoints"])
}

func TestStatsEndMatchMissing(t *testing.T) {
	stats := Stats{"q1": map[string]interface{}{}}
	assert.Nil(t, stats.EndMatch())
}

func TestMatchPassthroughRoundTrip(t *testing.T) {
	// Records are opaque: unknown fields must survive a decode/encode cycle
	original := `{"matchId":"NB1","nested":{"deep":[1,2,3]},"weirdField":null}`

	var m Match
	require.NoError(t, json.Unmarshal([]byte(original), &m))

	encoded, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Match
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, m, decoded)
}
