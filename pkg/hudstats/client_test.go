package hudstats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h2hfetcher/pkg/auth"
	"h2hfetcher/pkg/errors"
	"h2hfetcher/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// newMockClient creates a client whose transport is the given handler
func newMockClient(handler func(req *http.Request) (*http.Response, error)) *Client {
	client := NewClient(DefaultBaseURL, 30*time.Second, logger.NewTestLogger())
	client.httpClient = &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
	return client
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// stubProvider is an auth.Provider returning a canned token
type stubProvider struct {
	calls int
	token string
	err   error
}

func (p *stubProvider) Acquire(ctx context.Context) (*auth.Token, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &auth.Token{Token: p.token, ExtractedAt: time.Now()}, nil
}

const schedulePageBody = `{
	"data": [{"matchId": "NB125120625", "homeTeamName": "Lakers"}],
	"currentPage": 1,
	"lastPage": 1,
	"total": 1
}`

func TestNewClient(t *testing.T) {
	client := NewClient("", 30*time.Second, logger.NewTestLogger())

	assert.NotNil(t, client)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, "https://h2hggl.com", client.headers["origin"])
}

func TestSetAuthToken(t *testing.T) {
	client := NewClient(DefaultBaseURL, 30*time.Second, logger.NewTestLogger())

	client.SetAuthToken("abc")
	assert.Equal(t, "Bearer abc", client.headers["authorization"])

	// Replaced wholesale, never appended
	client.SetAuthToken("def")
	assert.Equal(t, "Bearer def", client.headers["authorization"])
}

func TestFetchSchedulePage(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "match", req.URL.Query().Get("schedule-type"))
		assert.Equal(t, "2", req.URL.Query().Get("page"))
		return newResponse(http.StatusOK, schedulePageBody), nil
	})

	page, err := client.FetchSchedulePage(context.Background(), ScheduleParams{
		From:         "2025-04-29 04:00",
		To:           "2025-04-30 03:59",
		TournamentID: 1,
		Page:         2,
		PageSize:     100,
	})

	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, "NB125120625", page.Data[0].ID())
	assert.Equal(t, 1, page.Total)
}

func TestAuthRefreshRetriesExactlyOnce(t *testing.T) {
	var requests int
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requests++
		if req.Header.Get("Authorization") == "Bearer fresh-token" {
			return newResponse(http.StatusOK, schedulePageBody), nil
		}
		return newResponse(http.StatusUnauthorized, `{"message":"Unauthenticated."}`), nil
	})
	client.SetAuthToken("stale")

	provider := &stubProvider{token: "fresh-token"}
	client.SetProvider(provider)

	page, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, provider.calls, "exactly one refresh attempt")
	assert.Equal(t, 2, requests, "exactly one retry")
	assert.Equal(t, "Bearer fresh-token", client.headers["authorization"])
}

func TestAuthRefreshNotifiesHook(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") == "Bearer fresh-token" {
			return newResponse(http.StatusOK, schedulePageBody), nil
		}
		return newResponse(http.StatusUnauthorized, "authentication token required"), nil
	})
	client.SetAuthToken("stale")
	client.SetProvider(&stubProvider{token: "fresh-token"})

	var saved *auth.Token
	client.OnRefresh(func(token *auth.Token) { saved = token })

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh-token", saved.Token)
}

func TestAuthRefreshOnlyOncePerRequest(t *testing.T) {
	// Server keeps rejecting even the fresh token; the client must not loop.
	var requests int
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requests++
		return newResponse(http.StatusUnauthorized, `{"message":"Unauthenticated."}`), nil
	})
	client.SetAuthToken("stale")

	provider := &stubProvider{token: "fresh-token"}
	client.SetProvider(provider)

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 1, provider.calls, "never more than one refresh")
	assert.Equal(t, 2, requests)
}

func TestMarkerless401DoesNotRefresh(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusUnauthorized, "go away"), nil
	})
	client.SetAuthToken("stale")

	provider := &stubProvider{token: "fresh-token"}
	client.SetProvider(provider)

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 0, provider.calls, "no refresh without an auth marker")
}

func TestAuthMarkerDetectionIsCaseInsensitive(t *testing.T) {
	for _, body := range []string{
		"UNAUTHENTICATED",
		"invalid Authentication token",
		"missing API Key",
	} {
		assert.True(t, hasAuthMarker([]byte(body)), "body %q should match", body)
	}

	assert.False(t, hasAuthMarker([]byte("forbidden")))
}

func TestRefreshFailureSurfacesAuthError(t *testing.T) {
	var requests int
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requests++
		return newResponse(http.StatusUnauthorized, `{"message":"Unauthenticated."}`), nil
	})
	client.SetAuthToken("stale")
	client.SetProvider(&stubProvider{err: fmt.Errorf("browser launch failed")})

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 1, requests, "no retry without a fresh token")
}

func TestNoProviderNoRefresh(t *testing.T) {
	var requests int
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requests++
		return newResponse(http.StatusUnauthorized, `{"message":"Unauthenticated."}`), nil
	})

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 1, requests)
}

func TestFetchMatchStatsNotFound(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/match/MISSING/stats", req.URL.Path)
		return newResponse(http.StatusNotFound, "not found"), nil
	})

	_, err := client.FetchMatchStats(context.Background(), "MISSING")

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestNetworkErrorIsTerminal(t *testing.T) {
	provider := &stubProvider{token: "fresh-token"}
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})
	client.SetProvider(provider)

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.Equal(t, 0, provider.calls)
}

func TestMalformedJSONIsTerminal(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, "<html>definitely not json</html>"), nil
	})

	_, err := client.FetchSchedulePage(context.Background(), ScheduleParams{Page: 1})

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
}

func TestServerErrorIsTerminal(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusBadGateway, "bad gateway"), nil
	})

	_, err := client.FetchMatchStats(context.Background(), "NB125120625")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeServerError, errors.TypeOf(err))
}

func TestFetchMatchStats(t *testing.T) {
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, `{
			"endMatch": {"homePoints": 87, "awayPoints": 74},
			"q1": {"homePoints": 20, "awayPoints": 18}
		}`), nil
	})

	stats, err := client.FetchMatchStats(context.Background(), "NB125120625")

	require.NoError(t, err)
	assert.Equal(t, []string{"endMatch", "q1"}, stats.Periods())
	require.NotNil(t, stats.EndMatch())
	assert.Equal(t, float64(87), stats.EndMatch()["homePoints"])
}
