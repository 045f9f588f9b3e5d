package hudstats

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"h2hfetcher/pkg/auth"
	"h2hfetcher/pkg/errors"
	"h2hfetcher/pkg/logger"
)

// defaultRefreshTimeout bounds one token-refresh cycle. The browser launch
// dominates this, so it is longer than the data-call timeout.
const defaultRefreshTimeout = 60 * time.Second

// authMarkers are the case-insensitive substrings a 401 body must contain
// for the failure to count as an authentication failure eligible for a
// token refresh. This mirrors the API's current wording and is a known
// fragility: a markerless 401 is reported but never refreshed.
var authMarkers = []string{
	"unauthenticated",
	"authentication",
	"api key",
}

// Client is an authenticated hudstats API client. It holds a default header
// set plus at most one active bearer token, which is replaced wholesale when
// a refresh succeeds.
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	baseURL        string
	provider       auth.Provider
	refreshTimeout time.Duration
	onRefresh      func(*auth.Token)
	logger         logger.Logger
}

// NewClient creates a hudstats API client with the browser-like default
// headers the site's own frontend sends.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"accept":          "application/json, text/plain, */*",
			"accept-language": "en-US,en;q=0.9",
			"origin":          "https://h2hggl.com",
			"referer":         "https://h2hggl.com/",
			"user-agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
		},
		baseURL:        baseURL,
		refreshTimeout: defaultRefreshTimeout,
		logger:         log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetAuthToken replaces the bearer token used for authorization
func (c *Client) SetAuthToken(token string) {
	c.headers["authorization"] = "Bearer " + token
}

// SetProvider installs the credential provider used to refresh the token
// after an authentication failure. Without a provider the client never
// refreshes.
func (c *Client) SetProvider(p auth.Provider) {
	c.provider = p
}

// OnRefresh registers a callback invoked with every freshly acquired token,
// so callers can persist it for later runs.
func (c *Client) OnRefresh(fn func(*auth.Token)) {
	c.onRefresh = fn
}

// FetchSchedulePage fetches a single page of completed matches
func (c *Client) FetchSchedulePage(ctx context.Context, params ScheduleParams) (*SchedulePage, error) {
	url := ScheduleURL(c.baseURL, params)

	c.logger.DebugWithFields("fetching schedule page", map[string]interface{}{
		"page": params.Page,
		"from": params.From,
		"to":   params.To,
	})

	var page SchedulePage
	if err := c.getJSON(ctx, url, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// FetchMatchStats fetches the detailed statistics for a single match
func (c *Client) FetchMatchStats(ctx context.Context, matchID string) (Stats, error) {
	url := MatchStatsURL(c.baseURL, matchID)

	c.logger.DebugWithFields("fetching match statistics", map[string]interface{}{
		"match_id": matchID,
	})

	var stats Stats
	if err := c.getJSON(ctx, url, &stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
// On an authentication failure that carries a known marker it refreshes the
// token through the provider and retries, at most once per logical request.
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	for attempt := 0; ; attempt++ {
		err := c.doGetJSON(ctx, url, target)
		if err == nil {
			return nil
		}

		// One refresh cycle per logical request.
		if attempt > 0 || c.provider == nil || !isMarkedAuthFailure(err) {
			return err
		}

		c.logger.WarnWithFields("authentication failed, refreshing token", map[string]interface{}{
			"url": url,
		})

		if refreshErr := c.refreshToken(ctx); refreshErr != nil {
			c.logger.ErrorWithFields("token refresh failed", map[string]interface{}{
				"error": refreshErr.Error(),
			})
			return err
		}

		c.logger.Info("retrying request with new token")
	}
}

// refreshToken acquires a fresh token through the provider, bounded by the
// refresh timeout, and installs it.
func (c *Client) refreshToken(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	token, err := c.provider.Acquire(refreshCtx)
	if err != nil {
		return err
	}

	c.SetAuthToken(token.Token)
	if c.onRefresh != nil {
		c.onRefresh(token)
	}

	return nil
}

// doGetJSON performs one GET attempt with the configured headers
func (c *Client) doGetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := checkStatus(resp.StatusCode, body); err != nil {
		c.logger.WarnWithFields("API request failed", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
			"type":   string(errors.TypeOf(err)),
		})
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	return nil
}

// checkStatus maps an HTTP status to the error taxonomy
func checkStatus(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case statusCode == http.StatusUnauthorized:
		if hasAuthMarker(body) {
			return &authMarkerError{inner: errors.New(errors.ErrorTypeAuth, "authentication required", statusCode)}
		}
		return errors.New(errors.ErrorTypeAuth, "authentication required", statusCode)
	case statusCode == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, "resource not found", statusCode)
	case statusCode >= http.StatusInternalServerError:
		return errors.New(errors.ErrorTypeServerError, "server error", statusCode)
	default:
		return errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", statusCode), statusCode)
	}
}

// hasAuthMarker reports whether the response body contains one of the known
// authentication-failure markers.
func hasAuthMarker(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, marker := range authMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// authMarkerError wraps an auth error whose body carried a marker. Only
// these may trigger a token refresh; a bare 401 is terminal.
type authMarkerError struct {
	inner *errors.Error
}

func (e *authMarkerError) Error() string { return e.inner.Error() }
func (e *authMarkerError) Unwrap() error { return e.inner }

// isMarkedAuthFailure reports whether err is a refresh-eligible auth failure
func isMarkedAuthFailure(err error) bool {
	var marked *authMarkerError
	return stderrors.As(err, &marked)
}
