// Package hudstats provides an authenticated client for the hudstats
// sports statistics API behind h2hggl.com.
//
// The client sends the browser-like header set the site's own frontend
// uses, authorizes with a bearer token, and knows two endpoints: the
// paginated completed-match schedule and per-match statistics. Both payloads
// are treated as opaque server-defined JSON.
//
// When a request fails with a 401 whose body carries a known authentication
// marker, the client acquires a fresh token through its auth.Provider and
// retries the request exactly once. All other failures (bare 401, 404,
// transport errors, undecodable bodies) are terminal for that request and
// reported as typed errors from pkg/errors.
package hudstats
