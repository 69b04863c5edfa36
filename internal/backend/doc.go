// Package backend builds the shared HTTP client used for every request to
// the remote AI backend. Authentication (API key, bearer token) is injected
// by a RoundTripper so callers never handle credentials directly.
package backend
