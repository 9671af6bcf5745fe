// Package http provides http.RoundTripper decorators used by the dataset client:
// debug logging of request and response dumps, and User-Agent injection.
package http
