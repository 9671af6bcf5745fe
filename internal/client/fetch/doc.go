// Package fetch provides the HTTP client used to retrieve dataset archives.
// Requests go through the transport decorators for User-Agent injection and debug logging.
package fetch
