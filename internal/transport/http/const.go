package http

const (
	// userAgentHeader is the HTTP header name for User-Agent.
	userAgentHeader = "User-Agent"

	// contentTypeHeader is the HTTP header name for Content-Type.
	contentTypeHeader = "Content-Type"

	// truncatedSuffix marks a dump cut at the configured length.
	truncatedSuffix = "... [truncated]"
)
