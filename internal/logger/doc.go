// Package logger provides a structured logging solution using the Zap logging library.
// It includes utilities for creating and managing loggers, setting log levels,
// and attaching a logger to a context so that every operation logs through
// the sink its caller injected. Without an injected logger the helpers fall
// back to a process-wide console logger.
package logger
