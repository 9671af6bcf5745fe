package ingestion

import "errors"

var (
	// ErrIllegalArchivePath indicates an archive entry that would be written outside the extraction directory.
	ErrIllegalArchivePath = errors.New("illegal path in archive")
	// ErrEmptySourceURL indicates that the stage has no URL to download from.
	ErrEmptySourceURL = errors.New("source URL cannot be empty")
)
