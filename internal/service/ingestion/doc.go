// Package ingestion implements the data ingestion stage of the pipeline:
// it downloads the dataset archive once and extracts it into the configured directory.
package ingestion
