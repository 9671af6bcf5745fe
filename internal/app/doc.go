// Package app wires configuration, logging, the dataset client and the ingestion
// service together and runs the pipeline stage selected on the command line.
package app
