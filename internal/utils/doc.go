// Package utils provides the file helpers shared by pipeline stages:
// YAML and JSON documents, binary artifacts, directory creation, size reporting
// and base64 image codecs. Every helper takes a context so it logs through the
// logger its caller attached (see the logger package).
package utils
