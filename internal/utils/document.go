package utils

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed YAML or JSON mapping.
// Values are reached through explicit lookups that report whether a key was found.
type Document map[string]any

// pathSeparator separates nested keys in Lookup paths.
const pathSeparator = "."

// Get returns the top-level value stored under key.
func (d Document) Get(key string) (any, bool) {
	value, ok := d[key]

	return value, ok
}

// Lookup resolves a dot-separated path such as "data_ingestion.source_url".
func (d Document) Lookup(path string) (any, bool) {
	var (
		current any = d
		keys        = strings.Split(path, pathSeparator)
	)

	for _, key := range keys {
		mapping, ok := asDocument(current)
		if !ok {
			return nil, false
		}

		current, ok = mapping[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// String returns the string at path.
func (d Document) String(path string) (string, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return "", false
	}

	result, ok := value.(string)

	return result, ok
}

// Int returns the integer at path. JSON numbers are accepted when they have no fraction.
func (d Document) Int(path string) (int, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		if v > math.MaxInt {
			return 0, false
		}

		return int(v), true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt || v < math.MinInt {
			return 0, false
		}

		return int(v), true
	default:
		return 0, false
	}
}

// Float returns the number at path.
func (d Document) Float(path string) (float64, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean at path.
func (d Document) Bool(path string) (bool, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return false, false
	}

	result, ok := value.(bool)

	return result, ok
}

// Sub returns the nested mapping at path.
func (d Document) Sub(path string) (Document, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return nil, false
	}

	return asDocument(value)
}

// Decode fills out, a pointer to a struct or map, from the document.
// Struct fields are matched through their `yaml` tags.
func (d Document) Decode(out any) error {
	content, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err = yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	return nil
}

// asDocument converts the mapping shapes produced by the YAML and JSON decoders.
func asDocument(value any) (Document, bool) {
	switch v := value.(type) {
	case Document:
		return v, true
	case map[string]any:
		return Document(v), true
	case map[any]any:
		result := make(Document, len(v))
		for key, item := range v {
			result[fmt.Sprint(key)] = item
		}

		return result, true
	default:
		return nil, false
	}
}
