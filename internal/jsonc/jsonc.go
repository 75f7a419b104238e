// Package jsonc parses the relaxed JSON dialect used by project descriptor
// files: comments, trailing commas, unquoted keys and single quotes.
package jsonc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/titanous/json5"
	"go.uber.org/zap"
)

// ErrNotObject is returned when the document's top level is not an object.
var ErrNotObject = errors.New("jsonc: top level is not an object")

// Document holds the top-level fields of a descriptor.
type Document map[string]any

// Parse decodes content strictly and reports any syntax error.
func Parse(content []byte) (Document, error) {
	var raw any
	if err := json5.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decode jsonc: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return Document(obj), nil
}

// ParseLenient returns nil for empty or malformed content. Failures are
// logged and never returned.
func ParseLenient(content string, logger *zap.Logger) Document {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	doc, err := Parse([]byte(content))
	if err != nil {
		if logger != nil {
			logger.Warn("discarding unparseable config", zap.Error(err))
		}
		return nil
	}
	return doc
}

// String returns the value stored under key, or fallback when the key is
// missing or null. Non-string scalars are formatted.
func (d Document) String(key, fallback string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return fallback
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}
