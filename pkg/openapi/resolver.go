package openapi

import (
	"net/url"
	"strconv"
	"strings"
)

// Resolve resolves a local JSON-Pointer reference ("#/...") within the
// document. Resolution failure is a normal outcome reported through the
// boolean, never an error: callers degrade to a permissive fallback type.
// References to other documents or remote URLs resolve to not-found.
func Resolve(doc Document, ref string) (interface{}, bool) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, false
	}

	var current interface{} = map[string]interface{}(doc)
	for _, segment := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		key, ok := decodeSegment(segment)
		if !ok {
			return nil, false
		}

		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := node[key]
			if !ok {
				return nil, false
			}
			current = value
		case []interface{}:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

// decodeSegment percent-decodes a pointer segment and unescapes the
// JSON-Pointer sequences ~1 (slash) and ~0 (tilde), in that order.
func decodeSegment(segment string) (string, bool) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", false
	}
	decoded = strings.ReplaceAll(decoded, "~1", "/")
	decoded = strings.ReplaceAll(decoded, "~0", "~")
	return decoded, true
}
