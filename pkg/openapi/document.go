package openapi

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed API specification. Documents are kept as loose maps:
// third-party specs routinely contain constructs outside the official schema,
// and unknown shapes must degrade to permissive fallbacks instead of failing
// the whole document.
type Document map[string]interface{}

// ParseDocument parses raw spec text. JSON is tried first, then YAML.
func ParseDocument(raw string) (Document, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err == nil {
		return Document(doc), nil
	}

	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse spec document: %w", err)
	}
	return Document(doc), nil
}

// Title returns the document's info.title, or an empty string
func (d Document) Title() string {
	info, _ := d["info"].(map[string]interface{})
	title, _ := info["title"].(string)
	return title
}

// Servers returns the document's first server URL, or an empty string
func (d Document) ServerURL() string {
	servers, _ := d["servers"].([]interface{})
	if len(servers) == 0 {
		return ""
	}
	first, _ := servers[0].(map[string]interface{})
	url, _ := first["url"].(string)
	return url
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

// asInt converts the numeric encodings produced by the JSON and YAML parsers
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

// refOf returns the $ref pointer of a node, if it has one
func refOf(node map[string]interface{}) (string, bool) {
	ref, ok := node["$ref"].(string)
	return ref, ok && ref != ""
}
