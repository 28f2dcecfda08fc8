package openapi

import (
	"testing"
)

func testDoc() Document {
	return Document{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"User": map[string]interface{}{
					"type": "object",
				},
				"a/b": map[string]interface{}{
					"type": "string",
				},
				"odd~name": map[string]interface{}{
					"type": "integer",
				},
			},
			"parameters": []interface{}{
				map[string]interface{}{"name": "limit", "in": "query"},
			},
		},
	}
}

func TestResolveSchema(t *testing.T) {
	doc := testDoc()

	value, ok := Resolve(doc, "#/components/schemas/User")
	if !ok {
		t.Fatal("Expected the pointer to resolve")
	}

	schema, ok := value.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected a map, got %T", value)
	}
	if schema["type"] != "object" {
		t.Errorf("Expected type object, got %v", schema["type"])
	}
}

func TestResolveArrayIndex(t *testing.T) {
	doc := testDoc()

	value, ok := Resolve(doc, "#/components/parameters/0")
	if !ok {
		t.Fatal("Expected the array index to resolve")
	}

	param := value.(map[string]interface{})
	if param["name"] != "limit" {
		t.Errorf("Expected parameter limit, got %v", param["name"])
	}
}

func TestResolveEscapedSegments(t *testing.T) {
	doc := testDoc()

	// ~1 encodes a slash inside a key
	if _, ok := Resolve(doc, "#/components/schemas/a~1b"); !ok {
		t.Error("Expected ~1 escape to resolve")
	}

	// ~0 encodes a tilde inside a key
	if _, ok := Resolve(doc, "#/components/schemas/odd~0name"); !ok {
		t.Error("Expected ~0 escape to resolve")
	}

	// percent-encoding decodes before the tilde escapes
	if _, ok := Resolve(doc, "#/components/schemas/a%7E1b"); !ok {
		t.Error("Expected percent-encoded segment to resolve")
	}
}

func TestResolveFailures(t *testing.T) {
	doc := testDoc()

	cases := []string{
		"#/components/schemas/Missing",      // absent key
		"#/components/parameters/5",         // index out of range
		"#/components/parameters/notanint",  // non-numeric index into an array
		"#/components/schemas/User/type/oops", // descends into a scalar
		"http://example.com/other.json#/a",  // remote reference
		"components/schemas/User",           // missing #/ prefix
	}

	for _, ref := range cases {
		if _, ok := Resolve(doc, ref); ok {
			t.Errorf("Expected %q not to resolve", ref)
		}
	}
}

func TestResolveNullValue(t *testing.T) {
	doc := Document{"example": nil}

	if _, ok := Resolve(doc, "#/example"); ok {
		t.Error("Expected a null target to report not-found")
	}
}
