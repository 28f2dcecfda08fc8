package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

func TestMapStringSchema(t *testing.T) {
	schema := map[string]interface{}{
		"type":        "string",
		"description": "A user name",
		"minLength":   float64(1),
		"maxLength":   float64(64),
		"pattern":     "^[a-z]+$",
	}

	spec := MapType(schema, Document{}, map[string]bool{})

	assert.Equal(t, interfaces.TypeString, spec.Type)
	assert.Equal(t, "A user name", spec.Description)
	require.NotNil(t, spec.MinLength)
	assert.Equal(t, 1, *spec.MinLength)
	require.NotNil(t, spec.MaxLength)
	assert.Equal(t, 64, *spec.MaxLength)
	assert.Equal(t, "^[a-z]+$", spec.Pattern)
}

func TestMapStringEnum(t *testing.T) {
	schema := map[string]interface{}{
		"type": "string",
		"enum": []interface{}{"asc", "desc"},
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, []string{"asc", "desc"}, spec.Enum)

	// A mixed-type enum degrades to a plain string
	schema["enum"] = []interface{}{"asc", float64(2)}
	spec = MapType(schema, Document{}, map[string]bool{})
	assert.Empty(t, spec.Enum)
	assert.Equal(t, interfaces.TypeString, spec.Type)
}

func TestMapStringFormat(t *testing.T) {
	spec := MapType(map[string]interface{}{"type": "string", "format": "date-time"}, Document{}, map[string]bool{})
	assert.Equal(t, "date-time", spec.Format)

	// Unknown formats are dropped rather than enforced
	spec = MapType(map[string]interface{}{"type": "string", "format": "hostname"}, Document{}, map[string]bool{})
	assert.Empty(t, spec.Format)
}

func TestMapNullableString(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "string",
		"nullable": true,
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeString, spec.Type)
	assert.True(t, spec.Nullable)
}

func TestMapTypeArrayUnion(t *testing.T) {
	schema := map[string]interface{}{
		"type": []interface{}{"string", "integer"},
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeUnion, spec.Type)
	require.Len(t, spec.OneOf, 2)
	assert.Equal(t, interfaces.TypeString, spec.OneOf[0].Type)
	assert.Equal(t, interfaces.TypeInteger, spec.OneOf[1].Type)
}

func TestMapTypeArrayWithNull(t *testing.T) {
	// 3.1 spelling: ["string", "null"] collapses to a nullable string
	schema := map[string]interface{}{
		"type": []interface{}{"string", "null"},
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeString, spec.Type)
	assert.True(t, spec.Nullable)
	assert.Empty(t, spec.OneOf)
}

func TestMapObject(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":   map[string]interface{}{"type": "integer"},
			"name": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"id"},
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeObject, spec.Type)
	require.Contains(t, spec.Properties, "id")
	require.Contains(t, spec.Properties, "name")
	assert.True(t, spec.Properties["id"].Required)
	assert.False(t, spec.Properties["name"].Required)
	assert.False(t, spec.AdditionalProperties)
}

func TestMapMapStyleObject(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"additionalProperties": map[string]interface{}{
			"type": "string",
		},
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeObject, spec.Type)
	assert.True(t, spec.AdditionalProperties)
	require.NotNil(t, spec.ValueType)
	assert.Equal(t, interfaces.TypeString, spec.ValueType.Type)
}

func TestMapArrayOfObjects(t *testing.T) {
	schema := map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tag": map[string]interface{}{"type": "string"},
			},
		},
		"minItems": float64(1),
	}

	spec := MapType(schema, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeArray, spec.Type)
	require.NotNil(t, spec.Items)
	assert.Equal(t, interfaces.TypeObject, spec.Items.Type)
	require.NotNil(t, spec.MinItems)
	assert.Equal(t, 1, *spec.MinItems)
}

func TestMapReference(t *testing.T) {
	doc := Document{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Name": map[string]interface{}{
					"type":        "string",
					"description": "from the target",
				},
			},
		},
	}

	spec := MapType(map[string]interface{}{"$ref": "#/components/schemas/Name"}, doc, map[string]bool{})
	assert.Equal(t, interfaces.TypeString, spec.Type)
	assert.Equal(t, "from the target", spec.Description)

	// Sibling description overrides the target's
	node := map[string]interface{}{
		"$ref":        "#/components/schemas/Name",
		"description": "from the site of use",
	}
	spec = MapType(node, doc, map[string]bool{})
	assert.Equal(t, "from the site of use", spec.Description)
}

func TestMapUnresolvableReference(t *testing.T) {
	spec := MapType(map[string]interface{}{"$ref": "#/components/schemas/Gone"}, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeUnresolved, spec.Type)
	assert.Equal(t, "#/components/schemas/Gone", spec.Ref)
}

func TestMapCircularReference(t *testing.T) {
	// A references B, B references A; mapping must terminate with a sentinel
	doc := Document{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"A": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"b": map[string]interface{}{"$ref": "#/components/schemas/B"},
					},
				},
				"B": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"a": map[string]interface{}{"$ref": "#/components/schemas/A"},
					},
				},
			},
		},
	}

	spec := MapType(map[string]interface{}{"$ref": "#/components/schemas/A"}, doc, map[string]bool{})

	assert.Equal(t, interfaces.TypeObject, spec.Type)
	b := spec.Properties["b"]
	require.Equal(t, interfaces.TypeObject, b.Type)
	a := b.Properties["a"]
	assert.Equal(t, interfaces.TypeUnresolved, a.Type)
	assert.Equal(t, "#/components/schemas/A", a.Ref)
}

func TestMapSiblingBranchesAreNotCycles(t *testing.T) {
	// Two sibling properties referencing the same schema is reuse, not a cycle
	doc := Document{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Addr": map[string]interface{}{"type": "string"},
			},
		},
	}

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"home": map[string]interface{}{"$ref": "#/components/schemas/Addr"},
			"work": map[string]interface{}{"$ref": "#/components/schemas/Addr"},
		},
	}

	spec := MapType(schema, doc, map[string]bool{})
	assert.Equal(t, interfaces.TypeString, spec.Properties["home"].Type)
	assert.Equal(t, interfaces.TypeString, spec.Properties["work"].Type)
}

func TestMapParameterWrapper(t *testing.T) {
	param := map[string]interface{}{
		"name":        "limit",
		"in":          "query",
		"required":    true,
		"description": "parameter description",
		"schema": map[string]interface{}{
			"type":        "integer",
			"description": "schema description",
		},
	}

	spec := MapType(param, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeInteger, spec.Type)
	assert.True(t, spec.Required)
	assert.Equal(t, "parameter description", spec.Description)
}

func TestMapUntypedSchema(t *testing.T) {
	spec := MapType(map[string]interface{}{}, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeAny, spec.Type)

	// An untyped schema with properties is inferred to be an object
	spec = MapType(map[string]interface{}{
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "string"},
		},
	}, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeObject, spec.Type)

	// An untyped schema with items is inferred to be an array
	spec = MapType(map[string]interface{}{
		"items": map[string]interface{}{"type": "string"},
	}, Document{}, map[string]bool{})
	assert.Equal(t, interfaces.TypeArray, spec.Type)
}
