package openapi

import (
	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// MapType converts an OpenAPI schema or parameter node into a ParameterSpec.
// visited holds the pointer strings already entered on the current recursive
// path; re-entering one yields the circular-reference sentinel instead of
// recursing forever. Every recursive branch receives a copy of visited so
// sibling branches do not see each other's references as cycles.
func MapType(node interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	schema, ok := asMap(node)
	if !ok {
		return interfaces.ParameterSpec{Type: interfaces.TypeAny}
	}

	// The three node shapes (parameter wrapper, reference, schema) are
	// mutually exclusive and fully determined by the fields present.
	if isParameter(schema) {
		return mapParameter(schema, doc, visited)
	}

	if ref, ok := refOf(schema); ok {
		return mapReference(schema, ref, doc, visited)
	}

	spec := mapSchema(schema, doc, visited)

	// 3.0-style nullable wraps the mapped type
	if asBool(schema["nullable"]) {
		spec.Nullable = true
	}

	// Description last, so it survives re-mapping of inferred types
	if desc, ok := asString(schema["description"]); ok && desc != "" {
		spec.Description = desc
	}

	return spec
}

func isParameter(node map[string]interface{}) bool {
	_, hasIn := asString(node["in"])
	_, hasName := asString(node["name"])
	return hasIn && hasName
}

func mapParameter(param map[string]interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	var spec interfaces.ParameterSpec
	if schema, ok := param["schema"]; ok {
		spec = MapType(schema, doc, copyVisited(visited))
	} else {
		spec = interfaces.ParameterSpec{Type: interfaces.TypeAny}
	}

	// The parameter's own description wins over the schema's
	if desc, ok := asString(param["description"]); ok && desc != "" {
		spec.Description = desc
	}
	spec.Required = asBool(param["required"])
	return spec
}

func mapReference(node map[string]interface{}, ref string, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	if visited[ref] {
		// Cycle: close the edge with the sentinel so mapping terminates
		return interfaces.ParameterSpec{Type: interfaces.TypeUnresolved, Ref: ref}
	}

	resolved, ok := Resolve(doc, ref)
	if !ok {
		return interfaces.ParameterSpec{Type: interfaces.TypeUnresolved, Ref: ref}
	}

	branch := copyVisited(visited)
	branch[ref] = true
	spec := MapType(resolved, doc, branch)

	// Siblings of the reference override what the target declares
	if desc, ok := asString(node["description"]); ok && desc != "" {
		spec.Description = desc
	}
	if _, ok := node["required"]; ok {
		spec.Required = asBool(node["required"])
	}
	return spec
}

func mapSchema(schema map[string]interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	// 3.1-style type arrays become a union of the non-null members
	if types, ok := asSlice(schema["type"]); ok {
		return mapTypeArray(schema, types, doc, visited)
	}

	typeName, _ := asString(schema["type"])
	switch typeName {
	case "string":
		return mapString(schema)
	case "integer":
		return interfaces.ParameterSpec{Type: interfaces.TypeInteger}
	case "number":
		return interfaces.ParameterSpec{Type: interfaces.TypeNumber}
	case "boolean":
		return interfaces.ParameterSpec{Type: interfaces.TypeBoolean}
	case "array":
		return mapArray(schema, doc, visited)
	case "object":
		return mapObject(schema, doc, visited)
	case "":
		// Untyped schemas with object- or array-shaped fields are inferred
		if _, ok := asMap(schema["properties"]); ok {
			return mapObject(schema, doc, visited)
		}
		if _, ok := schema["additionalProperties"]; ok {
			return mapObject(schema, doc, visited)
		}
		if _, ok := schema["items"]; ok {
			return mapArray(schema, doc, visited)
		}
		return interfaces.ParameterSpec{Type: interfaces.TypeAny}
	default:
		return interfaces.ParameterSpec{Type: interfaces.TypeAny}
	}
}

func mapString(schema map[string]interface{}) interfaces.ParameterSpec {
	spec := interfaces.ParameterSpec{Type: interfaces.TypeString}

	// A non-empty, all-string enum becomes a closed string enum; anything
	// else keeps the plain string type
	if values, ok := asSlice(schema["enum"]); ok && len(values) > 0 {
		enum := make([]string, 0, len(values))
		allStrings := true
		for _, v := range values {
			s, ok := asString(v)
			if !ok {
				allStrings = false
				break
			}
			enum = append(enum, s)
		}
		if allStrings {
			spec.Enum = enum
		}
	}

	if format, _ := asString(schema["format"]); format == "date-time" || format == "email" || format == "uuid" {
		spec.Format = format
	}

	if n, ok := asInt(schema["minLength"]); ok {
		spec.MinLength = &n
	}
	if n, ok := asInt(schema["maxLength"]); ok {
		spec.MaxLength = &n
	}
	if pattern, ok := asString(schema["pattern"]); ok && pattern != "" {
		spec.Pattern = pattern
	}

	return spec
}

func mapArray(schema map[string]interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	spec := interfaces.ParameterSpec{Type: interfaces.TypeArray}

	if items, ok := schema["items"]; ok {
		itemSpec := MapType(items, doc, copyVisited(visited))
		spec.Items = &itemSpec
	} else {
		spec.Items = &interfaces.ParameterSpec{Type: interfaces.TypeAny}
	}

	if n, ok := asInt(schema["minItems"]); ok {
		spec.MinItems = &n
	}
	if n, ok := asInt(schema["maxItems"]); ok {
		spec.MaxItems = &n
	}

	return spec
}

func mapObject(schema map[string]interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	spec := interfaces.ParameterSpec{Type: interfaces.TypeObject}

	properties, hasProperties := asMap(schema["properties"])
	additional, hasAdditional := schema["additionalProperties"]

	if hasProperties {
		required := map[string]bool{}
		if names, ok := asSlice(schema["required"]); ok {
			for _, v := range names {
				if name, ok := asString(v); ok {
					required[name] = true
				}
			}
		}

		spec.Properties = make(map[string]interfaces.ParameterSpec, len(properties))
		for name, propSchema := range properties {
			prop := MapType(propSchema, doc, copyVisited(visited))
			prop.Required = required[name]
			spec.Properties[name] = prop
		}

		// additionalProperties true or a schema both degrade to an open
		// object; extra fields pass through unvalidated
		if hasAdditional {
			if asBool(additional) {
				spec.AdditionalProperties = true
			} else if _, ok := asMap(additional); ok {
				spec.AdditionalProperties = true
			}
		}
		return spec
	}

	if hasAdditional {
		// Map-style object: fixed value type, arbitrary keys
		spec.AdditionalProperties = true
		if valueSchema, ok := asMap(additional); ok {
			valueSpec := MapType(valueSchema, doc, copyVisited(visited))
			spec.ValueType = &valueSpec
		} else {
			spec.ValueType = &interfaces.ParameterSpec{Type: interfaces.TypeAny}
		}
		return spec
	}

	// No properties, no additionalProperties: an empty closed object
	spec.Properties = map[string]interfaces.ParameterSpec{}
	return spec
}

func mapTypeArray(schema map[string]interface{}, types []interface{}, doc Document, visited map[string]bool) interfaces.ParameterSpec {
	nullable := false
	members := make([]interfaces.ParameterSpec, 0, len(types))

	for _, t := range types {
		name, ok := asString(t)
		if !ok {
			continue
		}
		if name == "null" {
			nullable = true
			continue
		}

		// Re-map the schema as if it declared the single member type
		narrowed := make(map[string]interface{}, len(schema))
		for k, v := range schema {
			narrowed[k] = v
		}
		narrowed["type"] = name
		members = append(members, mapSchema(narrowed, doc, copyVisited(visited)))
	}

	var spec interfaces.ParameterSpec
	switch len(members) {
	case 0:
		spec = interfaces.ParameterSpec{Type: interfaces.TypeAny}
	case 1:
		spec = members[0]
	default:
		spec = interfaces.ParameterSpec{Type: interfaces.TypeUnion, OneOf: members}
	}
	spec.Nullable = nullable
	return spec
}

func copyVisited(visited map[string]bool) map[string]bool {
	branch := make(map[string]bool, len(visited))
	for ref := range visited {
		branch[ref] = true
	}
	return branch
}
