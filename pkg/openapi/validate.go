package openapi

import (
	"fmt"
	"math"
	"regexp"

	"github.com/go-openapi/strfmt"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// ValidateArguments checks caller arguments against a parameter schema and
// returns a list of human-readable issues. An empty list means the arguments
// satisfy the schema. Unknown constraints pass; validation never rejects what
// it cannot understand.
func ValidateArguments(params map[string]interfaces.ParameterSpec, args map[string]interface{}) []string {
	var issues []string

	for name, spec := range params {
		value, present := args[name]
		if !present {
			if spec.Required {
				issues = append(issues, fmt.Sprintf("missing required parameter %q", name))
			}
			continue
		}
		issues = append(issues, validateValue(name, spec, value)...)
	}

	return issues
}

func validateValue(name string, spec interfaces.ParameterSpec, value interface{}) []string {
	if value == nil {
		if spec.Nullable || spec.Type == interfaces.TypeAny || spec.Type == interfaces.TypeUnresolved {
			return nil
		}
		return []string{fmt.Sprintf("parameter %q must not be null", name)}
	}

	switch spec.Type {
	case interfaces.TypeString:
		return validateString(name, spec, value)
	case interfaces.TypeInteger:
		if !isInteger(value) {
			return []string{fmt.Sprintf("parameter %q must be an integer", name)}
		}
	case interfaces.TypeNumber:
		if !isNumber(value) {
			return []string{fmt.Sprintf("parameter %q must be a number", name)}
		}
	case interfaces.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("parameter %q must be a boolean", name)}
		}
	case interfaces.TypeArray:
		return validateArray(name, spec, value)
	case interfaces.TypeObject:
		return validateObject(name, spec, value)
	case interfaces.TypeUnion:
		// A union value is acceptable when any member accepts it
		for _, member := range spec.OneOf {
			if len(validateValue(name, member, value)) == 0 {
				return nil
			}
		}
		return []string{fmt.Sprintf("parameter %q matches no member of its union type", name)}
	}

	// any / unresolved accept everything
	return nil
}

func validateString(name string, spec interfaces.ParameterSpec, value interface{}) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("parameter %q must be a string", name)}
	}

	var issues []string

	if len(spec.Enum) > 0 {
		found := false
		for _, allowed := range spec.Enum {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("parameter %q must be one of %v", name, spec.Enum))
		}
	}

	if spec.MinLength != nil && len(s) < *spec.MinLength {
		issues = append(issues, fmt.Sprintf("parameter %q is shorter than %d characters", name, *spec.MinLength))
	}
	if spec.MaxLength != nil && len(s) > *spec.MaxLength {
		issues = append(issues, fmt.Sprintf("parameter %q is longer than %d characters", name, *spec.MaxLength))
	}

	if spec.Pattern != "" {
		// An uncompilable pattern is a spec defect, not an argument defect
		if re, err := regexp.Compile(spec.Pattern); err == nil && !re.MatchString(s) {
			issues = append(issues, fmt.Sprintf("parameter %q does not match pattern %q", name, spec.Pattern))
		}
	}

	if spec.Format != "" && !strfmt.Default.Validates(spec.Format, s) {
		issues = append(issues, fmt.Sprintf("parameter %q is not a valid %s", name, spec.Format))
	}

	return issues
}

func validateArray(name string, spec interfaces.ParameterSpec, value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{fmt.Sprintf("parameter %q must be an array", name)}
	}

	var issues []string
	if spec.MinItems != nil && len(items) < *spec.MinItems {
		issues = append(issues, fmt.Sprintf("parameter %q has fewer than %d items", name, *spec.MinItems))
	}
	if spec.MaxItems != nil && len(items) > *spec.MaxItems {
		issues = append(issues, fmt.Sprintf("parameter %q has more than %d items", name, *spec.MaxItems))
	}

	if spec.Items != nil {
		for i, item := range items {
			issues = append(issues, validateValue(fmt.Sprintf("%s[%d]", name, i), *spec.Items, item)...)
		}
	}

	return issues
}

func validateObject(name string, spec interfaces.ParameterSpec, value interface{}) []string {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return []string{fmt.Sprintf("parameter %q must be an object", name)}
	}

	var issues []string

	if spec.ValueType != nil {
		for key, v := range obj {
			issues = append(issues, validateValue(fmt.Sprintf("%s.%s", name, key), *spec.ValueType, v)...)
		}
		return issues
	}

	for field, fieldSpec := range spec.Properties {
		v, present := obj[field]
		if !present {
			if fieldSpec.Required {
				issues = append(issues, fmt.Sprintf("parameter %q is missing required field %q", name, field))
			}
			continue
		}
		issues = append(issues, validateValue(fmt.Sprintf("%s.%s", name, field), fieldSpec, v)...)
	}

	if !spec.AdditionalProperties && spec.Properties != nil {
		for field := range obj {
			if _, declared := spec.Properties[field]; !declared {
				issues = append(issues, fmt.Sprintf("parameter %q has undeclared field %q", name, field))
			}
		}
	}

	return issues
}

func isInteger(value interface{}) bool {
	switch n := value.(type) {
	case float64:
		return n == math.Trunc(n)
	case int, int32, int64:
		return true
	}
	return false
}

func isNumber(value interface{}) bool {
	switch value.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}
