package openapi

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
	"github.com/run-bigpig/apitools/pkg/tools"
)

// httpVerbs lists the path item keys treated as operations, in spec order
var httpVerbs = []string{"get", "put", "post", "delete", "patch", "head", "options"}

var identifierRuns = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// Compiler turns parsed specification documents into tool descriptors
type Compiler struct {
	logger logging.Logger
}

// NewCompiler creates a new compiler
func NewCompiler(logger logging.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// CompileSpec parses raw spec text and compiles every operation in it.
// A malformed document yields an error; a malformed individual operation is
// logged and skipped so the rest of the document still compiles.
func (c *Compiler) CompileSpec(ctx context.Context, raw, product string) ([]*tools.Descriptor, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx, doc, product), nil
}

// Compile walks every path and operation in the document and produces a
// descriptor for each one it can compile.
func (c *Compiler) Compile(ctx context.Context, doc Document, product string) []*tools.Descriptor {
	baseURL := doc.ServerURL()
	if baseURL == "" {
		c.logger.Warn(ctx, "spec has no servers entry, skipping document", map[string]interface{}{
			"product": product,
			"title":   doc.Title(),
		})
		return nil
	}

	paths, ok := asMap(doc["paths"])
	if !ok {
		c.logger.Warn(ctx, "spec has no paths, skipping document", map[string]interface{}{
			"product": product,
			"title":   doc.Title(),
		})
		return nil
	}

	docAuth := ClassifyDocument(doc)

	var descriptors []*tools.Descriptor
	for path, rawItem := range paths {
		item, ok := asMap(rawItem)
		if !ok {
			c.logger.Warn(ctx, "path item is not an object, skipping", map[string]interface{}{
				"product": product,
				"path":    path,
			})
			continue
		}

		pathParams, _ := asSlice(item["parameters"])

		for _, verb := range httpVerbs {
			rawOp, ok := item[verb]
			if !ok {
				continue
			}
			op, ok := asMap(rawOp)
			if !ok {
				c.logger.Warn(ctx, "operation is not an object, skipping", map[string]interface{}{
					"product": product,
					"path":    path,
					"verb":    verb,
				})
				continue
			}

			desc := c.compileOperation(ctx, doc, docAuth, op, pathParams, baseURL, path, verb, product)
			if desc != nil {
				descriptors = append(descriptors, desc)
			}
		}
	}

	return descriptors
}

func (c *Compiler) compileOperation(ctx context.Context, doc Document, docAuth AuthRequirement, op map[string]interface{}, pathParams []interface{}, baseURL, path, verb, product string) *tools.Descriptor {
	name := c.toolName(op, verb, path)
	if name == "" {
		c.logger.Warn(ctx, "operation yields an empty tool name, skipping", map[string]interface{}{
			"product": product,
			"path":    path,
			"verb":    verb,
		})
		return nil
	}

	params := make(map[string]interfaces.ParameterSpec)
	var placements []tools.Placement

	// Path-level parameters first, then operation-level; an operation-level
	// declaration of the same (name, location) replaces the path-level one
	type wireParam struct {
		node     map[string]interface{}
		location string
	}
	var ordered []wireParam
	seen := make(map[string]int)

	collect := func(list []interface{}) {
		for _, rawParam := range list {
			param, location, ok := c.resolveParameter(doc, rawParam)
			if !ok {
				c.logger.Warn(ctx, "unusable parameter, skipping", map[string]interface{}{
					"tool": name,
					"path": path,
				})
				continue
			}
			paramName, _ := asString(param["name"])
			key := location + ":" + paramName
			if i, dup := seen[key]; dup {
				ordered[i] = wireParam{node: param, location: location}
				continue
			}
			seen[key] = len(ordered)
			ordered = append(ordered, wireParam{node: param, location: location})
		}
	}
	opParams, _ := asSlice(op["parameters"])
	collect(pathParams)
	collect(opParams)

	for _, wp := range ordered {
		param, location := wp.node, wp.location
		paramName, _ := asString(param["name"])
		switch location {
		case "path", "query", "header":
			params[paramName] = MapType(param, doc, map[string]bool{})
			placements = append(placements, tools.Placement{
				Name: paramName,
				In:   tools.ParamLocation(location),
			})
		default:
			// Cookie and unknown placements have no wire routing here
			c.logger.Warn(ctx, "unsupported parameter location, skipping", map[string]interface{}{
				"tool":     name,
				"param":    paramName,
				"location": location,
			})
		}
	}

	plan := tools.ExecutionPlan{
		BaseURL:      baseURL,
		Method:       strings.ToUpper(verb),
		PathTemplate: path,
		Placements:   placements,
	}

	if bodySpec, required, ok := c.compileBody(ctx, doc, op, name); ok {
		params[tools.BodyParam] = bodySpec
		plan.HasBody = true
		plan.BodyRequired = required
	}

	auth := ClassifyOperation(op, doc, docAuth)
	if auth.Required {
		plan.AuthURL = auth.AuthURL
		params[tools.AuthTokenParam] = interfaces.ParameterSpec{
			Type:        interfaces.TypeString,
			Description: fmt.Sprintf("Bearer token for this API, issued by %s. Overrides the managed credentials.", auth.AuthURL),
		}
	}

	return &tools.Descriptor{
		Name:        name,
		DisplayName: c.displayName(op, verb, path),
		Description: c.description(op, verb, path),
		Category:    product,
		Parameters:  params,
		Plan:        plan,
	}
}

// resolveParameter unwraps a parameter node, following one level of $ref,
// and returns it with its wire location.
func (c *Compiler) resolveParameter(doc Document, raw interface{}) (map[string]interface{}, string, bool) {
	param, ok := asMap(raw)
	if !ok {
		return nil, "", false
	}

	if ref, ok := refOf(param); ok {
		resolved, ok := Resolve(doc, ref)
		if !ok {
			return nil, "", false
		}
		param, ok = asMap(resolved)
		if !ok {
			return nil, "", false
		}
	}

	name, _ := asString(param["name"])
	location, _ := asString(param["in"])
	if name == "" || location == "" {
		return nil, "", false
	}
	return param, location, true
}

// compileBody maps the JSON request body schema into the body parameter.
// A body whose schema is missing still produces a permissive any-typed
// parameter so the operation stays callable; the gap is logged.
func (c *Compiler) compileBody(ctx context.Context, doc Document, op map[string]interface{}, name string) (interfaces.ParameterSpec, bool, bool) {
	rawBody, ok := op["requestBody"]
	if !ok {
		return interfaces.ParameterSpec{}, false, false
	}

	body, ok := asMap(rawBody)
	if !ok {
		return interfaces.ParameterSpec{}, false, false
	}
	if ref, ok := refOf(body); ok {
		if resolved, found := Resolve(doc, ref); found {
			target, ok := asMap(resolved)
			if !ok {
				c.logger.Warn(ctx, "request body reference resolves to a non-object, using permissive body parameter", map[string]interface{}{
					"tool": name,
					"ref":  ref,
				})
				return interfaces.ParameterSpec{
					Type:        interfaces.TypeAny,
					Description: "Request body",
				}, false, true
			}
			body = target
		}
		// An unresolvable reference falls through to the missing-schema path
	}

	required := asBool(body["required"])

	content, _ := asMap(body["content"])
	media, _ := asMap(content["application/json"])
	schema, hasSchema := media["schema"]
	if !hasSchema {
		c.logger.Warn(ctx, "request body has no JSON schema, using permissive body parameter", map[string]interface{}{
			"tool": name,
		})
		spec := interfaces.ParameterSpec{
			Type:        interfaces.TypeAny,
			Description: "Request body",
			Required:    required,
		}
		return spec, required, true
	}

	spec := MapType(schema, doc, map[string]bool{})
	if spec.Description == "" {
		if desc, ok := asString(body["description"]); ok {
			spec.Description = desc
		}
	}
	spec.Required = required
	return spec, required, true
}

// toolName derives the tool identifier from operationId when present,
// else from the verb and path, sanitized either way.
func (c *Compiler) toolName(op map[string]interface{}, verb, path string) string {
	if id, ok := asString(op["operationId"]); ok && id != "" {
		return SanitizeName(id)
	}
	return SanitizeName(verb + "_" + path)
}

func (c *Compiler) displayName(op map[string]interface{}, verb, path string) string {
	if summary, ok := asString(op["summary"]); ok && summary != "" {
		return summary
	}
	if id, ok := asString(op["operationId"]); ok && id != "" {
		return id
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(verb), path)
}

func (c *Compiler) description(op map[string]interface{}, verb, path string) string {
	if desc, ok := asString(op["description"]); ok && desc != "" {
		return desc
	}
	if summary, ok := asString(op["summary"]); ok && summary != "" {
		return summary
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(verb), path)
}

// SanitizeName collapses every run of characters outside [A-Za-z0-9_] into a
// single underscore and trims leading and trailing underscores.
func SanitizeName(name string) string {
	return strings.Trim(identifierRuns.ReplaceAllString(name, "_"), "_")
}
