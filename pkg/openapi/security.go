package openapi

import "sort"

// AuthRequirement reports whether an operation needs an externally issued
// bearer token, and where that token comes from.
type AuthRequirement struct {
	// Required is true when an external OIDC scheme protects the operation
	Required bool

	// AuthURL is the issuer URL of the first matching OIDC scheme
	AuthURL string
}

// ClassifyDocument computes the document-level default auth requirement from
// the top-level security list.
func ClassifyDocument(doc Document) AuthRequirement {
	requirements, ok := asSlice(doc["security"])
	if !ok {
		return AuthRequirement{}
	}
	return scanRequirements(requirements, doc)
}

// ClassifyOperation determines the auth requirement of one operation. An
// operation without its own security list inherits the document default; an
// explicitly empty list opts out of authentication entirely; a non-empty list
// overrides the default.
func ClassifyOperation(op map[string]interface{}, doc Document, docDefault AuthRequirement) AuthRequirement {
	raw, ok := op["security"]
	if !ok {
		return docDefault
	}

	requirements, ok := asSlice(raw)
	if !ok || len(requirements) == 0 {
		return AuthRequirement{}
	}
	return scanRequirements(requirements, doc)
}

// scanRequirements walks security requirements looking for a scheme of type
// openIdConnect. The first match wins; within one requirement object the
// scheme names are scanned in sorted order so the winner is deterministic.
func scanRequirements(requirements []interface{}, doc Document) AuthRequirement {
	for _, raw := range requirements {
		requirement, ok := asMap(raw)
		if !ok {
			continue
		}
		names := make([]string, 0, len(requirement))
		for name := range requirement {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			scheme, ok := lookupScheme(doc, name)
			if !ok {
				continue
			}
			if schemeType, _ := asString(scheme["type"]); schemeType == "openIdConnect" {
				url, _ := asString(scheme["openIdConnectUrl"])
				return AuthRequirement{Required: true, AuthURL: url}
			}
		}
	}
	return AuthRequirement{}
}

func lookupScheme(doc Document, name string) (map[string]interface{}, bool) {
	components, ok := asMap(doc["components"])
	if !ok {
		return nil, false
	}
	schemes, ok := asMap(components["securitySchemes"])
	if !ok {
		return nil, false
	}
	scheme, ok := asMap(schemes[name])
	if !ok {
		return nil, false
	}

	// Scheme definitions may themselves be references
	if ref, ok := refOf(scheme); ok {
		resolved, ok := Resolve(doc, ref)
		if !ok {
			return nil, false
		}
		scheme, ok = asMap(resolved)
		if !ok {
			return nil, false
		}
	}
	return scheme, true
}
