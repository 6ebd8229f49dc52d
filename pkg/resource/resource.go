// Package resource defines the generic document model shared by the expander.
//
// Resources are kept as opaque JSON trees with a thin typed view over the
// identifying fields. The tree is owned by the index and treated as read-only
// for the lifetime of a run; anything that needs a mutable document works on
// a deep copy.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidResource marks input that does not parse as a FHIR resource.
var ErrInvalidResource = errors.New("not a FHIR resource")

// Resource is a lightweight view over one parsed FHIR document.
type Resource struct {
	// Type is the resourceType tag (e.g., "CapabilityStatement").
	Type string

	// ID is the logical id of the resource.
	ID string

	// URL is the canonical URL, empty for non-canonical resources.
	URL string

	// Version is the business version, empty when undeclared.
	Version string

	// Name and Title carry the computable and human names, when present.
	Name  string
	Title string

	// Data is the full parsed body. Read-only.
	Data map[string]any

	// Origin is the absolute path the resource was loaded from, Rel the
	// path relative to the input directory. Both are empty for resources
	// built in memory.
	Origin string
	Rel    string
}

// Parse parses raw JSON into a Resource. The input must be a JSON object
// carrying a resourceType tag; anything else yields ErrInvalidResource.
func Parse(data []byte, origin string) (*Resource, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResource, origin, err)
	}
	return FromMap(body, origin)
}

// FromMap builds a Resource from an already-parsed JSON object.
func FromMap(body map[string]any, origin string) (*Resource, error) {
	resourceType, _ := body["resourceType"].(string)
	if resourceType == "" {
		return nil, fmt.Errorf("%w: %s: missing resourceType", ErrInvalidResource, origin)
	}

	res := &Resource{
		Type:   resourceType,
		Data:   body,
		Origin: origin,
	}
	res.ID, _ = body["id"].(string)
	res.URL, _ = body["url"].(string)
	res.Version, _ = body["version"].(string)
	res.Name, _ = body["name"].(string)
	res.Title, _ = body["title"].(string)
	return res, nil
}

// Key returns the "Type/id" identifier used for typed reference lookup.
func (r *Resource) Key() string {
	return r.Type + "/" + r.ID
}

// Identifier returns the canonical URL when present, the Type/id key
// otherwise. This is the form references to this resource take.
func (r *Resource) Identifier() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Key()
}

// String implements fmt.Stringer for log output.
func (r *Resource) String() string {
	if r.URL != "" {
		return fmt.Sprintf("%s/%s (%s)", r.Type, r.ID, r.URL)
	}
	return r.Type + "/" + r.ID
}

// MetaProfiles returns the profile URLs declared in meta.profile.
func (r *Resource) MetaProfiles() []string {
	meta, ok := r.Data["meta"].(map[string]any)
	if !ok {
		return nil
	}
	return Strings(meta["profile"])
}

// BaseDefinition returns the derives-from URL of a StructureDefinition.
func (r *Resource) BaseDefinition() string {
	base, _ := r.Data["baseDefinition"].(string)
	return base
}

// Clone returns a deep copy of the resource with an independent Data tree.
func (r *Resource) Clone() *Resource {
	clone := *r
	clone.Data = DeepCopy(r.Data)
	return &clone
}

// DeepCopy copies a JSON object tree. Scalars are shared (they are
// immutable after decoding), maps and slices are duplicated.
func DeepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// CopyValue deep-copies an arbitrary JSON value.
func CopyValue(v any) any {
	return copyValue(v)
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// Strings coerces a JSON value that may be a string or a list of strings
// into a string slice. Non-string entries are dropped.
func Strings(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
