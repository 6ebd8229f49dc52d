package expand

import "github.com/gofhir/expander/pkg/resource"

// Stats aggregates the non-fatal conditions of one expansion run.
type Stats struct {
	// Copied is the number of resources in the final self-contained set.
	Copied int `json:"copied"`

	// SkippedExternalBase counts references under a known external base
	// prefix, expected to be absent from the input set.
	SkippedExternalBase int `json:"skippedExternalBase"`

	// NotFound counts references that resolved to nothing.
	NotFound int `json:"notFound"`

	// Cycles counts unique circular import edges.
	Cycles int `json:"cycles"`

	// Excluded counts import edges skipped by the expectation filter.
	Excluded int `json:"excluded"`

	// Passes is the number of fixed-point passes the driver needed.
	Passes int `json:"passes"`
}

// Result is the outcome of one expansion run.
type Result struct {
	// Merged is the expanded root document: imports resolved and stripped,
	// identity fields rewritten with the -expanded convention.
	Merged *resource.Resource

	// References holds every collected identifier, sorted.
	References []string

	// Resources is the self-contained document set, sorted by (type, id).
	// The merged root is not part of it.
	Resources []*resource.Resource

	// Stats carries the run counters.
	Stats Stats
}

// rewriteIdentity produces the final merged root resource. The document has
// already been copied, so the rewrite never touches indexed data.
func rewriteIdentity(root *resource.Resource, merged map[string]any) *resource.Resource {
	out := &resource.Resource{
		Type:   root.Type,
		ID:     root.ID + "-expanded",
		Data:   merged,
		Origin: root.Origin,
		Rel:    root.Rel,
	}
	merged["id"] = out.ID

	if root.URL != "" {
		out.URL = root.URL + "-expanded"
		merged["url"] = out.URL
	}
	if root.Version != "" {
		out.Version = root.Version
	}
	if root.Name != "" {
		out.Name = root.Name + "Expanded"
		merged["name"] = out.Name
	}
	if root.Title != "" {
		out.Title = root.Title + " (Expanded)"
		merged["title"] = out.Title
	}
	return out
}
