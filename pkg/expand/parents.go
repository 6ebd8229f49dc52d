package expand

import "github.com/gofhir/expander/pkg/resource"

// ParentChain is the outcome of walking a derives-from chain upward.
type ParentChain struct {
	// Chain holds the resolved ancestors, nearest base first.
	Chain []*resource.Resource

	// External is the first base URL under a known external base prefix.
	// Its absence from the input set is expected, not an error.
	External string

	// Missing is the first base URL that resolved to nothing and is not a
	// known external base.
	Missing string
}

// WalkParents follows a structure definition's baseDefinition references
// upward until the chain ends, leaves the input set, or repeats. A per-walk
// visited set protects against derivation cycles.
func (e *Expander) WalkParents(res *resource.Resource) ParentChain {
	var out ParentChain
	visited := map[string]bool{res.Identifier(): true}

	current := res
	for {
		base := current.BaseDefinition()
		if base == "" || visited[base] {
			return out
		}
		visited[base] = true

		parent, err := e.idx.Resolve(base)
		if err != nil {
			if e.isExternalBase(base) {
				out.External = base
			} else {
				out.Missing = base
			}
			return out
		}

		out.Chain = append(out.Chain, parent)
		current = parent
	}
}
