package extract

import (
	"sort"

	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/resource"
)

// Edge is one import/instantiation relationship found on a capability
// resource, together with its declared expectation.
type Edge struct {
	Source string
	Target string
	Level  priority.Level
}

// Import-bearing fields on CapabilityStatement.
var importFields = []string{"imports", "instantiates"}

// ImportEdges returns a resource's import edges sorted by target so callers
// traverse in a stable order. The per-element expectation comes from the
// parallel "_imports"/"_instantiates" metadata; undeclared elements default
// to SHALL.
func ImportEdges(res *resource.Resource) []Edge {
	if res == nil {
		return nil
	}
	source := res.Identifier()

	var edges []Edge
	for _, field := range importFields {
		value, ok := res.Data[field]
		if !ok {
			continue
		}
		parallel := res.Data["_"+field]

		switch val := value.(type) {
		case string:
			level, _ := priority.FromExtensions(parallel)
			edges = append(edges, Edge{Source: source, Target: val, Level: level})
		case []any:
			for i, item := range val {
				target, ok := item.(string)
				if !ok || target == "" {
					continue
				}
				edges = append(edges, Edge{
					Source: source,
					Target: target,
					Level:  priority.OfElement(parallel, i),
				})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].Target < edges[j].Target })
	return edges
}
