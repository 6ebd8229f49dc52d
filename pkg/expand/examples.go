package expand

import "github.com/gofhir/expander/pkg/resource"

// MatchExamples returns every indexed resource whose declared meta.profile
// intersects the collected profile set, in stable (type, id) order. This is
// a terminal pass: matched resources are attached to the result but never
// fed back into extraction.
func (e *Expander) MatchExamples(collected map[string]bool) []*resource.Resource {
	var matched []*resource.Resource

	for _, res := range e.idx.Resources() {
		for _, profile := range res.MetaProfiles() {
			if collected[profile] {
				matched = append(matched, res)
				break
			}
		}
	}
	return matched
}
