// Package index holds the immutable snapshot of loaded resources and
// resolves reference strings against it.
//
// Two lookup structures are built once: (type, id) -> resource and
// canonical URL -> candidate list. Several resources may share a canonical
// URL across business versions; the candidate list keeps them in load order.
package index

import (
	"sort"

	"github.com/gofhir/expander/pkg/resource"
)

// Index is the read-only snapshot for one expansion run.
type Index struct {
	byKey map[string]*resource.Resource
	byURL map[string][]*resource.Resource
	all   []*resource.Resource
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byKey: make(map[string]*resource.Resource),
		byURL: make(map[string][]*resource.Resource),
	}
}

// Build creates an Index over a snapshot of resources.
func Build(resources []*resource.Resource) *Index {
	ix := New()
	for _, res := range resources {
		ix.Add(res)
	}
	return ix
}

// Add registers a resource. Later additions with the same (type, id) win;
// same-URL additions accumulate as version candidates in load order.
func (ix *Index) Add(res *resource.Resource) {
	if res == nil {
		return
	}
	if res.ID != "" {
		ix.byKey[res.Key()] = res
	}
	if res.URL != "" {
		ix.byURL[res.URL] = append(ix.byURL[res.URL], res)
	}
	ix.all = append(ix.all, res)
}

// Len returns the number of indexed resources.
func (ix *Index) Len() int {
	return len(ix.all)
}

// ByKey looks up a resource by declared type and id.
func (ix *Index) ByKey(resourceType, id string) *resource.Resource {
	return ix.byKey[resourceType+"/"+id]
}

// ByURL returns all version candidates registered under a canonical URL,
// in load order.
func (ix *Index) ByURL(url string) []*resource.Resource {
	return ix.byURL[url]
}

// Resources returns every indexed resource sorted by (type, id) so callers
// iterate in a stable order.
func (ix *Index) Resources() []*resource.Resource {
	out := make([]*resource.Resource, len(ix.all))
	copy(out, ix.all)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// URLs returns all registered canonical URLs, sorted.
func (ix *Index) URLs() []string {
	urls := make([]string, 0, len(ix.byURL))
	for url := range ix.byURL {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
