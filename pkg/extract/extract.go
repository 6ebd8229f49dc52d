// Package extract pulls cross-references out of FHIR conformance resources.
//
// Extraction is driven by a fixed rule table over known schema paths per
// resource type; it never walks the whole tree and never infers references
// from free text. List fields may carry a parallel "_field" companion whose
// per-element conformance expectation decides whether the matching element
// is collected. Each element is judged on its own.
package extract

import (
	"sort"

	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/resource"
)

// rule names one reference-bearing field by its schema path. Fields with
// expectation set consult the parallel "_field" metadata; extensionURL
// rules collect the url of each extension entry instead of the field value.
type rule struct {
	path         []string
	expectation  bool
	extensionURL bool
}

// Rules by resource type. Representative of the conformance surface the
// expander follows; the empty key holds rules applied to every type.
var ruleTable = map[string][]rule{
	"": {
		{path: []string{"extension"}, extensionURL: true},
		{path: []string{"modifierExtension"}, extensionURL: true},
	},
	"CapabilityStatement": {
		{path: []string{"imports"}, expectation: true},
		{path: []string{"instantiates"}, expectation: true},
		{path: []string{"rest", "compartment"}},
		{path: []string{"rest", "resource", "profile"}},
		{path: []string{"rest", "resource", "supportedProfile"}, expectation: true},
		{path: []string{"rest", "resource", "interaction", "profile"}},
		{path: []string{"rest", "resource", "searchParam", "definition"}},
		{path: []string{"rest", "resource", "searchParam", "binding", "valueSet"}},
		{path: []string{"rest", "resource", "operation", "definition"}},
		{path: []string{"rest", "operation", "definition"}},
	},
	"StructureDefinition": {
		{path: []string{"snapshot", "element", "type", "profile"}},
		{path: []string{"snapshot", "element", "type", "targetProfile"}},
		{path: []string{"snapshot", "element", "binding", "valueSet"}},
		{path: []string{"differential", "element", "type", "profile"}},
		{path: []string{"differential", "element", "type", "targetProfile"}},
		{path: []string{"differential", "element", "binding", "valueSet"}},
	},
	"ValueSet": {
		{path: []string{"compose", "include", "system"}},
		{path: []string{"compose", "include", "valueSet"}},
		{path: []string{"compose", "exclude", "system"}},
		{path: []string{"compose", "exclude", "valueSet"}},
	},
	"SearchParameter": {
		{path: []string{"component", "definition"}},
		{path: []string{"binding", "valueSet"}},
		{path: []string{"valueSet"}},
		{path: []string{"system"}},
	},
	"OperationDefinition": {
		{path: []string{"inputProfile"}},
		{path: []string{"outputProfile"}},
		{path: []string{"parameter", "binding", "valueSet"}},
		{path: []string{"parameter", "targetProfile"}},
	},
}

// Extractor applies the rule table under a priority filter.
type Extractor struct {
	filter priority.Level
}

// New creates an Extractor. Elements whose declared expectation does not
// pass the filter are not collected.
func New(filter priority.Level) *Extractor {
	return &Extractor{filter: filter}
}

// Extract returns the references a resource contains, deduplicated and
// sorted. The result covers only the enumerated structural fields.
func (e *Extractor) Extract(res *resource.Resource) []string {
	if res == nil {
		return nil
	}

	seen := make(map[string]bool)
	for _, r := range ruleTable[""] {
		e.apply(res.Data, r, seen)
	}
	for _, r := range ruleTable[res.Type] {
		e.apply(res.Data, r, seen)
	}

	out := make([]string, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// apply walks one rule path, fanning out over intermediate arrays, and
// collects the terminal field from each parent object reached.
func (e *Extractor) apply(node any, r rule, seen map[string]bool) {
	e.walk(node, r.path, func(parent map[string]any) {
		field := r.path[len(r.path)-1]
		if r.extensionURL {
			e.collectExtensionURLs(parent[field], seen)
			return
		}
		e.collectField(parent, field, r.expectation, seen)
	})
}

// walk descends the intermediate segments of a rule path and calls visit
// with every object that holds the terminal field's parent position.
func (e *Extractor) walk(node any, path []string, visit func(parent map[string]any)) {
	switch val := node.(type) {
	case []any:
		for _, item := range val {
			e.walk(item, path, visit)
		}
	case map[string]any:
		if len(path) == 1 {
			visit(val)
			return
		}
		if child, ok := val[path[0]]; ok {
			e.walk(child, path[1:], visit)
		}
	}
}

// collectField gathers a string or string-list field, consulting the
// parallel "_field" expectation metadata when the rule declares one.
func (e *Extractor) collectField(parent map[string]any, field string, expectation bool, seen map[string]bool) {
	value, ok := parent[field]
	if !ok {
		return
	}

	switch val := value.(type) {
	case string:
		if val == "" {
			return
		}
		level := priority.Default
		if expectation {
			level, _ = priority.FromExtensions(parent["_"+field])
		}
		if level.Eligible(e.filter) {
			seen[val] = true
		}
	case []any:
		parallel := parent["_"+field]
		for i, item := range val {
			str, ok := item.(string)
			if !ok || str == "" {
				continue
			}
			level := priority.Default
			if expectation {
				level = priority.OfElement(parallel, i)
			}
			if level.Eligible(e.filter) {
				seen[str] = true
			}
		}
	}
}

// collectExtensionURLs gathers the url of each entry in an extension list.
func (e *Extractor) collectExtensionURLs(value any, seen map[string]bool) {
	list, ok := value.([]any)
	if !ok {
		return
	}
	for _, raw := range list {
		ext, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if url, _ := ext["url"].(string); url != "" {
			seen[url] = true
		}
	}
}
