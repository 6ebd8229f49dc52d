// Package expand implements the import graph walker, the fixed-point
// reference driver and the terminal matching passes of the expander.
//
// One expansion run owns all of its mutable state in an explicit run
// context (descent path for cycle detection, inclusion states, reference
// accumulator, statistics). The resource index is shared and read-only;
// the only document ever produced anew is the merged root.
package expand

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gofhir/expander/pkg/extract"
	"github.com/gofhir/expander/pkg/index"
	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/resource"
)

// ErrMissingRoot is returned when a requested root capability statement
// cannot be resolved. It is the only fatal condition of a run.
var ErrMissingRoot = errors.New("root capability statement not found")

// capabilityStatement is the resource type expansion starts from.
const capabilityStatement = "CapabilityStatement"

// DefaultExternalBases are canonical URL prefixes of foundational
// definitions that live outside any input set. A derives-from or reference
// target under one of these is expected to be absent, not missing.
var DefaultExternalBases = []string{
	"http://hl7.org/fhir/",
	"http://terminology.hl7.org/",
	"https://terminology.hl7.org/",
}

// Config carries the per-expander settings.
type Config struct {
	// Filter is the weakest expectation level that is still traversed.
	// The zero value (priority.ShouldNot) is treated as "no filter":
	// everything but SHOULD-NOT edges is followed.
	Filter priority.Level

	// ExternalBases overrides DefaultExternalBases when non-nil.
	ExternalBases []string

	// MatchExamples enables the terminal example-matching pass.
	MatchExamples bool
}

// Expander expands capability statements against a resource index.
type Expander struct {
	idx           *index.Index
	filter        priority.Level
	extractor     *extract.Extractor
	externalBases []string
	matchExamples bool
}

// New creates an Expander over a read-only index.
func New(idx *index.Index, cfg Config) *Expander {
	filter := cfg.Filter
	if filter == priority.ShouldNot {
		filter = priority.May
	}
	bases := cfg.ExternalBases
	if bases == nil {
		bases = DefaultExternalBases
	}
	return &Expander{
		idx:           idx,
		filter:        filter,
		extractor:     extract.New(filter),
		externalBases: bases,
		matchExamples: cfg.MatchExamples,
	}
}

// Inclusion state of an import target during one run. Included is terminal;
// excluded targets stay eligible for re-discovery through a stronger edge.
type state int

const (
	stateUnvisited state = iota
	stateExcluded
	stateIncluded
)

// runContext is the mutable state of a single expansion run, threaded
// explicitly through every recursive call.
type runContext struct {
	states map[string]state
	path   map[string]bool
	cycles map[string]bool
	refs   map[string]bool
	docs   map[string]*resource.Resource
	stats  Stats
	log    *zerolog.Logger
}

func newRunContext(logger *zerolog.Logger) *runContext {
	return &runContext{
		states: make(map[string]state),
		path:   make(map[string]bool),
		cycles: make(map[string]bool),
		refs:   make(map[string]bool),
		docs:   make(map[string]*resource.Resource),
		log:    logger,
	}
}

func (rc *runContext) addRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || rc.refs[ref] {
		return false
	}
	rc.refs[ref] = true
	return true
}

// recordCycle notes a circular edge exactly once per unique edge identity.
func (rc *runContext) recordCycle(edge extract.Edge) {
	key := edge.Source + " -> " + edge.Target
	if rc.cycles[key] {
		return
	}
	rc.cycles[key] = true
	rc.stats.Cycles++
	rc.log.Warn().Str("source", edge.Source).Str("target", edge.Target).
		Msg("circular import detected, edge not followed")
}

// Expand resolves each root URL, recursively expands its import graph and
// drives reference collection to a fixed point. Roots are processed
// sequentially and accumulate into one reference set and one merged
// document.
func (e *Expander) Expand(ctx context.Context, rootURLs []string) (*Result, error) {
	rc := newRunContext(log.Ctx(ctx))

	var merged map[string]any
	var rootRes *resource.Resource

	for _, rootURL := range rootURLs {
		root, err := e.idx.Resolve(rootURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMissingRoot, rootURL, err)
		}
		if root.Type != capabilityStatement {
			return nil, fmt.Errorf("%w: %q is a %s", ErrMissingRoot, rootURL, root.Type)
		}

		rc.log.Info().Str("root", root.Identifier()).Msg("expanding capability statement")
		rc.states[root.Identifier()] = stateIncluded

		rc.path[root.Identifier()] = true
		expanded := e.expandResource(rc, root)
		delete(rc.path, root.Identifier())

		if merged == nil {
			merged = expanded
			rootRes = root
		} else {
			mergeCapability(merged, expanded)
		}
	}
	if merged == nil {
		return nil, fmt.Errorf("%w: no root URLs given", ErrMissingRoot)
	}

	e.converge(rc)

	if e.matchExamples {
		for _, example := range e.MatchExamples(rc.refs) {
			rc.addRef(example.Identifier())
			rc.docs[example.Identifier()] = example
		}
	}

	return e.materialize(rc, rootRes, merged), nil
}

// expandResource expands one capability statement: its import edges are
// traversed in sorted target order under the priority filter, accepted
// children are expanded recursively and merged into a copy of the document,
// and the import fields are stripped from that copy.
func (e *Expander) expandResource(rc *runContext, res *resource.Resource) map[string]any {
	merged := resource.DeepCopy(res.Data)

	for _, edge := range extract.ImportEdges(res) {
		if rc.path[edge.Target] {
			rc.recordCycle(edge)
			continue
		}
		if !edge.Level.Eligible(e.filter) {
			// Do not mark the target processed: a stronger edge found
			// later must still be able to include it.
			if rc.states[edge.Target] != stateIncluded {
				rc.states[edge.Target] = stateExcluded
			}
			rc.stats.Excluded++
			rc.log.Debug().Str("target", edge.Target).Stringer("level", edge.Level).
				Msg("import filtered out by expectation level")
			continue
		}
		if rc.states[edge.Target] == stateIncluded {
			continue
		}
		rc.states[edge.Target] = stateIncluded

		child, err := e.idx.Resolve(edge.Target)
		if err != nil {
			// Counted once in materialize, where the reference set is
			// classified; here the edge is only skipped.
			rc.log.Warn().Str("target", edge.Target).Msg("import not found, skipping edge")
			rc.addRef(edge.Target)
			continue
		}
		if child.Type != capabilityStatement {
			rc.log.Warn().Str("target", edge.Target).Str("type", child.Type).
				Msg("import is not a capability statement, collecting without merge")
			rc.docs[child.Identifier()] = child
			rc.addRef(child.Identifier())
			continue
		}

		rc.path[edge.Target] = true
		childExpanded := e.expandResource(rc, child)
		delete(rc.path, edge.Target)

		rc.docs[child.Identifier()] = child
		mergeCapability(merged, childExpanded)
		rc.log.Info().Str("target", edge.Target).Msg("import resolved")
	}

	// Seed the reference set from the merged view, so references introduced
	// by imports are collected against the filter exactly once.
	view := *res
	view.Data = merged
	for _, ref := range e.extractor.Extract(&view) {
		rc.addRef(ref)
	}

	stripImportFields(merged)
	return merged
}

// materialize turns the run context into the final Result: sorted
// references, classified misses, the sorted document list and the merged
// root with rewritten identity.
func (e *Expander) materialize(rc *runContext, root *resource.Resource, merged map[string]any) *Result {
	for _, ref := range sortedKeys(rc.refs) {
		res, err := e.idx.Resolve(ref)
		if err != nil {
			if e.isExternalBase(ref) {
				rc.stats.SkippedExternalBase++
				rc.log.Debug().Str("ref", ref).Msg("external base reference, expected to be absent")
			} else {
				rc.stats.NotFound++
				rc.log.Warn().Str("ref", ref).Msg("referenced resource not found")
			}
			continue
		}
		rc.docs[res.Identifier()] = res
	}

	resources := make([]*resource.Resource, 0, len(rc.docs))
	for _, key := range sortedKeys(rc.docs) {
		resources = append(resources, rc.docs[key])
	}
	// Canonical URLs and Type/id keys do not interleave consistently as
	// strings; the contract is (type, id) order, identifier as tie-break.
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Type != resources[j].Type {
			return resources[i].Type < resources[j].Type
		}
		if resources[i].ID != resources[j].ID {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].Identifier() < resources[j].Identifier()
	})
	rc.stats.Copied = len(resources)

	return &Result{
		Merged:     rewriteIdentity(root, merged),
		References: sortedKeys(rc.refs),
		Resources:  resources,
		Stats:      rc.stats,
	}
}

// isExternalBase reports whether an identifier lives under a known
// external base prefix.
func (e *Expander) isExternalBase(url string) bool {
	for _, base := range e.externalBases {
		if strings.HasPrefix(url, base) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
