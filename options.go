package fhirexpander

import (
	"github.com/gofhir/expander/pkg/expand"
	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/resource"
)

// Option configures the Expander.
type Option func(*Options)

// Options holds all configuration for the Expander.
type Options struct {
	// InputDir is the directory the resource snapshot is loaded from.
	// Ignored when Resources is set.
	InputDir string

	// Resources is an in-memory snapshot, used instead of InputDir.
	Resources []*resource.Resource

	// Filter is the weakest expectation level still traversed.
	// priority.ShouldNot (the zero value) means no filter.
	Filter priority.Level

	// ExternalBases overrides the default external base URL prefixes.
	ExternalBases []string

	// MatchExamples enables the terminal example-matching pass.
	MatchExamples bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Filter:        priority.ShouldNot, // no filter
		MatchExamples: true,
	}
}

// WithInputDir sets the directory resources are loaded from.
func WithInputDir(dir string) Option {
	return func(o *Options) {
		o.InputDir = dir
	}
}

// WithResources injects an in-memory resource snapshot instead of loading
// from disk.
func WithResources(resources []*resource.Resource) Option {
	return func(o *Options) {
		o.Resources = resources
	}
}

// WithPriorityFilter traverses only edges at or above the given expectation
// level. SHOULD-NOT edges are never traversed, filter or not.
func WithPriorityFilter(level priority.Level) Option {
	return func(o *Options) {
		o.Filter = level
	}
}

// WithExternalBases replaces the default set of external base URL prefixes
// whose absence from the input set is expected.
func WithExternalBases(bases ...string) Option {
	return func(o *Options) {
		o.ExternalBases = bases
	}
}

// WithExamples enables or disables the example-matching pass.
func WithExamples(enable bool) Option {
	return func(o *Options) {
		o.MatchExamples = enable
	}
}

// expandConfig translates the facade options for pkg/expand.
func (o *Options) expandConfig() expand.Config {
	return expand.Config{
		Filter:        o.Filter,
		ExternalBases: o.ExternalBases,
		MatchExamples: o.MatchExamples,
	}
}
