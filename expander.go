package fhirexpander

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofhir/expander/pkg/expand"
	"github.com/gofhir/expander/pkg/index"
	"github.com/gofhir/expander/pkg/resource"
	"github.com/gofhir/expander/pkg/store"
)

// Re-exported sentinels so callers can match without importing the leaves.
var (
	// ErrMissingRoot aborts a run when a requested root cannot resolve.
	ErrMissingRoot = expand.ErrMissingRoot

	// ErrNotFound marks an unresolvable reference.
	ErrNotFound = index.ErrNotFound

	// ErrInvalidResource marks input that is not a FHIR resource.
	ErrInvalidResource = resource.ErrInvalidResource
)

// Result is the outcome of one expansion run.
type Result = expand.Result

// Stats aggregates the non-fatal conditions of one expansion run.
type Stats = expand.Stats

// Expander binds a loaded resource index to the expansion engine.
type Expander struct {
	opts  *Options
	index *index.Index
	core  *expand.Expander
}

// New creates an Expander. The snapshot is loaded and indexed once; every
// later Expand call runs against the same read-only index.
func New(opts ...Option) (*Expander, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	resources := options.Resources
	if resources == nil {
		if options.InputDir == "" {
			return nil, errors.New("fhirexpander: either an input directory or a resource snapshot is required")
		}
		snapshot, err := store.New(options.InputDir).Load()
		if err != nil {
			return nil, fmt.Errorf("fhirexpander: %w", err)
		}
		resources = snapshot.Resources
	}

	ix := index.Build(resources)
	return &Expander{
		opts:  options,
		index: ix,
		core:  expand.New(ix, options.expandConfig()),
	}, nil
}

// Index exposes the read-only resource index, mainly for inspection.
func (e *Expander) Index() *index.Index {
	return e.index
}

// Expand expands the given root capability statement URLs into one merged
// document and a self-contained resource set. Roots are processed
// sequentially into a single accumulated reference set; the call fails only
// when a root cannot be resolved.
func (e *Expander) Expand(ctx context.Context, rootURLs []string) (*Result, error) {
	if len(rootURLs) == 0 {
		return nil, fmt.Errorf("%w: no root URLs given", ErrMissingRoot)
	}
	return e.core.Expand(ctx, rootURLs)
}
