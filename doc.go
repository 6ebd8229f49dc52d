// Package fhirexpander expands FHIR CapabilityStatements.
//
// Given a snapshot of loaded resources and one or more root capability
// statement URLs, the expander recursively resolves imports and
// instantiations under a conformance expectation filter, collects every
// profile, value set, code system, search parameter and operation
// definition the result depends on, and produces a merged, self-contained
// capability statement with the import fields removed.
//
// The package is a thin facade over the leaf libraries: pkg/store loads
// resources, pkg/index holds the immutable snapshot and resolves
// references, pkg/extract enumerates cross-references, pkg/expand walks the
// import graph to a fixed point, and pkg/sink writes the output set.
//
// # Quick Start
//
//	exp, err := fhirexpander.New(
//	    fhirexpander.WithInputDir("./fhir"),
//	    fhirexpander.WithPriorityFilter(priority.Shall),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := exp.Expand(ctx, []string{
//	    "http://example.org/CapabilityStatement/base",
//	})
//
// Each Expand call is an independent run over the shared read-only index;
// nothing but the merged root document is ever produced anew.
package fhirexpander
