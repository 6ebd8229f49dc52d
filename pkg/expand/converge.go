package expand

// converge drives reference collection to a fixed point: every pass
// resolves the not-yet-visited references in sorted order, runs the
// extractor over each newly resolved document, follows derives-from chains
// of structure definitions, and unions the findings. The loop stops on the
// first pass that adds nothing.
//
// Termination is guaranteed because the reference set only grows and the
// universe of resolvable documents is finite; the pass count is bounded by
// the longest dependency chain in the input.
func (e *Expander) converge(rc *runContext) {
	visited := make(map[string]bool)

	for {
		added := false

		for _, ref := range sortedKeys(rc.refs) {
			if visited[ref] {
				continue
			}
			visited[ref] = true

			res, err := e.idx.Resolve(ref)
			if err != nil {
				// Classified (external base vs. not found) in materialize.
				continue
			}
			rc.docs[res.Identifier()] = res

			for _, next := range e.extractor.Extract(res) {
				if rc.addRef(next) {
					added = true
				}
			}

			if res.Type == "StructureDefinition" {
				chain := e.WalkParents(res)
				for _, parent := range chain.Chain {
					if rc.addRef(parent.Identifier()) {
						added = true
					}
				}
				if chain.External != "" {
					if rc.addRef(chain.External) {
						added = true
					}
				}
				if chain.Missing != "" {
					if rc.addRef(chain.Missing) {
						added = true
					}
				}
			}
		}

		rc.stats.Passes++
		if !added {
			return
		}
	}
}
