package expand

import "github.com/gofhir/expander/pkg/resource"

// Fields removed from the merged root once their edges are resolved.
var importFields = []string{"imports", "_imports", "instantiates", "_instantiates"}

// mergeCapability merges an expanded imported capability statement into the
// target document. REST sections are merged by mode, their resource entries
// deduplicated by type with supported profiles unioned; messaging is adopted
// when the target has none.
func mergeCapability(target, source map[string]any) {
	mergeRest(target, source)

	if messaging, ok := source["messaging"]; ok {
		if _, exists := target["messaging"]; !exists {
			target["messaging"] = resource.CopyValue(messaging)
		}
	}
}

func mergeRest(target, source map[string]any) {
	sourceRest, ok := source["rest"].([]any)
	if !ok {
		return
	}
	targetRest, _ := target["rest"].([]any)

	for _, raw := range sourceRest {
		sourceEntry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		targetEntry := findRestByMode(targetRest, sourceEntry["mode"])
		if targetEntry == nil {
			targetRest = append(targetRest, resource.DeepCopy(sourceEntry))
			continue
		}
		mergeRestResources(targetEntry, sourceEntry)
	}
	target["rest"] = targetRest
}

func findRestByMode(rest []any, mode any) map[string]any {
	for _, raw := range rest {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if entry["mode"] == mode {
			return entry
		}
	}
	return nil
}

// mergeRestResources merges the resource lists of two same-mode REST
// entries, keyed by resource type.
func mergeRestResources(target, source map[string]any) {
	sourceResources, ok := source["resource"].([]any)
	if !ok {
		return
	}
	targetResources, _ := target["resource"].([]any)

	for _, raw := range sourceResources {
		sourceResource, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		existing := findResourceByType(targetResources, sourceResource["type"])
		if existing == nil {
			targetResources = append(targetResources, resource.DeepCopy(sourceResource))
			continue
		}
		mergeSupportedProfiles(existing, sourceResource)
	}
	target["resource"] = targetResources
}

func findResourceByType(resources []any, resourceType any) map[string]any {
	for _, raw := range resources {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if entry["type"] == resourceType {
			return entry
		}
	}
	return nil
}

// mergeSupportedProfiles unions the source's supportedProfile values into
// the target entry, preserving target order and skipping duplicates. The
// parallel "_supportedProfile" metadata moves with its element so the
// per-element expectation survives the merge; elements without metadata
// keep a nil placeholder to preserve alignment.
func mergeSupportedProfiles(target, source map[string]any) {
	sourceProfiles, ok := source["supportedProfile"].([]any)
	if !ok || len(sourceProfiles) == 0 {
		return
	}
	sourceMeta, _ := source["_supportedProfile"].([]any)

	targetProfiles, _ := target["supportedProfile"].([]any)
	targetMeta, hasMeta := target["_supportedProfile"].([]any)

	seen := make(map[string]bool, len(targetProfiles))
	for _, raw := range targetProfiles {
		if s, ok := raw.(string); ok {
			seen[s] = true
		}
	}

	for i, raw := range sourceProfiles {
		profile, ok := raw.(string)
		if !ok || profile == "" || seen[profile] {
			continue
		}
		seen[profile] = true

		var meta any
		if i < len(sourceMeta) {
			meta = sourceMeta[i]
		}
		if meta != nil && !hasMeta {
			hasMeta = true
		}
		if hasMeta {
			for len(targetMeta) < len(targetProfiles) {
				targetMeta = append(targetMeta, nil)
			}
			targetMeta = append(targetMeta, resource.CopyValue(meta))
		}
		targetProfiles = append(targetProfiles, profile)
	}
	target["supportedProfile"] = targetProfiles
	if hasMeta {
		target["_supportedProfile"] = targetMeta
	}
}

// stripImportFields removes the resolved import fields and their metadata
// companions from a merged document.
func stripImportFields(doc map[string]any) {
	for _, field := range importFields {
		delete(doc, field)
	}
}
