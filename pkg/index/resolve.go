package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gofhir/expander/pkg/resource"
)

// ErrNotFound is returned when a reference resolves to no indexed resource.
var ErrNotFound = errors.New("resource not found")

// Resolve resolves a reference string to exactly one resource.
//
// Two strategies are tried in order, with no further fallback:
//
//  1. Canonical match: the reference equals a resource's canonical URL,
//     case- and scheme-sensitive. An optional |version suffix selects among
//     version candidates; mismatching candidates are skipped, not fatal.
//  2. Typed match: the last two path segments are taken as Type/id, and
//     both must equal the resource's declared resourceType and id. Whole
//     segments only, never substring or suffix comparison.
//
// A bare id with no type segment is not a valid typed reference and always
// fails.
func (ix *Index) Resolve(ref string) (*resource.Resource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if res := ix.resolveCanonical(ref); res != nil {
		return res, nil
	}
	if res := ix.resolveTyped(ref); res != nil {
		return res, nil
	}

	if !strings.Contains(ref, "/") {
		return nil, fmt.Errorf("%w: %q (bare ids are not resolvable; typed references require Type/id form)", ErrNotFound, ref)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// resolveCanonical implements the exact canonical URL strategy, including
// version disambiguation over the candidate list.
func (ix *Index) resolveCanonical(ref string) *resource.Resource {
	url, version, hasVersion := strings.Cut(ref, "|")

	candidates := ix.byURL[url]
	if len(candidates) == 0 {
		return nil
	}
	if !hasVersion {
		return candidates[0]
	}

	for _, candidate := range candidates {
		if candidate.Version == version {
			return candidate
		}
		log.Debug().
			Str("url", url).
			Str("want", version).
			Str("have", candidate.Version).
			Msg("version mismatch, scanning next candidate")
	}
	return nil
}

// resolveTyped implements the Type/id strategy on the last two path
// segments of the reference.
func (ix *Index) resolveTyped(ref string) *resource.Resource {
	segments := strings.Split(ref, "/")
	if len(segments) < 2 {
		return nil
	}

	resourceType := segments[len(segments)-2]
	id := segments[len(segments)-1]
	if resourceType == "" || id == "" || strings.Contains(resourceType, ":") {
		return nil
	}

	res := ix.byKey[resourceType+"/"+id]
	if res == nil {
		return nil
	}
	// The map key already encodes both, but the declared fields are what
	// the contract validates.
	if res.Type != resourceType || res.ID != id {
		return nil
	}
	return res
}
