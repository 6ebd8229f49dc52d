// Package priority models FHIR conformance expectation levels.
//
// Expectations are declared on CapabilityStatement elements through the
// conformance-expectation extension and order as SHALL > SHOULD > MAY.
// SHOULD-NOT exists as a declared level but is never eligible for inclusion,
// regardless of the active filter.
package priority

import "strings"

// Level is a conformance expectation level with a total order.
// Higher values are stronger expectations.
type Level int

// Expectation levels.
const (
	// ShouldNot marks an element that must never be followed.
	ShouldNot Level = iota
	May
	Should
	Shall
)

// Default is the level assumed when no expectation is declared.
const Default = Shall

// String returns the wire form of the level.
func (l Level) String() string {
	switch l {
	case Shall:
		return "SHALL"
	case Should:
		return "SHOULD"
	case May:
		return "MAY"
	case ShouldNot:
		return "SHOULD-NOT"
	default:
		return ""
	}
}

// Parse maps a wire-form expectation code to a Level.
func Parse(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SHALL":
		return Shall, true
	case "SHOULD":
		return Should, true
	case "MAY":
		return May, true
	case "SHOULD-NOT":
		return ShouldNot, true
	default:
		return Default, false
	}
}

// Compare orders two levels: negative when l is weaker than other,
// zero when equal, positive when stronger.
func (l Level) Compare(other Level) int {
	return int(l) - int(other)
}

// Eligible reports whether an element at this level passes the given
// filter. ShouldNot is never eligible.
func (l Level) Eligible(filter Level) bool {
	if l == ShouldNot {
		return false
	}
	return l >= filter
}

// IsExpectationURL reports whether an extension URL declares a conformance
// expectation. Both the standard capabilitystatement-expectation URL and
// implementation-specific variants are in circulation, so the match is a
// case-insensitive substring test on "expectation" rather than equality
// against one fixed URL. Narrowing this would silently drop the
// implementation-specific form again.
func IsExpectationURL(url string) bool {
	return strings.Contains(strings.ToLower(url), "expectation")
}

// FromExtensions reads the expectation declared in an extension-carrying
// metadata block (the value of an "_field" companion element). The second
// return is false when no expectation extension is present.
func FromExtensions(block any) (Level, bool) {
	blockMap, ok := block.(map[string]any)
	if !ok {
		return Default, false
	}
	extensions, ok := blockMap["extension"].([]any)
	if !ok {
		return Default, false
	}
	for _, raw := range extensions {
		ext, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url, _ := ext["url"].(string)
		if !IsExpectationURL(url) {
			continue
		}
		code, _ := ext["valueCode"].(string)
		if level, ok := Parse(code); ok {
			return level, true
		}
	}
	return Default, false
}

// OfElement resolves the expectation governing element i of a list field,
// given the parallel "_field" metadata list. Elements without metadata get
// the default level; metadata lists shorter than the value list leave the
// tail at the default.
func OfElement(parallel any, i int) Level {
	list, ok := parallel.([]any)
	if !ok || i < 0 || i >= len(list) {
		return Default
	}
	level, _ := FromExtensions(list[i])
	return level
}
