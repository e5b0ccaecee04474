// Package stacking decides whether a set of CSS declarations creates a
// stacking context.
//
// The answer is computed from the declarations of a single selector only. There
// is no cascade: inherited, computed or cascaded values from other selectors are
// never consulted. The one piece of outside knowledge, the display of the parent
// element (needed for flex and grid items), has to be supplied explicitly.
package stacking

import "strings"

// Property names relevant to stacking context creation.
const (
	PropPosition            = "position"
	PropOpacity             = "opacity"
	PropTransform           = "transform"
	PropFilter              = "filter"
	PropBackdropFilter      = "backdrop-filter"
	PropIsolation           = "isolation"
	PropMixBlendMode        = "mix-blend-mode"
	PropBackgroundBlendMode = "background-blend-mode"
	PropContain             = "contain"
	PropWillChange          = "will-change"
	PropPerspective         = "perspective"
	PropClipPath            = "clip-path"
	PropMask                = "mask"
	PropMaskImage           = "mask-image"
	PropMaskBorder          = "mask-border"
	PropZIndex              = "z-index"
)

type set map[string]struct{}

func newSet(items ...string) set {
	s := make(set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s set) has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s set) union(items ...string) set {
	out := make(set, len(s)+len(items))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

// Lookup tables, read only after package initialization.
var (
	relevantProperties = newSet(
		PropPosition, PropOpacity, PropTransform, PropFilter, PropBackdropFilter,
		PropIsolation, PropMixBlendMode, PropBackgroundBlendMode, PropContain,
		PropWillChange, PropPerspective, PropClipPath, PropMask, PropMaskImage,
		PropMaskBorder, PropZIndex,
	)

	// opacity and transform stay here even if the relevant table is narrowed.
	willChangeTriggers = relevantProperties.union(PropOpacity, PropTransform)

	containTriggers  = newSet("layout", "paint", "strict", "content")
	positionedValues = newSet("relative", "absolute", "fixed", "sticky")
	flexGridDisplays = newSet("flex", "inline-flex", "grid", "inline-grid")
	maskProperties   = []string{PropClipPath, PropMask, PropMaskImage, PropMaskBorder}
	filterProperties = []string{PropFilter, PropBackdropFilter}
)

// IsRelevant reports whether property takes part in stacking context analysis.
func IsRelevant(property string) bool {
	return relevantProperties.has(strings.ToLower(strings.TrimSpace(property)))
}

// IsFlexOrGridContainer reports whether display value makes children flex or grid items.
func IsFlexOrGridContainer(display string) bool {
	return flexGridDisplays.has(normalize(display))
}

// normalize lowercases value, trims it and collapses inner whitespace.
func normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
