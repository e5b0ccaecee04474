package stacking

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// trigger checks one way of creating a stacking context and returns the
// responsible property.
type trigger func(pm *PropertyMap) (string, bool)

// Triggers are independent, the verdict is their disjunction and order only
// affects which property is named.
var triggers = []trigger{
	positionedWithZIndex,
	transformed,
	translucent,
	filtered,
	blended,
	flexOrGridItemWithZIndex,
	withPerspective,
	masked,
	contained,
	willChange,
}

// Trigger returns the property which makes pm create a stacking context.
// The isolation property is never considered.
func Trigger(pm *PropertyMap) (string, bool) {
	if pm.Len() == 0 {
		return "", false
	}
	for _, check := range triggers {
		if prop, ok := check(pm); ok {
			return prop, true
		}
	}
	return "", false
}

// CreatesStackingContext reports whether the declarations in pm, taken together,
// create a stacking context regardless of any isolation declaration.
func CreatesStackingContext(pm *PropertyMap) bool {
	_, ok := Trigger(pm)
	return ok
}

// IsolationIsIsolate reports whether pm declares "isolation: isolate".
func IsolationIsIsolate(pm *PropertyMap) bool {
	v, ok := pm.Value(PropIsolation)
	return ok && v == "isolate"
}

// Opacity parses leading floating point number of value. Trailing text is
// ignored, so "50%" gives 50 and is not a trigger even though browsers read
// it as 0.5. Units are never interpreted, same as for z-index; rules keep
// lenient leading number semantics across all properties.
func Opacity(value string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(value))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ZIndex parses leading integer of value. "auto" is a sentinel and never a
// number. Out of range values are clamped.
func ZIndex(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "auto") {
		return 0, false
	}
	m := leadingInt.FindString(value)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

func zIndexSet(pm *PropertyMap) bool {
	v, ok := pm.Value(PropZIndex)
	return ok && v != "auto"
}

// notValue returns the first of properties declared with value other than the sentinel.
func notValue(pm *PropertyMap, sentinel string, properties ...string) (string, bool) {
	for _, prop := range properties {
		if v, ok := pm.Value(prop); ok && v != sentinel {
			return prop, true
		}
	}
	return "", false
}

func positionedWithZIndex(pm *PropertyMap) (string, bool) {
	v, ok := pm.Value(PropPosition)
	if ok && positionedValues.has(v) && zIndexSet(pm) {
		return PropPosition, true
	}
	return "", false
}

func transformed(pm *PropertyMap) (string, bool) {
	return notValue(pm, "none", PropTransform)
}

func translucent(pm *PropertyMap) (string, bool) {
	v, ok := pm.Value(PropOpacity)
	if !ok {
		return "", false
	}
	if f, ok := Opacity(v); ok && f < 1 {
		return PropOpacity, true
	}
	return "", false
}

func filtered(pm *PropertyMap) (string, bool) {
	return notValue(pm, "none", filterProperties...)
}

func blended(pm *PropertyMap) (string, bool) {
	return notValue(pm, "normal", PropMixBlendMode)
}

func flexOrGridItemWithZIndex(pm *PropertyMap) (string, bool) {
	if IsFlexOrGridContainer(pm.ParentDisplay) && zIndexSet(pm) {
		return PropZIndex, true
	}
	return "", false
}

func withPerspective(pm *PropertyMap) (string, bool) {
	return notValue(pm, "none", PropPerspective)
}

func masked(pm *PropertyMap) (string, bool) {
	return notValue(pm, "none", maskProperties...)
}

func contained(pm *PropertyMap) (string, bool) {
	v, ok := pm.Value(PropContain)
	if !ok {
		return "", false
	}
	for _, token := range strings.Fields(v) {
		if containTriggers.has(token) {
			return PropContain, true
		}
	}
	return "", false
}

func willChange(pm *PropertyMap) (string, bool) {
	v, ok := pm.Value(PropWillChange)
	if !ok {
		return "", false
	}
	for token := range strings.SplitSeq(v, ",") {
		if willChangeTriggers.has(strings.TrimSpace(token)) {
			return PropWillChange, true
		}
	}
	return "", false
}
