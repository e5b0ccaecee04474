package lint

import (
	"strings"

	"isolint/css"
	"isolint/stacking"
)

// PreferOverSideEffectsID flags declarations whose only purpose is forcing a
// stacking context (or compositing layer) as a side effect.
const PreferOverSideEffectsID = "isolate-on-stack/prefer-over-side-effects"

// Near-invisible opacity nudge: [opacityHackMin, 1).
const opacityHackMin = 0.99

// No-op transforms used to force a layer, lowercased, without whitespace.
var forceLayerTransforms = map[string]bool{
	"translatez(0)":                            true,
	"translate3d(0,0,0)":                       true,
	"matrix3d(1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1)": true,
}

var willChangeHacks = []string{stacking.PropOpacity, stacking.PropTransform, stacking.PropZIndex}

type preferOverSideEffects struct {
	base
}

func newPreferOverSideEffects(decoder Decoder) (Evaluator, error) {
	var opts BaseOptions
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}
	b, err := newBase(PreferOverSideEffectsID, opts)
	if err != nil {
		return nil, err
	}
	return &preferOverSideEffects{base: b}, nil
}

// Evaluate looks at every declaration, duplicates included, since each one is
// a separate hack in the source.
func (e *preferOverSideEffects) Evaluate(sheet *css.Stylesheet, _ *stacking.Collection, sink Sink) {
	for _, rule := range sheet.Rules {
		if e.ignored(rule.Selector) {
			continue
		}
		for _, d := range rule.Declarations {
			if isSideEffectHack(d) {
				e.report(sink, d.Pos, declarationText(d), msgSideEffect(d.Property, d.Value))
			}
		}
	}
}

func isSideEffectHack(d css.Declaration) bool {
	value := strings.ToLower(strings.TrimSpace(d.Value))
	switch d.Property {
	case stacking.PropOpacity:
		f, ok := stacking.Opacity(value)
		return ok && f >= opacityHackMin && f < 1
	case stacking.PropTransform:
		return forceLayerTransforms[strings.Join(strings.Fields(value), "")]
	case stacking.PropWillChange:
		for _, hack := range willChangeHacks {
			if strings.Contains(value, hack) {
				return true
			}
		}
	}
	return false
}
