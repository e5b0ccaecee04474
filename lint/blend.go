package lint

import (
	"isolint/css"
	"isolint/stacking"
)

// IneffectiveBlendID flags "isolation: isolate" used to contain
// background-blend-mode, which never blends outside the element.
const IneffectiveBlendID = "isolate-on-stack/ineffective-on-background-blend"

type ineffectiveBlend struct {
	base
}

func newIneffectiveBlend(decoder Decoder) (Evaluator, error) {
	var opts BaseOptions
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}
	b, err := newBase(IneffectiveBlendID, opts)
	if err != nil {
		return nil, err
	}
	return &ineffectiveBlend{base: b}, nil
}

func (e *ineffectiveBlend) Evaluate(_ *css.Stylesheet, maps *stacking.Collection, sink Sink) {
	for _, pm := range maps.Entries() {
		if e.ignored(pm.Selector) || !stacking.IsolationIsIsolate(pm) {
			continue
		}
		mode, ok := pm.Value(stacking.PropBackgroundBlendMode)
		if !ok || mode == "normal" {
			continue
		}
		blend, _ := pm.Declaration(stacking.PropBackgroundBlendMode)
		d, _ := pm.Declaration(stacking.PropIsolation)
		e.report(sink, d.Pos, declarationText(d), msgIneffectiveBlend(pm.Selector, blend.Value))
	}
}
