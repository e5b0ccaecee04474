package lint

import (
	"isolint/css"
	"isolint/stacking"
)

// RedundantDeclarationID flags "isolation: isolate" on selectors which create
// a stacking context by other means anyway.
const RedundantDeclarationID = "isolate-on-stack/no-redundant-declaration"

type redundantDeclaration struct {
	base
}

func newRedundantDeclaration(decoder Decoder) (Evaluator, error) {
	var opts BaseOptions
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}
	b, err := newBase(RedundantDeclarationID, opts)
	if err != nil {
		return nil, err
	}
	return &redundantDeclaration{base: b}, nil
}

func (e *redundantDeclaration) Evaluate(_ *css.Stylesheet, maps *stacking.Collection, sink Sink) {
	for _, pm := range maps.Entries() {
		if e.ignored(pm.Selector) || !stacking.IsolationIsIsolate(pm) {
			continue
		}
		trigger, ok := stacking.Trigger(pm)
		if !ok {
			continue
		}
		cause, _ := pm.Declaration(trigger)
		d, _ := pm.Declaration(stacking.PropIsolation)
		e.report(sink, d.Pos, declarationText(d), msgRedundant(pm.Selector, trigger, cause.Value))
	}
}

// declarationText renders declaration the way it is referenced in diagnostics.
func declarationText(d css.Declaration) string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}
