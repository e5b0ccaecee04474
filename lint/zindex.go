package lint

import (
	"fmt"

	"isolint/css"
	"isolint/stacking"
)

// ZIndexRangeID flags z-index values above configured maximum.
const ZIndexRangeID = "isolate-on-stack/z-index-range"

const defaultMaxZIndex = 100

// ZIndexRangeOptions configures z-index range rule.
type ZIndexRangeOptions struct {
	BaseOptions `yaml:",inline"`
	MaxZIndex   int `yaml:"maxZIndex"`
}

type zIndexRange struct {
	base
	max int
}

func newZIndexRange(decoder Decoder) (Evaluator, error) {
	opts := ZIndexRangeOptions{MaxZIndex: defaultMaxZIndex}
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}
	b, err := newBase(ZIndexRangeID, opts.BaseOptions)
	if err != nil {
		return nil, err
	}
	return &zIndexRange{base: b, max: opts.MaxZIndex}, nil
}

func (e *zIndexRange) Evaluate(_ *css.Stylesheet, maps *stacking.Collection, sink Sink) {
	for _, pm := range maps.Entries() {
		if e.ignored(pm.Selector) {
			continue
		}
		d, ok := pm.Declaration(stacking.PropZIndex)
		if !ok {
			continue
		}
		n, ok := stacking.ZIndex(d.Value)
		if !ok || n <= int64(e.max) {
			continue
		}
		e.report(sink, d.Pos, declarationText(d), msgZIndexRange(n, e.max))
	}
}

func (e *zIndexRange) String() string {
	return fmt.Sprintf("%s(max=%d)", e.id, e.max)
}
