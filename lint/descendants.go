package lint

import (
	"fmt"

	"isolint/css"
	"isolint/stacking"
)

// HighDescendantCountID flags stacking contexts on selectors likely to match
// many elements.
const HighDescendantCountID = "isolate-on-stack/high-descendant-count"

const defaultMaxDescendantCount = 50

// HighDescendantCountOptions configures descendant count rule.
type HighDescendantCountOptions struct {
	BaseOptions        `yaml:",inline"`
	MaxDescendantCount int `yaml:"maxDescendantCount"`
}

type highDescendantCount struct {
	base
	max int
}

func newHighDescendantCount(decoder Decoder) (Evaluator, error) {
	opts := HighDescendantCountOptions{MaxDescendantCount: defaultMaxDescendantCount}
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}
	if opts.MaxDescendantCount < 0 {
		return nil, fmt.Errorf("maxDescendantCount: must not be negative, got %d", opts.MaxDescendantCount)
	}
	b, err := newBase(HighDescendantCountID, opts.BaseOptions)
	if err != nil {
		return nil, err
	}
	return &highDescendantCount{base: b, max: opts.MaxDescendantCount}, nil
}

// Evaluate reports on the first rule block of every selector which is a
// stacking context root, isolation included.
func (e *highDescendantCount) Evaluate(_ *css.Stylesheet, maps *stacking.Collection, sink Sink) {
	for _, pm := range maps.Entries() {
		if e.ignored(pm.Selector) || pm.Rule == nil {
			continue
		}
		if !stacking.CreatesStackingContext(pm) && !stacking.IsolationIsIsolate(pm) {
			continue
		}
		if estimate := stacking.EstimateDescendantCount(pm.Selector); estimate > e.max {
			e.report(sink, pm.Rule.Pos, pm.Selector, msgHighDescendants(pm.Selector, estimate, e.max))
		}
	}
}

func (e *highDescendantCount) String() string {
	return fmt.Sprintf("%s(max=%d)", e.id, e.max)
}
