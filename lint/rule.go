package lint

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"isolint/css"
	"isolint/stacking"
)

// Evaluator checks one rule over a stylesheet. Evaluators are created per
// linter and must not keep state between Evaluate calls.
type Evaluator interface {
	ID() string
	Evaluate(sheet *css.Stylesheet, maps *stacking.Collection, sink Sink)
}

// Factory constructs evaluator from its (possibly absent) options.
type Factory func(decoder Decoder) (Evaluator, error)

type registration struct {
	id      string
	factory Factory
}

// Evaluation order, diagnostics at the same position keep it.
var registry = []registration{
	{RedundantDeclarationID, newRedundantDeclaration},
	{IneffectiveBlendID, newIneffectiveBlend},
	{PreferOverSideEffectsID, newPreferOverSideEffects},
	{ZIndexRangeID, newZIndexRange},
	{HighDescendantCountID, newHighDescendantCount},
	{IsolateOnStackID, newIsolateOnStack},
}

// IDs returns identifiers of all known rules in evaluation order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for _, r := range registry {
		ids = append(ids, r.id)
	}
	return ids
}

// Known reports whether id names a rule.
func Known(id string) bool {
	return slices.Contains(IDs(), id)
}

// New constructs evaluator for rule id.
func New(id string, decoder Decoder) (Evaluator, error) {
	for _, r := range registry {
		if r.id == id {
			e, err := r.factory(decoder)
			if err != nil {
				// keep one error per problem
				var errs error
				for _, one := range multierr.Errors(err) {
					errs = multierr.Append(errs, fmt.Errorf("rule %s: %w", id, one))
				}
				return nil, errs
			}
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown rule %q", id)
}
