package lint

import (
	"fmt"
	"regexp"

	"go.uber.org/multierr"

	"isolint/common"
	"isolint/css"
)

// Decoder fills rule options structure. Implementations must leave fields
// absent from the input untouched and ignore unknown keys.
type Decoder func(into any) error

// NoOptions is a Decoder for rules used with defaults.
func NoOptions(any) error {
	return nil
}

// BaseOptions are accepted by every rule.
type BaseOptions struct {
	Severity        common.Severity `yaml:"severity"`
	IgnoreSelectors []string        `yaml:"ignoreSelectors"`
}

// base carries compiled options shared by every evaluator.
type base struct {
	id       string
	severity common.Severity
	ignore   []*regexp.Regexp
}

func newBase(id string, opts BaseOptions) (base, error) {
	if !opts.Severity.IsValid() {
		return base{}, fmt.Errorf("severity: %w", common.ErrInvalidSeverity)
	}
	ignore, err := compilePatterns("ignoreSelectors", opts.IgnoreSelectors, false)
	if err != nil {
		return base{}, err
	}
	return base{id: id, severity: opts.Severity, ignore: ignore}, nil
}

func (b base) ID() string {
	return b.id
}

// ignored reports whether selector matches one of ignoreSelectors patterns.
func (b base) ignored(selector string) bool {
	return matchAny(b.ignore, selector)
}

func (b base) report(sink Sink, pos css.Position, node, message string) {
	sink.Report(Diagnostic{
		RuleID:   b.id,
		Severity: b.severity,
		Message:  message,
		Node:     node,
		Pos:      pos,
	})
}

// compilePatterns compiles every pattern and returns one error per pattern
// which fails. Anchored patterns must match the whole input.
func compilePatterns(option string, patterns []string, anchored bool) ([]*regexp.Regexp, error) {
	var (
		out  = make([]*regexp.Regexp, 0, len(patterns))
		errs error
	)
	for _, p := range patterns {
		expr := p
		if anchored {
			expr = "^(?:" + p + ")$"
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: invalid pattern %q: %w", option, p, err))
			continue
		}
		out = append(out, re)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func decode(decoder Decoder, into any) error {
	if decoder == nil {
		return nil
	}
	if err := decoder(into); err != nil {
		return fmt.Errorf("unable to decode options: %w", err)
	}
	return nil
}
