package lint

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"isolint/css"
	"isolint/stacking"
)

// IsolateOnStackID is the single rule predating the split into separate
// rules. It checks redundant and ineffective isolation, asks for isolation
// where z-index is used and enforces isolation on required classes.
const IsolateOnStackID = "isolate-on-stack/isolate-on-stack"

// Pseudo-elements which are not skipped by the legacy rule. Must stay as is.
var hostingPseudoElements = map[string]bool{
	"first-letter": true,
	"first-line":   true,
	"marker":       true,
}

var (
	pseudoElementPattern = regexp.MustCompile(`::([a-zA-Z-]+)|:(before|after|first-letter|first-line)\b`)
	classPattern         = regexp.MustCompile(`\.(-?[_a-zA-Z][\w-]*)`)
	elementPattern       = regexp.MustCompile(`^[a-zA-Z][\w-]*`)
	compoundSeparators   = regexp.MustCompile(`[\s>+~]+`)
	functionalArguments  = regexp.MustCompile(`\([^)]*\)`)
)

// IsolateOnStackOptions configures legacy rule.
type IsolateOnStackOptions struct {
	BaseOptions                     `yaml:",inline"`
	IgnoreWhenStackingContextExists bool     `yaml:"ignoreWhenStackingContextExists"`
	IgnoreElements                  []string `yaml:"ignoreElements"`
	IgnoreClasses                   []string `yaml:"ignoreClasses"`
	RequireClasses                  []string `yaml:"requireClasses"`
}

type isolateOnStack struct {
	base
	ignoreWhenStacking bool
	ignoreElements     []*regexp.Regexp
	ignoreClasses      []*regexp.Regexp
	requireClasses     []*regexp.Regexp
}

func newIsolateOnStack(decoder Decoder) (Evaluator, error) {
	var opts IsolateOnStackOptions
	if err := decode(decoder, &opts); err != nil {
		return nil, err
	}

	e := &isolateOnStack{ignoreWhenStacking: opts.IgnoreWhenStackingContextExists}

	// collect all pattern problems at once
	var errs, err error
	if e.base, err = newBase(IsolateOnStackID, opts.BaseOptions); err != nil {
		errs = multierr.Append(errs, err)
	}
	if e.ignoreElements, err = compilePatterns("ignoreElements", opts.IgnoreElements, true); err != nil {
		errs = multierr.Append(errs, err)
	}
	if e.ignoreClasses, err = compilePatterns("ignoreClasses", opts.IgnoreClasses, true); err != nil {
		errs = multierr.Append(errs, err)
	}
	if e.requireClasses, err = compilePatterns("requireClasses", opts.RequireClasses, true); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return e, nil
}

func (e *isolateOnStack) Evaluate(_ *css.Stylesheet, maps *stacking.Collection, sink Sink) {
	for _, pm := range maps.Entries() {
		if e.skipped(pm.Selector) {
			continue
		}

		trigger, stackingExists := stacking.Trigger(pm)

		if stacking.IsolationIsIsolate(pm) {
			d, _ := pm.Declaration(stacking.PropIsolation)
			if stackingExists {
				cause, _ := pm.Declaration(trigger)
				e.report(sink, d.Pos, declarationText(d), msgRedundant(pm.Selector, trigger, cause.Value))
			}
			if mode, ok := pm.Value(stacking.PropBackgroundBlendMode); ok && mode != "normal" {
				blend, _ := pm.Declaration(stacking.PropBackgroundBlendMode)
				e.report(sink, d.Pos, declarationText(d), msgIneffectiveBlend(pm.Selector, blend.Value))
			}
			continue
		}

		if class, ok := e.requiredClass(pm.Selector); ok {
			if pm.Rule != nil {
				e.report(sink, pm.Rule.Pos, pm.Selector, msgRequiredIsolation(pm.Selector, class))
			}
			continue
		}

		// suppresses missing isolation only
		if stackingExists && e.ignoreWhenStacking {
			continue
		}

		if d, ok := pm.Declaration(stacking.PropZIndex); ok {
			if v, _ := pm.Value(stacking.PropZIndex); v != "auto" {
				e.report(sink, d.Pos, declarationText(d), msgMissingIsolation(pm.Selector))
			}
		}
	}
}

// skipped reports whether selector is excluded by options or targets only
// pseudo-elements which cannot host a stacking context.
func (e *isolateOnStack) skipped(selector string) bool {
	if e.ignored(selector) || onlyNonHostingPseudoElements(selector) {
		return true
	}
	if len(e.ignoreElements) > 0 {
		for _, el := range selectorElements(selector) {
			if matchAny(e.ignoreElements, el) {
				return true
			}
		}
	}
	if len(e.ignoreClasses) > 0 {
		for _, class := range selectorClasses(selector) {
			if matchAny(e.ignoreClasses, class) {
				return true
			}
		}
	}
	return false
}

func (e *isolateOnStack) requiredClass(selector string) (string, bool) {
	if len(e.requireClasses) == 0 {
		return "", false
	}
	for _, class := range selectorClasses(selector) {
		if matchAny(e.requireClasses, class) {
			return class, true
		}
	}
	return "", false
}

// onlyNonHostingPseudoElements reports whether every selector of the list
// targets a pseudo-element other than first-letter, first-line or marker.
func onlyNonHostingPseudoElements(list string) bool {
	selectors := css.SplitSelectorList(list)
	if len(selectors) == 0 {
		return false
	}
	for _, sel := range selectors {
		matches := pseudoElementPattern.FindAllStringSubmatch(sel, -1)
		if len(matches) == 0 {
			return false
		}
		last := matches[len(matches)-1]
		name := strings.ToLower(last[1] + last[2])
		if hostingPseudoElements[name] {
			return false
		}
	}
	return true
}

// selectorClasses returns class names (without dot) used anywhere in the selector list.
func selectorClasses(list string) []string {
	var out []string
	for _, m := range classPattern.FindAllStringSubmatch(list, -1) {
		out = append(out, m[1])
	}
	return out
}

// selectorElements returns type selectors of every compound in the selector list.
func selectorElements(list string) []string {
	var out []string
	for _, sel := range css.SplitSelectorList(list) {
		sel = functionalArguments.ReplaceAllString(sel, "()")
		for _, compound := range compoundSeparators.Split(sel, -1) {
			if el := elementPattern.FindString(compound); el != "" {
				out = append(out, strings.ToLower(el))
			}
		}
	}
	return out
}
