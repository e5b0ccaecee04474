// Package lint evaluates stacking context rules over parsed stylesheets and
// collects diagnostics.
package lint

import (
	"fmt"
	"slices"

	"isolint/common"
	"isolint/css"
)

// Diagnostic is a single finding. It is created once and never modified.
type Diagnostic struct {
	RuleID   string
	Severity common.Severity
	Message  string
	Source   string
	Node     string // Text of the offending declaration or selector
	Pos      css.Position
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s (%s)", d.Source, d.Pos.Line, d.Pos.Column, d.Severity, d.Message, d.RuleID)
}

// Sink receives diagnostics from evaluators.
type Sink interface {
	Report(d Diagnostic)
}

// Result accumulates diagnostics of a single source. It is append only and
// must not be shared between goroutines while linting is in progress.
type Result struct {
	Source   string
	Warnings []string // Parser warnings, informational
	Err      error    // Source could not be read, no rules were evaluated
	Sheet    *css.Stylesheet

	diagnostics []Diagnostic
}

// NewResult returns empty result for source.
func NewResult(source string) *Result {
	return &Result{Source: source}
}

// Report implements Sink.
func (r *Result) Report(d Diagnostic) {
	if d.Source == "" {
		d.Source = r.Source
	}
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of accumulated diagnostics in document order.
// Diagnostics at the same position keep the order they were reported in.
func (r *Result) Diagnostics() []Diagnostic {
	out := slices.Clone(r.diagnostics)
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		return a.Pos.Offset - b.Pos.Offset
	})
	return out
}

// Count returns number of diagnostics with given severity.
func (r *Result) Count(sev common.Severity) int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

func (r *Result) Len() int {
	return len(r.diagnostics)
}

// Errored reports whether source failed to load or has error diagnostics.
func (r *Result) Errored() bool {
	return r.Err != nil || r.Count(common.SeverityError) > 0
}
