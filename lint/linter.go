package lint

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"isolint/common"
	"isolint/css"
	"isolint/stacking"
)

// RuleSettings selects a rule and supplies its options.
type RuleSettings struct {
	Enabled bool
	Decode  Decoder
}

// Source is a named stylesheet for batch linting.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Linter runs enabled evaluators over stylesheets. It is safe for concurrent
// use once constructed.
type Linter struct {
	log           *zap.Logger
	parser        *css.Parser
	evaluators    []Evaluator
	parentDisplay map[string]string
}

// LinterOption customizes Linter.
type LinterOption func(*Linter)

// WithParentDisplay supplies parent element display values keyed by selector text.
func WithParentDisplay(displays map[string]string) LinterOption {
	return func(l *Linter) {
		l.parentDisplay = displays
	}
}

// NewLinter constructs evaluators for every enabled rule. Disabled rules are
// never constructed. All configuration problems are returned together.
func NewLinter(rules map[string]RuleSettings, log *zap.Logger, options ...LinterOption) (*Linter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Linter{log: log.Named("lint")}
	for _, setOpt := range options {
		setOpt(l)
	}
	l.parser = css.NewParser(log)

	var errs error
	for id := range rules {
		if !Known(id) {
			errs = multierr.Append(errs, fmt.Errorf("unknown rule %q", id))
		}
	}
	for _, id := range IDs() {
		settings, ok := rules[id]
		if !ok || !settings.Enabled {
			continue
		}
		e, err := New(id, settings.Decode)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		l.evaluators = append(l.evaluators, e)
	}
	if errs != nil {
		return nil, errs
	}
	l.log.Debug("Linter ready", zap.Strings("rules", l.Rules()))
	return l, nil
}

// Rules returns identifiers of enabled rules in evaluation order.
func (l *Linter) Rules() []string {
	ids := make([]string, 0, len(l.evaluators))
	for _, e := range l.evaluators {
		ids = append(ids, e.ID())
	}
	return ids
}

// Collect builds property maps for sheet the same way linting does.
func (l *Linter) Collect(sheet *css.Stylesheet) *stacking.Collection {
	return stacking.Collect(sheet, stacking.WithParentDisplay(l.parentDisplay))
}

// Lint parses data and evaluates it.
func (l *Linter) Lint(data []byte, source string) *Result {
	return l.LintSheet(l.parser.Parse(data, source))
}

// LintSheet evaluates every enabled rule over already parsed sheet.
func (l *Linter) LintSheet(sheet *css.Stylesheet) *Result {
	res := NewResult(sheet.Source)
	res.Sheet = sheet
	res.Warnings = append(res.Warnings, sheet.Warnings...)

	if len(l.evaluators) == 0 {
		return res
	}
	maps := l.Collect(sheet)
	for _, e := range l.evaluators {
		l.evaluate(e, sheet, maps, res)
	}
	return res
}

// evaluate runs single evaluator, turning a panic into a diagnostic so the
// other evaluators still run.
func (l *Linter) evaluate(e Evaluator, sheet *css.Stylesheet, maps *stacking.Collection, res *Result) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Rule evaluation ended with panic",
				zap.String("rule", e.ID()), zap.String("source", sheet.Source), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res.Report(Diagnostic{
				RuleID:   e.ID(),
				Severity: common.SeverityError,
				Message:  msgInternalError(r),
			})
		}
	}()
	e.Evaluate(sheet, maps, res)
}

// LintBatch lints sources concurrently using at most workers goroutines
// (unlimited when workers < 1). Results are returned in input order. Sources
// which cannot be read get Result.Err set and are skipped. Only context
// cancellation ends the batch early.
func (l *Linter) LintBatch(ctx context.Context, sources []Source, workers int) ([]*Result, error) {
	results := make([]*Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = l.lintSource(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Linter) lintSource(src Source) *Result {
	start := time.Now()

	data, err := readSource(src)
	if err != nil {
		l.log.Error("Unable to read source, skipping", zap.String("source", src.Name), zap.Error(err))
		res := NewResult(src.Name)
		res.Err = err
		return res
	}
	res := l.Lint(data, src.Name)
	l.log.Debug("Source linted",
		zap.String("source", src.Name), zap.Int("diagnostics", res.Len()), zap.Duration("elapsed", time.Since(start)))
	return res
}

func readSource(src Source) (data []byte, err error) {
	if src.Open == nil {
		return nil, fmt.Errorf("source %s has no reader", src.Name)
	}
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()
	return io.ReadAll(r)
}
