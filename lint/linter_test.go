package lint_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"isolint/common"
	"isolint/lint"
	"isolint/stacking"
)

// splitRules are all rules except the legacy one.
var splitRules = []string{
	lint.RedundantDeclarationID,
	lint.IneffectiveBlendID,
	lint.PreferOverSideEffectsID,
	lint.ZIndexRangeID,
	lint.HighDescendantCountID,
}

func yamlOptions(t *testing.T, src string) lint.Decoder {
	t.Helper()
	if src == "" {
		return lint.NoOptions
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("bad options in test: %v", err)
	}
	if len(node.Content) == 0 {
		return lint.NoOptions
	}
	return node.Content[0].Decode
}

func newLinter(t *testing.T, rules map[string]string) *lint.Linter {
	t.Helper()
	settings := make(map[string]lint.RuleSettings, len(rules))
	for id, opts := range rules {
		settings[id] = lint.RuleSettings{Enabled: true, Decode: yamlOptions(t, opts)}
	}
	l, err := lint.NewLinter(settings, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewLinter() error = %v", err)
	}
	return l
}

func enable(ids ...string) map[string]string {
	rules := make(map[string]string, len(ids))
	for _, id := range ids {
		rules[id] = ""
	}
	return rules
}

func lintString(t *testing.T, l *lint.Linter, src string) []lint.Diagnostic {
	t.Helper()
	return l.Lint([]byte(src), "test.css").Diagnostics()
}

func assertRules(t *testing.T, diags []lint.Diagnostic, want ...string) {
	t.Helper()
	if len(diags) != len(want) {
		t.Fatalf("expected %d diagnostics %v, got %d: %v", len(want), want, len(diags), diags)
	}
	for i, d := range diags {
		if d.RuleID != want[i] {
			t.Errorf("diagnostic %d: expected rule %s, got %s (%s)", i, want[i], d.RuleID, d.Message)
		}
	}
}

func TestLint_RedundantIsolation(t *testing.T) {
	l := newLinter(t, enable(splitRules...))

	src := ".x{position:relative;z-index:1;isolation:isolate}"
	diags := lintString(t, l, src)
	assertRules(t, diags, lint.RedundantDeclarationID)

	d := diags[0]
	if !strings.HasPrefix(src[d.Pos.Offset:], "isolation") {
		t.Errorf("expected diagnostic at isolation declaration, got offset %d", d.Pos.Offset)
	}
	if d.Pos.Line != 1 {
		t.Errorf("expected line 1, got %d", d.Pos.Line)
	}
	if d.Source != "test.css" {
		t.Errorf("expected source test.css, got %q", d.Source)
	}
	if d.Severity != common.SeverityError {
		t.Errorf("expected default severity error, got %s", d.Severity)
	}
	if d.Node != "isolation: isolate" {
		t.Errorf("unexpected node %q", d.Node)
	}
	if !strings.Contains(d.Message, `"position: relative"`) {
		t.Errorf("message does not name the cause: %s", d.Message)
	}
}

func TestLint_RedundantAcrossBlocks(t *testing.T) {
	l := newLinter(t, enable(lint.RedundantDeclarationID))

	src := ".x { opacity: 0.5 }\n.y { color: red }\n.x { isolation: isolate }\n"
	diags := lintString(t, l, src)
	assertRules(t, diags, lint.RedundantDeclarationID)
	if diags[0].Pos.Line != 3 {
		t.Errorf("expected diagnostic on line 3, got %d", diags[0].Pos.Line)
	}
}

func TestLint_SelectorsDifferingInWhitespaceStayApart(t *testing.T) {
	l := newLinter(t, enable(lint.RedundantDeclarationID))

	assertRules(t, lintString(t, l, ".a > .b { isolation: isolate; } .a>.b { transform: scale(2); }"))

	diags := lintString(t, l, ".a > .b { isolation: isolate; transform: scale(2); }")
	assertRules(t, diags, lint.RedundantDeclarationID)
	if !strings.Contains(diags[0].Message, `".a > .b"`) {
		t.Errorf("message must name selector as written: %s", diags[0].Message)
	}
}

func TestLint_DeclarationQuotedAsWritten(t *testing.T) {
	l := newLinter(t, enable(lint.PreferOverSideEffectsID))

	diags := lintString(t, l, ".x { transform: translate3d( 0 , 0 , 0 ); }")
	assertRules(t, diags, lint.PreferOverSideEffectsID)
	if !strings.Contains(diags[0].Message, "translate3d( 0 , 0 , 0 )") {
		t.Errorf("message must quote declaration as written: %s", diags[0].Message)
	}
}

func TestLint_IsolationAloneIsClean(t *testing.T) {
	l := newLinter(t, enable(splitRules...))
	assertRules(t, lintString(t, l, ".x { isolation: isolate; color: red }"))
}

func TestLint_IneffectiveOnBackgroundBlend(t *testing.T) {
	l := newLinter(t, enable(splitRules...))

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"multiply", ".x{isolation:isolate;background-blend-mode:multiply}", []string{lint.IneffectiveBlendID}},
		{"normal", ".x{isolation:isolate;background-blend-mode:normal}", nil},
		{"without isolation", ".x{background-blend-mode:screen}", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRules(t, lintString(t, l, tt.src), tt.want...)
		})
	}
}

func TestLint_PreferOverSideEffects(t *testing.T) {
	l := newLinter(t, enable(splitRules...))

	tests := []struct {
		name string
		src  string
		hits int
	}{
		{"translateZ", ".x{transform: translateZ(0)}", 1},
		{"translateZ uppercase spaced", ".x{transform: TRANSLATEZ( 0 )}", 1},
		{"translate3d", ".x{transform: translate3d(0, 0, 0)}", 1},
		{"matrix3d identity", ".x{transform: matrix3d(1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1)}", 1},
		{"real transform", ".x{transform: rotate(5deg)}", 0},
		{"opacity nudge", ".x{opacity: 0.999}", 1},
		{"opacity lower bound", ".x{opacity: 0.99}", 1},
		{"opacity visible change", ".x{opacity: 0.5}", 0},
		{"opacity one", ".x{opacity: 1}", 0},
		{"will-change transform", ".x{will-change: transform}", 1},
		{"will-change z-index", ".x{will-change: z-index}", 1},
		{"will-change scroll", ".x{will-change: scroll-position}", 0},
		{"every duplicate", ".x{transform: translateZ(0); transform: translate3d(0,0,0)}", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]string, tt.hits)
			for i := range want {
				want[i] = lint.PreferOverSideEffectsID
			}
			assertRules(t, lintString(t, l, tt.src), want...)
		})
	}
}

func TestLint_OpacityNudgeIsAlsoStackingContext(t *testing.T) {
	l := newLinter(t, enable(lint.PreferOverSideEffectsID))

	res := l.Lint([]byte(".x{opacity:0.999}"), "test.css")
	assertRules(t, res.Diagnostics(), lint.PreferOverSideEffectsID)

	maps := l.Collect(res.Sheet)
	if pm := maps.Get(".x"); pm == nil || !stacking.CreatesStackingContext(pm) {
		t.Errorf("expected .x to create stacking context")
	}
}

func TestLint_ZIndexRange(t *testing.T) {
	tests := []struct {
		name string
		opts string
		src  string
		hits int
	}{
		{"at default limit", "", ".x{z-index:100}", 0},
		{"above default limit", "", ".x{z-index:101}", 1},
		{"negative", "", ".x{z-index:-9999}", 0},
		{"auto", "", ".x{z-index:auto}", 0},
		{"not a number", "", ".x{z-index:var(--z)}", 0},
		{"custom limit", "maxZIndex: 10", ".x{z-index:11}", 1},
		{"custom limit not exceeded", "maxZIndex: 10", ".x{z-index:10}", 0},
		{"last value wins", "", ".x{z-index:500} .x{z-index:5}", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLinter(t, map[string]string{lint.ZIndexRangeID: tt.opts})
			want := make([]string, tt.hits)
			for i := range want {
				want[i] = lint.ZIndexRangeID
			}
			assertRules(t, lintString(t, l, tt.src), want...)
		})
	}
}

func TestLint_HighDescendantCount(t *testing.T) {
	tests := []struct {
		name string
		opts string
		src  string
		hits int
	}{
		{"class is specific enough", "", ".a{isolation:isolate}", 0},
		{"element selector", "", "div{isolation:isolate}", 1},
		{"universal", "", ".very-general-class *{transform:rotate(1deg)}", 1},
		{"not a stacking context", "", "div{color:red}", 0},
		{"custom limit", "maxDescendantCount: 40", ".a{opacity:.5}", 1},
		{"id selector", "", "#main div{isolation:isolate}", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLinter(t, map[string]string{lint.HighDescendantCountID: tt.opts})
			want := make([]string, tt.hits)
			for i := range want {
				want[i] = lint.HighDescendantCountID
			}
			assertRules(t, lintString(t, l, tt.src), want...)
		})
	}
}

func TestLint_DescendantDiagnosticAtRule(t *testing.T) {
	l := newLinter(t, enable(lint.HighDescendantCountID))

	src := "\n\ndiv {\n  isolation: isolate;\n}\n"
	diags := lintString(t, l, src)
	assertRules(t, diags, lint.HighDescendantCountID)
	if diags[0].Pos.Line != 3 || diags[0].Node != "div" {
		t.Errorf("expected diagnostic for div on line 3, got %s at %s", diags[0].Node, diags[0].Pos)
	}
}

func TestLint_IgnoreSelectorsAndSeverity(t *testing.T) {
	l := newLinter(t, map[string]string{
		lint.PreferOverSideEffectsID: "severity: warning\nignoreSelectors: ['^\\.legacy-']",
	})

	res := l.Lint([]byte(".legacy-box{transform:translateZ(0)} .box{transform:translateZ(0)}"), "test.css")
	diags := res.Diagnostics()
	assertRules(t, diags, lint.PreferOverSideEffectsID)
	if diags[0].Severity != common.SeverityWarning {
		t.Errorf("expected warning, got %s", diags[0].Severity)
	}
	if res.Errored() {
		t.Errorf("warnings alone must not make result errored")
	}
	if res.Count(common.SeverityWarning) != 1 {
		t.Errorf("expected 1 warning, got %d", res.Count(common.SeverityWarning))
	}
}

func TestLint_DocumentOrder(t *testing.T) {
	l := newLinter(t, enable(splitRules...))

	src := ".a { transform: translateZ(0) }\n.b { position: relative; z-index: 1; isolation: isolate }\n.c { z-index: 1000 }\n"
	diags := lintString(t, l, src)
	assertRules(t, diags, lint.PreferOverSideEffectsID, lint.RedundantDeclarationID, lint.ZIndexRangeID)
	for i := 1; i < len(diags); i++ {
		if diags[i-1].Pos.Offset > diags[i].Pos.Offset {
			t.Errorf("diagnostics out of order: %s before %s", diags[i-1].Pos, diags[i].Pos)
		}
	}
}

func TestLint_MediaBlocksShareSelectorMap(t *testing.T) {
	l := newLinter(t, enable(lint.RedundantDeclarationID))

	src := ".x { isolation: isolate }\n@media (min-width: 10px) { .x { opacity: .9 } }\n"
	assertRules(t, lintString(t, l, src), lint.RedundantDeclarationID)
}

func TestNewLinter_InvalidPatterns(t *testing.T) {
	settings := map[string]lint.RuleSettings{
		lint.ZIndexRangeID: {Enabled: true, Decode: yamlOptions(t, "ignoreSelectors: ['(', '[a-', '\\.ok']")},
	}
	_, err := lint.NewLinter(settings, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected one error per bad pattern (2), got %d: %v", n, err)
	}
}

func TestNewLinter_InvalidLegacyPatterns(t *testing.T) {
	settings := map[string]lint.RuleSettings{
		lint.IsolateOnStackID: {Enabled: true, Decode: yamlOptions(t, "ignoreElements: ['(']\nrequireClasses: ['*']\nignoreClasses: [ok]")},
	}
	_, err := lint.NewLinter(settings, zaptest.NewLogger(t))
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 errors, got %d: %v", n, err)
	}
	if err != nil && !strings.Contains(err.Error(), "requireClasses") {
		t.Errorf("error does not name the option: %v", err)
	}
}

func TestNewLinter_UnknownRule(t *testing.T) {
	_, err := lint.NewLinter(map[string]lint.RuleSettings{"isolate-on-stack/bogus": {Enabled: true}}, zaptest.NewLogger(t))
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("expected unknown rule error, got %v", err)
	}
}

func TestNewLinter_UnknownOptionKeysIgnored(t *testing.T) {
	l := newLinter(t, map[string]string{lint.ZIndexRangeID: "maxZIndex: 5\nsomethingElse: true"})
	assertRules(t, lintString(t, l, ".x{z-index:6}"), lint.ZIndexRangeID)
}

func TestNewLinter_InvalidOptionValues(t *testing.T) {
	tests := []struct {
		id   string
		opts string
	}{
		{lint.HighDescendantCountID, "maxDescendantCount: -1"},
		{lint.ZIndexRangeID, "maxZIndex: [1]"},
		{lint.RedundantDeclarationID, "severity: fatal"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			settings := map[string]lint.RuleSettings{tt.id: {Enabled: true, Decode: yamlOptions(t, tt.opts)}}
			if _, err := lint.NewLinter(settings, zaptest.NewLogger(t)); err == nil {
				t.Errorf("expected error for %q", tt.opts)
			}
		})
	}
}

func TestNewLinter_DisabledRulesNotConstructed(t *testing.T) {
	settings := map[string]lint.RuleSettings{
		lint.ZIndexRangeID: {Enabled: false, Decode: func(any) error {
			t.Error("options of disabled rule decoded")
			return errors.New("must not be called")
		}},
	}
	l, err := lint.NewLinter(settings, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewLinter() error = %v", err)
	}
	if len(l.Rules()) != 0 {
		t.Errorf("expected no rules, got %v", l.Rules())
	}
	assertRules(t, lintString(t, l, ".x{z-index:100000}"))
}

func TestLinter_RulesInRegistryOrder(t *testing.T) {
	l := newLinter(t, enable(lint.IsolateOnStackID, lint.ZIndexRangeID, lint.RedundantDeclarationID))
	got := l.Rules()
	want := []string{lint.RedundantDeclarationID, lint.ZIndexRangeID, lint.IsolateOnStackID}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Rules() = %v, want %v", got, want)
	}
}

func TestLint_ParserWarningsKept(t *testing.T) {
	l := newLinter(t, enable(lint.ZIndexRangeID))
	res := l.Lint([]byte(".x { z-index: 1"), "broken.css")
	if len(res.Warnings) == 0 {
		t.Errorf("expected parser warnings for unclosed block")
	}
}

func TestLintBatch_OrderAndFailures(t *testing.T) {
	l := newLinter(t, enable(lint.PreferOverSideEffectsID))

	open := func(s string) func() (io.ReadCloser, error) {
		return func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(s)), nil
		}
	}
	sources := []lint.Source{
		{Name: "a.css", Open: open(".a{transform:translateZ(0)}")},
		{Name: "b.css", Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") }},
		{Name: "c.css", Open: open(".c{color:red}")},
		{Name: "d.css", Open: open(".d{opacity:.995} .e{will-change:opacity}")},
	}

	results, err := l.LintBatch(context.Background(), sources, 2)
	if err != nil {
		t.Fatalf("LintBatch() error = %v", err)
	}
	if len(results) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(results))
	}
	wantCounts := []int{1, 0, 0, 2}
	for i, r := range results {
		if r.Source != sources[i].Name {
			t.Errorf("result %d: expected source %s, got %s", i, sources[i].Name, r.Source)
		}
		if r.Len() != wantCounts[i] {
			t.Errorf("%s: expected %d diagnostics, got %d", r.Source, wantCounts[i], r.Len())
		}
	}
	if results[1].Err == nil || !results[1].Errored() {
		t.Errorf("expected read error on b.css")
	}
}

func TestLintBatch_Cancelled(t *testing.T) {
	l := newLinter(t, enable(lint.PreferOverSideEffectsID))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sources := []lint.Source{{Name: "a.css", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	}}}
	if _, err := l.LintBatch(ctx, sources, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
