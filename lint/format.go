package lint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"isolint/common"
)

var (
	sourceColor  = color.New(color.Underline)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	ruleColor    = color.New(color.Faint)
)

// Summary totals a batch of results.
type Summary struct {
	Sources  int `json:"sources"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Summarize totals results.
func Summarize(results []*Result) Summary {
	s := Summary{Sources: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Errors += r.Count(common.SeverityError)
		s.Warnings += r.Count(common.SeverityWarning)
	}
	return s
}

// Problems is total number of diagnostics.
func (s Summary) Problems() int {
	return s.Errors + s.Warnings
}

// Formatter writes results in one of supported report formats.
type Formatter struct {
	Format common.ReportFormat
	// Colored enables terminal colors for text format.
	Colored bool
	// RunID is included into json output.
	RunID string
}

// Write renders results to w.
func (f Formatter) Write(w io.Writer, results []*Result) error {
	switch f.Format {
	case common.ReportFormatText:
		return f.writeText(w, results)
	case common.ReportFormatJson:
		return f.writeJSON(w, results)
	default:
		return fmt.Errorf("unsupported report format %d", f.Format)
	}
}

func (f Formatter) paint(c *color.Color, s string) string {
	if !f.Colored {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (f Formatter) writeText(w io.Writer, results []*Result) error {
	for _, r := range results {
		if r.Err == nil && r.Len() == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, f.paint(sourceColor, r.Source)); err != nil {
			return err
		}
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "  %s  %s\n", f.paint(errorColor, "error"), r.Err); err != nil {
				return err
			}
		}
		for _, d := range r.Diagnostics() {
			sev := f.paint(warningColor, d.Severity.String())
			if d.Severity == common.SeverityError {
				sev = f.paint(errorColor, d.Severity.String())
			}
			if _, err := fmt.Fprintf(w, "  %d:%d  %s  %s  %s\n", d.Pos.Line, d.Pos.Column, sev, d.Message, f.paint(ruleColor, d.RuleID)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	s := Summarize(results)
	if s.Problems() == 0 && s.Failed == 0 {
		return nil
	}
	line := fmt.Sprintf("%d problems (%d errors, %d warnings)", s.Problems(), s.Errors, s.Warnings)
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d sources could not be read", s.Failed)
	}
	c := warningColor
	if s.Errors > 0 || s.Failed > 0 {
		c = errorColor
	}
	_, err := fmt.Fprintln(w, f.paint(c, line))
	return err
}

type jsonDiagnostic struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Node     string `json:"node,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Offset   int    `json:"offset"`
}

type jsonResult struct {
	Source      string           `json:"source"`
	Error       string           `json:"error,omitempty"`
	Warnings    []string         `json:"parserWarnings,omitempty"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

type jsonReport struct {
	RunID   string       `json:"runId,omitempty"`
	Results []jsonResult `json:"results"`
	Summary Summary      `json:"summary"`
}

func (f Formatter) writeJSON(w io.Writer, results []*Result) error {
	report := jsonReport{
		RunID:   f.RunID,
		Results: make([]jsonResult, 0, len(results)),
		Summary: Summarize(results),
	}
	for _, r := range results {
		jr := jsonResult{
			Source:      r.Source,
			Warnings:    r.Warnings,
			Diagnostics: make([]jsonDiagnostic, 0, r.Len()),
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		for _, d := range r.Diagnostics() {
			jr.Diagnostics = append(jr.Diagnostics, jsonDiagnostic{
				Rule:     d.RuleID,
				Severity: d.Severity.String(),
				Message:  d.Message,
				Node:     d.Node,
				Line:     d.Pos.Line,
				Column:   d.Pos.Column,
				Offset:   d.Pos.Offset,
			})
		}
		report.Results = append(report.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
