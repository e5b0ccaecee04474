package css

import (
	"fmt"
	"io"
	"strings"
)

// Position locates a node in the source text.
type Position struct {
	Offset int // Byte offset in decoded source
	Line   int // 1-based line
	Column int // 1-based column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Declaration is a single property declaration taken verbatim from a rule block.
type Declaration struct {
	Property  string   // Property name, lowercased
	Value     string   // Value as written, without "!important"
	Important bool     // true if "!important" was present
	Pos       Position // Start of the property name
}

// Rule is a single CSS rule block (selector list + ordered declarations).
type Rule struct {
	Selector     string        // Selector list as written, trimmed at both ends only
	Context      []string      // Enclosing at-rule preludes, outermost first (e.g. "@media print")
	Declarations []Declaration // Declarations in source order, duplicates included
	Pos          Position      // Start of the selector
}

// Last returns the last declaration of the property in this block.
func (r *Rule) Last(property string) (Declaration, bool) {
	property = strings.ToLower(property)
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == property {
			return r.Declarations[i], true
		}
	}
	return Declaration{}, false
}

// Selectors splits the selector list on top level commas. Commas inside
// parentheses, brackets and strings are not separators.
func (r *Rule) Selectors() []string {
	return SplitSelectorList(r.Selector)
}

// SplitSelectorList splits a selector list on top level commas, dropping empty entries.
func SplitSelectorList(list string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)
	for i, c := range list {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			if s := strings.TrimSpace(list[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(list[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Stylesheet is a parsed CSS source. It is never modified after Parse returns.
type Stylesheet struct {
	Source   string   // Name of the source, used for reporting
	Rules    []*Rule  // All rule blocks in document order, at-rule nesting flattened
	Warnings []string // Parse problems and dropped constructs
}

// RulesBySelector returns all rule blocks with exactly the given selector text.
func (s *Stylesheet) RulesBySelector(selector string) []*Rule {
	var matches []*Rule
	for _, rule := range s.Rules {
		if rule.Selector == selector {
			matches = append(matches, rule)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Declarations keep their source order and positions are emitted as comments.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, rule := range s.Rules {
		n, err := writeRule(w, rule)
		total += int64(n)
		if err != nil {
			return total, err
		}

		// Add blank line between rules (except after last)
		if i < len(s.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule to w.
func writeRule(w io.Writer, rule *Rule) (int, error) {
	var total int
	for _, ctx := range rule.Context {
		n, err := fmt.Fprintf(w, "/* %s */\n", ctx)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := fmt.Fprintf(w, "%s { /* %s */\n", rule.Selector, rule.Pos)
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		important := ""
		if d.Important {
			important = " !important"
		}
		n, err = fmt.Fprintf(w, "  %s: %s%s; /* %s */\n", d.Property, d.Value, important, d.Pos)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
