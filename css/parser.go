package css

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// At-rules whose blocks do not describe elements. Rule blocks inside them are dropped.
var nonElementAtRules = map[string]bool{
	"@font-face":           true,
	"@page":                true,
	"@counter-style":       true,
	"@font-feature-values": true,
	"@property":            true,
	"@view-transition":     true,
}

var (
	importantPattern = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)
	commentPattern   = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Parser parses CSS stylesheets into a syntax tree of rule blocks.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// block is an open "{" on the parser stack.
type block struct {
	rule    *Rule  // non-nil for rule blocks
	prelude string // at-rule name and prelude for at-rule blocks
	skip    bool   // contents do not describe elements
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for reporting and debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]*Rule, 0),
		Warnings: make([]string, 0),
	}
	if len(source) > 0 {
		sheet.Source = source[0]
	}

	data = decodeSource(data)
	p.log.Debug("Parsing CSS", zap.String("source", sheet.Source), zap.Int("bytes", len(data)))

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var (
		stack    []block
		unclosed bool
	)

	for {
		start := input.Offset()
		gt, tt, tokenData := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				// tdewolff recovers after reporting, keep going
				sheet.Warnings = append(sheet.Warnings, parser.Err().Error())
				p.log.Debug("CSS parse error", zap.String("source", sheet.Source), zap.Error(parser.Err()))
				continue
			}
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				sheet.Warnings = append(sheet.Warnings, err.Error())
				p.log.Debug("CSS read error", zap.String("source", sheet.Source), zap.Error(err))
			}
			if unclosed || len(stack) > 0 {
				sheet.Warnings = append(sheet.Warnings, "unexpected end of input: unclosed block")
			}
			return sheet

		case css.BeginAtRuleGrammar:
			name := strings.ToLower(string(tokenData))
			prelude := strings.TrimSpace(name + " " + joinTokens(parser.Values()))
			skip := inSkipped(stack) || nonElementAtRules[name] || strings.HasSuffix(name, "keyframes")
			if skip {
				p.log.Debug("Skipping @-rule block", zap.String("rule", prelude))
			}
			stack = append(stack, block{prelude: prelude, skip: skip})

		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			// blocks still open at the end of input are closed without "}"
			if tt == css.ErrorToken {
				unclosed = true
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case css.BeginRulesetGrammar:
			selector := selectorText(data, skipBlank(data, start), input.Offset(), tokenData, parser.Values())
			if inSkipped(stack) {
				stack = append(stack, block{skip: true})
				continue
			}
			rule := &Rule{
				Selector: selector,
				Context:  context(stack),
				Pos:      position(data, skipBlank(data, start)),
			}
			sheet.Rules = append(sheet.Rules, rule)
			stack = append(stack, block{rule: rule})

		case css.DeclarationGrammar:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.skip || top.rule == nil {
				continue
			}
			value, important := declarationValue(data, skipBlank(data, start), input.Offset(), parser.Values())
			top.rule.Declarations = append(top.rule.Declarations, Declaration{
				Property:  strings.ToLower(string(tokenData)),
				Value:     value,
				Important: important,
				Pos:       position(data, skipBlank(data, start)),
			})

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) never create stacking contexts
			continue

		case css.QualifiedRuleGrammar:
			// Selector list without block, e.g. "a, b;" - nothing to lint
			sheet.Warnings = append(sheet.Warnings, "qualified rule without block: "+selectorText(data, skipBlank(data, start), input.Offset(), tokenData, parser.Values()))
		}
	}
}

// decodeSource strips UTF-8 BOM and converts UTF-16 with BOM to UTF-8.
func decodeSource(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) &&
		!bytes.HasPrefix(data, []byte{0xFE, 0xFF}) &&
		!bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		return data
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return data
	}
	return out
}

func inSkipped(stack []block) bool {
	for _, b := range stack {
		if b.skip {
			return true
		}
	}
	return false
}

// context returns at-rule preludes enclosing current position, outermost first.
func context(stack []block) []string {
	var out []string
	for _, b := range stack {
		if b.rule == nil && b.prelude != "" {
			out = append(out, b.prelude)
		}
	}
	return out
}

// selectorText returns selector exactly as written in data[from:to], which
// ends with the opening brace. Tokens are used only when source text does
// not look like a ruleset start.
func selectorText(data []byte, from, to int, tokenData []byte, values []css.Token) string {
	if from < to && to <= len(data) {
		if end := bytes.LastIndexByte(data[from:to], '{'); end >= 0 {
			return strings.TrimSpace(string(data[from : from+end]))
		}
	}
	var sb strings.Builder
	sb.Write(tokenData)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(sb.String())
}

// joinTokens builds a single-spaced raw string from tokens.
func joinTokens(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			// Add space between non-whitespace tokens
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// declarationValue returns the value text as written in data[from:to] (the
// whole declaration including terminator) with comments removed, and whether
// it was marked important.
func declarationValue(data []byte, from, to int, tokens []css.Token) (string, bool) {
	raw := rawValue(data, from, to)
	if raw == "" {
		raw = joinTokens(tokens)
	}
	if loc := importantPattern.FindStringIndex(raw); loc != nil {
		return strings.TrimSpace(raw[:loc[0]]), true
	}
	return raw, false
}

func rawValue(data []byte, from, to int) string {
	if from >= to || to > len(data) {
		return ""
	}
	decl := data[from:to]
	colon := bytes.IndexByte(decl, ':')
	if colon < 0 {
		return ""
	}
	value := decl[colon+1:]
	if n := len(value); n > 0 && (value[n-1] == ';' || value[n-1] == '}') {
		value = value[:n-1]
	}
	return strings.TrimSpace(commentPattern.ReplaceAllString(string(value), ""))
}

// skipBlank advances offset past whitespace, stray semicolons and comments.
func skipBlank(data []byte, offset int) int {
	for offset < len(data) {
		switch c := data[offset]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == ';':
			offset++
		case c == '/' && offset+1 < len(data) && data[offset+1] == '*':
			end := bytes.Index(data[offset+2:], []byte("*/"))
			if end < 0 {
				return len(data)
			}
			offset += end + 4
		default:
			return offset
		}
	}
	return offset
}

func position(data []byte, offset int) Position {
	line, col, _ := parse.Position(bytes.NewReader(data), offset)
	return Position{Offset: offset, Line: line, Column: col}
}
