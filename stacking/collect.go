package stacking

import (
	"strings"

	"isolint/css"
)

// PropertyMap holds the last declaration of every relevant property for one
// selector. At most one value is kept per property name.
type PropertyMap struct {
	Selector string
	// ParentDisplay is the display value of the parent element, supplied from
	// outside. It cannot be derived from a rule block.
	ParentDisplay string
	// Rule is the first rule block carrying Selector, nil for maps built by hand.
	Rule *css.Rule

	decls map[string]css.Declaration
	order []string
}

// NewPropertyMap returns empty property map for selector.
func NewPropertyMap(selector string) *PropertyMap {
	return &PropertyMap{
		Selector: selector,
		decls:    make(map[string]css.Declaration),
	}
}

// Set records value for property, overwriting previous one. Irrelevant
// properties are dropped.
func (pm *PropertyMap) Set(property, value string) *PropertyMap {
	pm.record(css.Declaration{Property: strings.ToLower(strings.TrimSpace(property)), Value: value})
	return pm
}

func (pm *PropertyMap) record(d css.Declaration) {
	if !relevantProperties.has(d.Property) || strings.TrimSpace(d.Value) == "" {
		return
	}
	if _, exists := pm.decls[d.Property]; !exists {
		pm.order = append(pm.order, d.Property)
	}
	pm.decls[d.Property] = d
}

// Value returns normalized (lowercased, whitespace collapsed) value of property.
func (pm *PropertyMap) Value(property string) (string, bool) {
	d, ok := pm.Declaration(property)
	if !ok {
		return "", false
	}
	return normalize(d.Value), true
}

// Declaration returns the declaration which provided value for property.
func (pm *PropertyMap) Declaration(property string) (css.Declaration, bool) {
	if pm == nil {
		return css.Declaration{}, false
	}
	d, ok := pm.decls[strings.ToLower(property)]
	return d, ok
}

// Has reports whether property has been declared.
func (pm *PropertyMap) Has(property string) bool {
	_, ok := pm.Declaration(property)
	return ok
}

// Properties returns property names in order of their first declaration.
func (pm *PropertyMap) Properties() []string {
	if pm == nil {
		return nil
	}
	return append([]string(nil), pm.order...)
}

func (pm *PropertyMap) Len() int {
	if pm == nil {
		return 0
	}
	return len(pm.decls)
}

// Collection maps selector text to its PropertyMap. Selectors keep the order of
// their first appearance in the stylesheet.
type Collection struct {
	maps  map[string]*PropertyMap
	order []string
}

// Get returns property map for selector text or nil.
func (c *Collection) Get(selector string) *PropertyMap {
	if c == nil {
		return nil
	}
	return c.maps[selector]
}

// Entries returns all property maps in order of first appearance.
func (c *Collection) Entries() []*PropertyMap {
	if c == nil {
		return nil
	}
	out := make([]*PropertyMap, 0, len(c.order))
	for _, sel := range c.order {
		out = append(out, c.maps[sel])
	}
	return out
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

type collectOptions struct {
	parentDisplay map[string]string
}

// Option customizes Collect.
type Option func(*collectOptions)

// WithParentDisplay supplies display value of the parent element keyed by selector text.
func WithParentDisplay(displays map[string]string) Option {
	return func(o *collectOptions) {
		o.parentDisplay = displays
	}
}

// Collect walks every rule block of sheet in document order and builds
// property maps keyed by literal selector text. For duplicate property names
// the last declaration wins, also across rule blocks sharing a selector.
// Selectors differing only in whitespace are distinct entries. The stylesheet
// is not modified.
func Collect(sheet *css.Stylesheet, options ...Option) *Collection {
	opts := &collectOptions{}
	for _, setOpt := range options {
		setOpt(opts)
	}

	c := &Collection{maps: make(map[string]*PropertyMap)}
	if sheet == nil {
		return c
	}

	for _, rule := range sheet.Rules {
		pm, exists := c.maps[rule.Selector]
		if !exists {
			pm = NewPropertyMap(rule.Selector)
			pm.Rule = rule
			pm.ParentDisplay = opts.parentDisplay[rule.Selector]
			c.maps[rule.Selector] = pm
			c.order = append(c.order, rule.Selector)
		}
		for _, d := range rule.Declarations {
			pm.record(d)
		}
	}
	return c
}
