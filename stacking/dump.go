package stacking

import (
	"sort"

	"github.com/maruel/natural"

	"isolint/utils/debug"
)

// Dump renders collected property maps with their verdicts for debug reports.
func (c *Collection) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Selectors: %d", c.Len())
	for _, pm := range c.Entries() {
		verdict := "none"
		if prop, ok := Trigger(pm); ok {
			verdict = "via " + prop
		}
		tw.Line(1, "Selector[%q] stacking[%s] isolate[%t]", pm.Selector, verdict, IsolationIsIsolate(pm))
		if pm.ParentDisplay != "" {
			tw.TextBlock(2, "parent display", pm.ParentDisplay)
		}
		props := pm.Properties()
		sort.Sort(natural.StringSlice(props))
		for _, prop := range props {
			d, _ := pm.Declaration(prop)
			tw.Pair(2, prop, d.Value, d.Pos.String())
		}
	}
	return tw.String()
}
