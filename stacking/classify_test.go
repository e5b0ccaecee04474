package stacking_test

import (
	"testing"

	"isolint/stacking"
)

func props(kv ...string) *stacking.PropertyMap {
	pm := stacking.NewPropertyMap(".test")
	for i := 0; i+1 < len(kv); i += 2 {
		pm.Set(kv[i], kv[i+1])
	}
	return pm
}

func TestCreatesStackingContext(t *testing.T) {
	tests := []struct {
		name    string
		pm      *stacking.PropertyMap
		want    bool
		trigger string
	}{
		{name: "empty", pm: props(), want: false},
		{name: "nil map", pm: nil, want: false},
		{name: "relative with z-index", pm: props("position", "relative", "z-index", "1"), want: true, trigger: "position"},
		{name: "absolute with z-index", pm: props("position", "absolute", "z-index", "0"), want: true, trigger: "position"},
		{name: "fixed with z-index", pm: props("position", "fixed", "z-index", "-1"), want: true, trigger: "position"},
		{name: "sticky with z-index", pm: props("position", "sticky", "z-index", "10"), want: true, trigger: "position"},
		{name: "static with z-index", pm: props("position", "static", "z-index", "1"), want: false},
		{name: "positioned z-index auto", pm: props("position", "relative", "z-index", "auto"), want: false},
		{name: "positioned z-index AUTO", pm: props("position", "relative", "z-index", "AUTO"), want: false},
		{name: "positioned without z-index", pm: props("position", "absolute"), want: false},
		{name: "z-index alone", pm: props("z-index", "5"), want: false},
		{name: "transform", pm: props("transform", "rotate(45deg)"), want: true, trigger: "transform"},
		{name: "transform none", pm: props("transform", "none"), want: false},
		{name: "transform NONE", pm: props("transform", " NONE "), want: false},
		{name: "opacity below one", pm: props("opacity", "0.5"), want: true, trigger: "opacity"},
		{name: "opacity zero", pm: props("opacity", "0"), want: true, trigger: "opacity"},
		{name: "opacity one", pm: props("opacity", "1"), want: false},
		{name: "opacity one point zero", pm: props("opacity", "1.0"), want: false},
		{name: "opacity percentage", pm: props("opacity", "50%"), want: false},
		{name: "opacity non numeric", pm: props("opacity", "var(--o)"), want: false},
		{name: "opacity leading dot", pm: props("opacity", ".3"), want: true, trigger: "opacity"},
		{name: "filter", pm: props("filter", "blur(2px)"), want: true, trigger: "filter"},
		{name: "filter none", pm: props("filter", "none"), want: false},
		{name: "backdrop filter", pm: props("backdrop-filter", "blur(4px)"), want: true, trigger: "backdrop-filter"},
		{name: "mix blend mode", pm: props("mix-blend-mode", "multiply"), want: true, trigger: "mix-blend-mode"},
		{name: "mix blend mode normal", pm: props("mix-blend-mode", "normal"), want: false},
		{name: "background blend mode only", pm: props("background-blend-mode", "multiply"), want: false},
		{name: "perspective", pm: props("perspective", "500px"), want: true, trigger: "perspective"},
		{name: "perspective none", pm: props("perspective", "none"), want: false},
		{name: "clip path", pm: props("clip-path", "circle(50%)"), want: true, trigger: "clip-path"},
		{name: "clip path none", pm: props("clip-path", "none"), want: false},
		{name: "mask", pm: props("mask", "url(m.svg)"), want: true, trigger: "mask"},
		{name: "mask image", pm: props("mask-image", "linear-gradient(black, transparent)"), want: true, trigger: "mask-image"},
		{name: "mask border", pm: props("mask-border", "url(b.png) 30"), want: true, trigger: "mask-border"},
		{name: "mask none", pm: props("mask", "none", "mask-image", "none", "mask-border", "none"), want: false},
		{name: "contain paint", pm: props("contain", "paint"), want: true, trigger: "contain"},
		{name: "contain layout style", pm: props("contain", "style layout"), want: true, trigger: "contain"},
		{name: "contain strict", pm: props("contain", "strict"), want: true, trigger: "contain"},
		{name: "contain content", pm: props("contain", "content"), want: true, trigger: "contain"},
		{name: "contain size", pm: props("contain", "size"), want: false},
		{name: "contain none", pm: props("contain", "none"), want: false},
		{name: "will-change opacity", pm: props("will-change", "opacity"), want: true, trigger: "will-change"},
		{name: "will-change list", pm: props("will-change", "scroll-position, transform"), want: true, trigger: "will-change"},
		{name: "will-change z-index", pm: props("will-change", "z-index"), want: true, trigger: "will-change"},
		{name: "will-change unrelated", pm: props("will-change", "scroll-position, contents"), want: false},
		{name: "isolation only", pm: props("isolation", "isolate"), want: false},
		{name: "irrelevant only", pm: props("color", "red", "display", "block"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stacking.CreatesStackingContext(tt.pm); got != tt.want {
				t.Errorf("CreatesStackingContext() = %v, want %v", got, tt.want)
			}
			trigger, ok := stacking.Trigger(tt.pm)
			if ok != tt.want {
				t.Errorf("Trigger() ok = %v, want %v", ok, tt.want)
			}
			if trigger != tt.trigger {
				t.Errorf("Trigger() = %q, want %q", trigger, tt.trigger)
			}
		})
	}
}

func TestCreatesStackingContext_FlexOrGridItem(t *testing.T) {
	tests := []struct {
		display string
		zIndex  string
		want    bool
	}{
		{"flex", "1", true},
		{"inline-flex", "2", true},
		{"grid", "0", true},
		{"inline-grid", "3", true},
		{"GRID", "3", true},
		{"flex", "auto", false},
		{"block", "1", false},
		{"", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.display+"/"+tt.zIndex, func(t *testing.T) {
			pm := props("z-index", tt.zIndex)
			pm.ParentDisplay = tt.display
			if got := stacking.CreatesStackingContext(pm); got != tt.want {
				t.Errorf("CreatesStackingContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreatesStackingContext_IrrelevantPropertiesDoNotChangeVerdict(t *testing.T) {
	maps := [][]string{
		{},
		{"opacity", "0.5"},
		{"position", "relative", "z-index", "1"},
		{"isolation", "isolate"},
		{"transform", "none"},
	}
	for _, kv := range maps {
		base := stacking.CreatesStackingContext(props(kv...))
		extended := stacking.CreatesStackingContext(props(append(append([]string{}, kv...), "color", "red", "margin", "0")...))
		if base != extended {
			t.Errorf("%v: verdict changed from %v to %v after adding irrelevant properties", kv, base, extended)
		}
	}
}

func TestIsolationIsIsolate(t *testing.T) {
	tests := []struct {
		name string
		pm   *stacking.PropertyMap
		want bool
	}{
		{"isolate", props("isolation", "isolate"), true},
		{"uppercase", props("isolation", "ISOLATE"), true},
		{"auto", props("isolation", "auto"), false},
		{"absent", props("opacity", "0.5"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stacking.IsolationIsIsolate(tt.pm); got != tt.want {
				t.Errorf("IsolationIsIsolate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsolationIndependentOfStackingContext(t *testing.T) {
	pm := props("isolation", "isolate")
	if !stacking.IsolationIsIsolate(pm) || stacking.CreatesStackingContext(pm) {
		t.Errorf("expected (true, false), got (%v, %v)",
			stacking.IsolationIsIsolate(pm), stacking.CreatesStackingContext(pm))
	}
}

func TestOpacity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.5", 0.5, true},
		{" .25 ", 0.25, true},
		{"1", 1, true},
		{"50%", 50, true},
		{"+0.2", 0.2, true},
		{"1e-1", 0.1, true},
		{"abc", 0, false},
		{"", 0, false},
		{"var(--x)", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := stacking.Opacity(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Opacity(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestZIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"-5", -5, true},
		{"100", 100, true},
		{"10px", 10, true},
		{"auto", 0, false},
		{"Auto", 0, false},
		{"var(--z)", 0, false},
		{"", 0, false},
		{"99999999999999999999", 9223372036854775807, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := stacking.ZIndex(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ZIndex(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
