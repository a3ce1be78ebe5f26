package theme

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	VarBgBase        = "--color-bg-base"
	VarBgElevated    = "--color-bg-elevated"
	VarBgSubtle      = "--color-bg-subtle"
	VarBorder        = "--color-border"
	VarTextPrimary   = "--color-text-primary"
	VarTextSecondary = "--color-text-secondary"
	VarAccent        = "--color-accent"
	VarAccentHover   = "--color-accent-hover"
	VarAccentText    = "--color-accent-text"
	VarFocusRing     = "--color-focus-ring"
)

// Palette derives every surface and text colour from the core triple.
// Surfaces step away from the base towards the text colour; the step grows
// with contrast.
func Palette(t Theme) map[string]LCH {
	t = t.Normalize()
	base, accent, contrast := t.Core.Base, t.Core.Accent, t.Core.Contrast

	dir := -1.0
	if t.IsDark() {
		dir = 1.0
	}
	step := 2 + contrast/100*6

	shift := func(c LCH, dl, chromaScale float64) LCH {
		return LCH{L: clamp(c.L+dl, 0, MaxLightness), C: clamp(c.C*chromaScale, 0, MaxChroma), H: c.H}
	}

	var textPrimary, textSecondary float64
	if t.IsDark() {
		textPrimary = 88 + contrast*0.1
		textSecondary = 62 + contrast*0.15
	} else {
		textPrimary = 12 - contrast*0.1
		textSecondary = 40 - contrast*0.15
	}

	accentText := LCH{L: 100, C: 0, H: accent.H}
	if accent.L > 65 {
		accentText = LCH{L: 8, C: 2, H: accent.H}
	}

	return map[string]LCH{
		VarBgBase:        base,
		VarBgElevated:    shift(base, dir*step, 1),
		VarBgSubtle:      shift(base, dir*2*step, 1),
		VarBorder:        shift(base, dir*3*step, 1.2),
		VarTextPrimary:   LCH{L: clamp(textPrimary, 0, MaxLightness), C: base.C * 0.5, H: base.H},
		VarTextSecondary: LCH{L: clamp(textSecondary, 0, MaxLightness), C: base.C, H: base.H},
		VarAccent:        accent,
		VarAccentHover:   shift(accent, dir*4, 1),
		VarAccentText:    accentText,
		VarFocusRing:     shift(accent, 0, 0.6),
	}
}

// CSSVariables maps each derived variable to an sRGB hex colour.
func CSSVariables(t Theme) map[string]string {
	palette := Palette(t)
	out := make(map[string]string, len(palette))
	for name, c := range palette {
		out[name] = Hex(c)
	}
	return out
}

// CSS renders the variables as a :root block with stable ordering.
func CSS(t Theme) string {
	vars := CSSVariables(t)
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	fmt.Fprintf(&b, ":root[data-theme=%q] {\n", t.Normalize().Name)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", name, vars[name])
	}
	b.WriteString("}\n")
	return b.String()
}

// Hex converts LCH to sRGB, clamping out-of-gamut colours.
func Hex(c LCH) string {
	return colorful.Hcl(c.H, c.C/100, c.L/100).Clamped().Hex()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
