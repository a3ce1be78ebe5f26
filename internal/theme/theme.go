// Package theme holds the Linear-style theme core: a base colour, an accent
// colour and a contrast level, all in LCH. Everything else (surfaces, text,
// borders) is derived from that triple.
package theme

import (
	"fmt"
	"math"
	"strings"

	"github.com/elderberry/agentops/internal/domain"
)

const (
	AppearanceLight = "light"
	AppearanceDark  = "dark"
)

const (
	MaxLightness = 100
	MaxChroma    = 150
	MaxHue       = 360
	MinContrast  = 30
	MaxContrast  = 100
)

// LCH is a CIE LCh(ab) colour: L in [0,100], C in [0,150], H in [0,360).
type LCH struct {
	L float64 `json:"l"`
	C float64 `json:"c"`
	H float64 `json:"h"`
}

func (c LCH) String() string {
	return fmt.Sprintf("lch(%.1f %.1f %.1f)", c.L, c.C, c.H)
}

type Core struct {
	Base     LCH     `json:"base"`
	Accent   LCH     `json:"accent"`
	Contrast float64 `json:"contrast"`
}

type Theme struct {
	Name       string `json:"name"`
	Appearance string `json:"appearance"`
	Core       Core   `json:"core"`
}

var (
	Light = Theme{
		Name:       "light",
		Appearance: AppearanceLight,
		Core: Core{
			Base:     LCH{L: 98, C: 1.5, H: 282},
			Accent:   LCH{L: 52, C: 56, H: 287},
			Contrast: 30,
		},
	}
	Dark = Theme{
		Name:       "dark",
		Appearance: AppearanceDark,
		Core: Core{
			Base:     LCH{L: 9, C: 3, H: 282},
			Accent:   LCH{L: 62, C: 58, H: 287},
			Contrast: 30,
		},
	}
)

// Builtin returns a named built-in theme.
func Builtin(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Light.Name:
		return Light, nil
	case Dark.Name:
		return Dark, nil
	default:
		return Theme{}, domain.NotFound(fmt.Sprintf("unknown theme %q", name))
	}
}

// Normalize fills the name and, when absent, the appearance from the base
// lightness.
func (t Theme) Normalize() Theme {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = "custom"
	}
	t.Appearance = strings.ToLower(strings.TrimSpace(t.Appearance))
	if t.Appearance == "" {
		t.Appearance = AppearanceLight
		if t.Core.Base.L < 50 {
			t.Appearance = AppearanceDark
		}
	}
	return t
}

func (t Theme) IsDark() bool {
	return t.Appearance == AppearanceDark
}

func (t Theme) Validate() error {
	if t.Appearance != AppearanceLight && t.Appearance != AppearanceDark {
		return domain.InvalidArgument(fmt.Sprintf("appearance must be %q or %q", AppearanceLight, AppearanceDark))
	}
	if err := validateLCH("core.base", t.Core.Base); err != nil {
		return err
	}
	if err := validateLCH("core.accent", t.Core.Accent); err != nil {
		return err
	}
	if !inRange(t.Core.Contrast, MinContrast, MaxContrast) {
		return domain.InvalidArgument(fmt.Sprintf("core.contrast must be between %d and %d", MinContrast, MaxContrast))
	}
	return nil
}

func validateLCH(field string, c LCH) error {
	switch {
	case !inRange(c.L, 0, MaxLightness):
		return domain.InvalidArgument(fmt.Sprintf("%s lightness must be between 0 and %d", field, MaxLightness))
	case !inRange(c.C, 0, MaxChroma):
		return domain.InvalidArgument(fmt.Sprintf("%s chroma must be between 0 and %d", field, MaxChroma))
	case math.IsNaN(c.H) || c.H < 0 || c.H >= MaxHue:
		return domain.InvalidArgument(fmt.Sprintf("%s hue must be in [0,%d)", field, MaxHue))
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
