package theme

import (
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elderberry/agentops/internal/domain"
)

func TestExportImportRoundTrip(t *testing.T) {
	custom := Theme{
		Name: "elderberry",
		Core: Core{
			Base:     LCH{L: 14.25, C: 6.5, H: 305.125},
			Accent:   LCH{L: 58, C: 72.75, H: 330},
			Contrast: 64.5,
		},
	}

	for _, original := range []Theme{Light, Dark, custom} {
		raw, err := Export(original)
		require.NoError(t, err)

		imported, err := Import(raw)
		require.NoError(t, err)
		if diff := cmp.Diff(original.Normalize(), imported); diff != "" {
			t.Fatalf("round trip mismatch for %s (-want +got):\n%s", original.Name, diff)
		}
	}
}

func TestExportStampsVersionAndTime(t *testing.T) {
	timeNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = time.Now })

	raw, err := Export(Dark)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 1`)
	assert.Contains(t, string(raw), `"exported_at": "2026-03-01T12:00:00Z"`)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"not json":        `{"name":`,
		"missing core":    `{"name":"x","appearance":"dark"}`,
		"unknown field":   `{"name":"x","core":{"base":{"l":1,"c":1,"h":1},"accent":{"l":1,"c":1,"h":1},"contrast":40},"extra":true}`,
		"future version":  `{"version":2,"core":{"base":{"l":1,"c":1,"h":1},"accent":{"l":1,"c":1,"h":1},"contrast":40}}`,
		"lightness":       `{"core":{"base":{"l":120,"c":1,"h":1},"accent":{"l":1,"c":1,"h":1},"contrast":40}}`,
		"chroma":          `{"core":{"base":{"l":50,"c":1,"h":1},"accent":{"l":50,"c":151,"h":1},"contrast":40}}`,
		"hue":             `{"core":{"base":{"l":50,"c":1,"h":360},"accent":{"l":50,"c":1,"h":1},"contrast":40}}`,
		"contrast low":    `{"core":{"base":{"l":50,"c":1,"h":1},"accent":{"l":50,"c":1,"h":1},"contrast":10}}`,
		"bad appearance":  `{"appearance":"sepia","core":{"base":{"l":50,"c":1,"h":1},"accent":{"l":50,"c":1,"h":1},"contrast":40}}`,
		"negative chroma": `{"core":{"base":{"l":50,"c":-1,"h":1},"accent":{"l":50,"c":1,"h":1},"contrast":40}}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(doc))
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument), "got %v", err)
		})
	}
}

func TestImportInfersAppearance(t *testing.T) {
	imported, err := Import([]byte(`{"core":{"base":{"l":12,"c":2,"h":280},"accent":{"l":60,"c":50,"h":290},"contrast":45}}`))
	require.NoError(t, err)
	assert.Equal(t, AppearanceDark, imported.Appearance)
	assert.Equal(t, "custom", imported.Name)
}

func TestBuiltin(t *testing.T) {
	dark, err := Builtin("DARK")
	require.NoError(t, err)
	assert.Equal(t, Dark, dark)

	_, err = Builtin("solarized")
	assert.True(t, domain.IsNotFound(err))
}

func TestCSSVariables(t *testing.T) {
	hexPattern := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, th := range []Theme{Light, Dark} {
		vars := CSSVariables(th)
		require.Len(t, vars, 10)
		for name, value := range vars {
			assert.Regexp(t, hexPattern, value, name)
		}
	}

	dark := Palette(Dark)
	assert.Greater(t, dark[VarBgElevated].L, dark[VarBgBase].L)
	assert.Greater(t, dark[VarTextPrimary].L, dark[VarTextSecondary].L)

	light := Palette(Light)
	assert.Less(t, light[VarBgElevated].L, light[VarBgBase].L)
	assert.Less(t, light[VarTextPrimary].L, light[VarTextSecondary].L)
}

func TestContrastWidensSurfaceSteps(t *testing.T) {
	low := Dark
	high := Dark
	high.Core.Contrast = 90

	gap := func(th Theme) float64 {
		p := Palette(th)
		return p[VarBorder].L - p[VarBgBase].L
	}
	assert.Greater(t, gap(high), gap(low))
}

func TestCSSBlockIsSorted(t *testing.T) {
	css := CSS(Dark)
	lines := strings.Split(strings.TrimSpace(css), "\n")
	require.Equal(t, `:root[data-theme="dark"] {`, lines[0])
	require.Equal(t, "}", lines[len(lines)-1])

	body := lines[1 : len(lines)-1]
	require.Len(t, body, 10)
	names := make([]string, len(body))
	for i, line := range body {
		name, _, ok := strings.Cut(strings.TrimSpace(line), ":")
		require.True(t, ok, line)
		names[i] = name
	}
	assert.IsIncreasing(t, names)
}

func TestStoreSaveLoad(t *testing.T) {
	repo := t.TempDir()

	loaded, err := Load(repo)
	require.NoError(t, err)
	assert.Equal(t, Light, loaded)

	require.NoError(t, Save(repo, Dark))
	loaded, err = Load(repo)
	require.NoError(t, err)
	assert.Equal(t, Dark, loaded)

	bad := Dark
	bad.Core.Contrast = 5
	require.Error(t, Save(repo, bad))

	require.NoError(t, os.WriteFile(FilePath(repo), []byte("{"), 0o644))
	_, err = Load(repo)
	require.Error(t, err)
}
