package parameters

import (
	"testing"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/xshape/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	run, err := FromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 36.0, run.FontSize)
	assert.Equal(t, 18.0, run.Margin())
	assert.Equal(t, HarfBuzz, run.Shaper)
	assert.Equal(t, 32, run.GlyphWidth)
	assert.False(t, run.Placeholder)
}

func TestFromConfig(t *testing.T) {
	conf := testconfig.Conf{
		"font.size":          "24",
		"shaper":             "GoText",
		"render.coalesce":    "true",
		"render.glyphwidth":  "16",
		"raster.placeholder": "1",
		"text.direction":     "RTL",
	}
	run, err := FromConfig(conf)
	require.NoError(t, err)
	assert.Equal(t, 24.0, run.FontSize)
	assert.Equal(t, GoText, run.Shaper)
	assert.True(t, run.Coalesce)
	assert.Equal(t, 16, run.GlyphWidth)
	assert.True(t, run.Placeholder)
	assert.Equal(t, "rtl", run.Direction)
}

func TestMonospaceShaper(t *testing.T) {
	run, err := FromConfig(testconfig.Conf{"shaper": "monospace"})
	require.NoError(t, err)
	assert.Equal(t, Monospace, run.Shaper)
}

func TestFromConfigRejects(t *testing.T) {
	for _, conf := range []testconfig.Conf{
		{"font.size": "huge"},
		{"shaper": "pango"},
		{"render.glyphwidth": "24"},
		{"render.coalesce": "maybe"},
		{"text.direction": "diagonal"},
	} {
		_, err := FromConfig(conf)
		assert.Equal(t, core.EINVALID, core.Code(err), "config %v", conf)
	}
}
