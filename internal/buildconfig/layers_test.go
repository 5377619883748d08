package buildconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localLayerYAML = `lintOnSave: false
pages:
  admin:
    entry: examples/admin.js
    template: public/index.html
webpackOverrides:
  resolve:
    extensions: [".ts", ".js"]
    alias:
      "~": lib
`

func TestLoadLayers(t *testing.T) {
	root := newProject(t)
	base := writeFile(t, root, "pagebundle.yaml", indexYAML)
	local := writeFile(t, root, "pagebundle.local.yaml", localLayerYAML)

	raw, err := LoadLayers([]string{base, local}, LoadOptions{})
	require.NoError(t, err)

	require.NotNil(t, raw.ProductionSourceMap)
	assert.True(t, *raw.ProductionSourceMap)
	require.NotNil(t, raw.LintOnSave)
	assert.False(t, *raw.LintOnSave)

	assert.Len(t, raw.Pages, 2)
	assert.Equal(t, "examples/main.js", raw.Pages["index"].Entry)
	assert.Equal(t, "examples/admin.js", raw.Pages["admin"].Entry)
	assert.Equal(t, []string{".ts", ".js"}, raw.WebpackOverrides.Resolve.Extensions)
	assert.Equal(t, map[string]string{"@": "examples", "~": "lib"}, raw.WebpackOverrides.Resolve.Alias)
}

func TestLoadLayers_PartialPageOverlay(t *testing.T) {
	root := newProject(t)
	base := writeFile(t, root, "pagebundle.yaml", indexYAML)
	local := writeFile(t, root, "pagebundle.local.yaml", "pages:\n  index:\n    title: Home\n")

	raw, err := LoadLayers([]string{base, local}, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, RawPage{
		Entry:    "examples/main.js",
		Template: "public/index.html",
		Filename: "index.html",
		Title:    "Home",
	}, raw.Pages["index"])

	cfg, err := Resolve(raw, root)
	require.NoError(t, err)
	assert.Equal(t, "Home", cfg.Pages["index"].Title)
	assert.Equal(t, filepath.Join(root, "examples", "main.js"), cfg.Pages["index"].Entry)
}

func TestMergeRaw_PageFields(t *testing.T) {
	merged := RawConfig{Pages: map[string]RawPage{
		"index": {Entry: "src/main.js", Template: "public/index.html", Title: "Base"},
	}}
	layer := RawConfig{Pages: map[string]RawPage{
		"index": {Entry: "src/next.js"},
		"admin": {Entry: "src/admin.js", Template: "public/admin.html"},
	}}

	require.NoError(t, MergeRaw(&merged, layer))

	assert.Equal(t, RawPage{Entry: "src/next.js", Template: "public/index.html", Title: "Base"}, merged.Pages["index"])
	assert.Equal(t, RawPage{Entry: "src/admin.js", Template: "public/admin.html"}, merged.Pages["admin"])
	assert.Len(t, layer.Pages, 2)
}

func TestLoadLayers_SkipsMissingOverlay(t *testing.T) {
	root := newProject(t)
	base := writeFile(t, root, "pagebundle.yaml", indexYAML)

	raw, err := LoadLayers([]string{base, filepath.Join(root, "pagebundle.local.yaml")}, LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, raw.Pages, 1)
}

func TestLoadLayers_MissingBase(t *testing.T) {
	_, err := LoadLayers([]string{filepath.Join(t.TempDir(), "pagebundle.yaml")}, LoadOptions{})
	require.Error(t, err)

	_, err = LoadLayers(nil, LoadOptions{})
	require.Error(t, err)
}

func TestMergeRaw_DoesNotMutateLayers(t *testing.T) {
	first := RawConfig{LintOnSave: boolPtr(true)}
	second := RawConfig{LintOnSave: boolPtr(false)}

	var merged RawConfig
	require.NoError(t, MergeRaw(&merged, first))
	require.NoError(t, MergeRaw(&merged, second))

	assert.False(t, *merged.LintOnSave)
	assert.True(t, *first.LintOnSave)
}
