package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/pagebundle/internal/buildconfig"
)

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<title><%= htmlWebpackPlugin.options.title %></title>
<link rel="icon" href="<%= BASE_URL %>favicon.ico">
</head>
<body>
<div id="app"></div>
</body>
</html>
`

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "examples/main.js", "import { message } from '@/msg'\nimport './style.css'\ndocument.title = message\n")
	writeFile(t, root, "examples/msg.js", "export const message = 'hello from pagebundle'\n")
	writeFile(t, root, "examples/style.css", "body { color: red; }\n")
	writeFile(t, root, "public/index.html", indexTemplate)
	return root
}

func resolve(t *testing.T, root string, modify func(raw *buildconfig.RawConfig)) buildconfig.BuildConfig {
	t.Helper()
	raw := buildconfig.RawConfig{
		Pages: map[string]buildconfig.RawPage{
			"index": {Entry: "examples/main.js", Template: "public/index.html", Filename: "index.html", Title: "Demo"},
		},
		WebpackOverrides: buildconfig.RawOverrides{
			Resolve: buildconfig.RawResolve{
				Extensions: []string{".js"},
				Alias:      map[string]string{"@": "examples"},
			},
		},
	}
	if modify != nil {
		modify(&raw)
	}

	cfg, err := buildconfig.Resolve(raw, root)
	require.NoError(t, err)
	return cfg
}

func TestBuild(t *testing.T) {
	root := newProject(t)
	cfg := resolve(t, root, nil)

	pipeline := New(cfg, Config{Mode: ModeDevelopment, Clean: true})
	require.NoError(t, pipeline.Build())

	outputs := pipeline.Outputs()
	require.Len(t, outputs, 1)
	out := outputs[0]
	assert.Equal(t, "index", out.Name)
	assert.Equal(t, "/js/index.js", out.Entrypoint)
	assert.Equal(t, filepath.Join(root, "dist", "index.html"), out.HTMLPath)
	require.Len(t, out.Styles, 1)
	assert.True(t, strings.HasSuffix(out.Styles[0], ".css"))

	bundle := readFile(t, filepath.Join(root, "dist", "js", "index.js"))
	assert.Contains(t, bundle, "hello from pagebundle")

	page := readFile(t, out.HTMLPath)
	assert.Contains(t, page, "<title>Demo</title>")
	assert.Contains(t, page, `href="/favicon.ico"`)
	assert.Contains(t, page, `<script type="module" src="/js/index.js"></script></body>`)
	assert.Contains(t, page, `<link rel="stylesheet" href="`+out.Styles[0]+`"></head>`)

	// development builds always carry source maps
	assert.FileExists(t, filepath.Join(root, "dist", "js", "index.js.map"))
	assert.FileExists(t, filepath.Join(root, "dist", "meta.json"))
}

func TestBuild_ProductionSourceMap(t *testing.T) {
	tests := []struct {
		name      string
		sourceMap bool
	}{
		{name: "disabled", sourceMap: false},
		{name: "enabled", sourceMap: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
				raw.ProductionSourceMap = &tt.sourceMap
			})

			require.NoError(t, New(cfg, DefaultConfig()).Build())

			mapFile := filepath.Join(root, "dist", "js", "index.js.map")
			if tt.sourceMap {
				assert.FileExists(t, mapFile)
			} else {
				assert.NoFileExists(t, mapFile)
			}
			assert.Contains(t, readFile(t, filepath.Join(root, "dist", "js", "index.js")), "hello from pagebundle")
		})
	}
}

func TestBuild_ExtensionOrder(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "examples/msg.ts", "export const message: string = 'hello from typescript'\n")

	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.WebpackOverrides.Resolve.Extensions = []string{".ts", ".js"}
	})

	require.NoError(t, New(cfg, Config{Mode: ModeDevelopment}).Build())

	bundle := readFile(t, filepath.Join(root, "dist", "js", "index.js"))
	assert.Contains(t, bundle, "hello from typescript")
	assert.NotContains(t, bundle, "hello from pagebundle")
}

func TestBuild_ExactAlias(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "examples/main.js", "import { version } from 'vue'\nconsole.log(version)\n")
	writeFile(t, root, "vendor/vue.js", "export const version = 'vendored-vue'\n")

	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.WebpackOverrides.Resolve.Alias["vue$"] = "vendor/vue.js"
	})

	require.NoError(t, New(cfg, Config{Mode: ModeDevelopment}).Build())
	assert.Contains(t, readFile(t, filepath.Join(root, "dist", "js", "index.js")), "vendored-vue")
}

func TestBuild_SharedChunks(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "examples/shared.js", "export function shared() { return 'shared-code' }\n")
	writeFile(t, root, "examples/main.js", "import { shared } from '@/shared'\nconsole.log(shared())\n")
	writeFile(t, root, "examples/admin.js", "import { shared } from '@/shared'\nconsole.log('admin', shared())\n")

	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.PublicPath = "/app/"
		raw.Pages["admin"] = buildconfig.RawPage{Entry: "examples/admin.js", Template: "public/index.html", Filename: "admin/index.html"}
	})

	pipeline := New(cfg, Config{Mode: ModeDevelopment})
	require.NoError(t, pipeline.Build())

	outputs := pipeline.Outputs()
	require.Len(t, outputs, 2)

	admin := outputs[0]
	assert.Equal(t, "admin", admin.Name)
	assert.Equal(t, filepath.Join(root, "dist", "admin", "index.html"), admin.HTMLPath)
	assert.Equal(t, "/app/js/admin.js", admin.Entrypoint)
	require.Len(t, admin.Scripts, 2)
	assert.True(t, strings.HasPrefix(admin.Scripts[1], "/app/js/chunk-"))

	page := readFile(t, admin.HTMLPath)
	assert.Contains(t, page, `<link rel="modulepreload" href="`+admin.Scripts[1]+`">`)
	assert.Contains(t, page, "<title>admin</title>")

	scripts, entrypoint, err := pipeline.LoadScripts("index")
	require.NoError(t, err)
	assert.Equal(t, "/app/js/index.js", entrypoint)
	assert.Equal(t, admin.Scripts[1], scripts[1])
}

func TestBuild_PagesShareEntry(t *testing.T) {
	root := newProject(t)
	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.Pages["admin"] = buildconfig.RawPage{Entry: "examples/main.js", Template: "public/index.html", Filename: "admin.html"}
	})

	// metadata outputs are a map, repeat to cover iteration order
	for range 5 {
		pipeline := New(cfg, Config{Mode: ModeDevelopment, Clean: true})
		require.NoError(t, pipeline.Build())

		outputs := pipeline.Outputs()
		require.Len(t, outputs, 2)
		for _, out := range outputs {
			want := "/js/" + out.Name + ".js"
			assert.Equal(t, want, out.Entrypoint)
			assert.Contains(t, readFile(t, out.HTMLPath), `<script type="module" src="`+want+`"></script>`)
		}
	}

	assert.FileExists(t, filepath.Join(root, "dist", "js", "index.js"))
	assert.FileExists(t, filepath.Join(root, "dist", "js", "admin.js"))
}

func TestBuild_TemplateFuncs(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "public/index.html", `<html>
<head>
{{ safe "<meta name=\"generator\" content=\"pagebundle\">" }}
<link rel="manifest" href="{{ asset "/manifest.json" }}">
</head>
<body>
<script>window.pageScripts = {{ marshal .Scripts }};</script>
</body>
</html>
`)

	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.PublicPath = "/app/"
	})
	pipeline := New(cfg, Config{Mode: ModeDevelopment})
	require.NoError(t, pipeline.Build())

	page := readFile(t, filepath.Join(root, "dist", "index.html"))
	assert.Contains(t, page, `<meta name="generator" content="pagebundle">`)
	assert.Contains(t, page, `href="/app/manifest.json"`)
	assert.Contains(t, page, `window.pageScripts = ["/app/js/index.js"];`)
}

func TestBuild_VueComponent(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "examples/App.vue", "<template><div/></template>\n")
	writeFile(t, root, "examples/main.js", "import App from './App'\nconsole.log(App)\n")

	cfg := resolve(t, root, func(raw *buildconfig.RawConfig) {
		raw.WebpackOverrides.Resolve.Extensions = []string{".js", ".vue"}
	})

	err := New(cfg, DefaultConfig()).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single-file components are not supported")
	assert.Contains(t, err.Error(), "App.vue")
}

func TestBuild_CleansOutputDir(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "dist/stale.js", "stale")

	cfg := resolve(t, root, nil)
	require.NoError(t, New(cfg, DefaultConfig()).Build())
	assert.NoFileExists(t, filepath.Join(root, "dist", "stale.js"))

	writeFile(t, root, "dist/stale.js", "stale")
	require.NoError(t, New(cfg, Config{Mode: ModeProduction}).Build())
	assert.FileExists(t, filepath.Join(root, "dist", "stale.js"))
}

func TestBuild_UnresolvedImport(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "examples/main.js", "import { nope } from '@/missing'\nconsole.log(nope)\n")

	cfg := resolve(t, root, nil)
	err := New(cfg, DefaultConfig()).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esbuild failed")
}

func TestLoadScripts_NotBuilt(t *testing.T) {
	root := newProject(t)
	pipeline := New(resolve(t, root, nil), DefaultConfig())

	_, _, err := pipeline.LoadScripts("index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not built yet")
}

func TestInjectBefore(t *testing.T) {
	tests := []struct {
		name          string
		doc           string
		closing       string
		appendMissing bool
		want          string
	}{
		{name: "before closing tag", doc: "<body>x</body>", closing: "</body>", want: "<body>x<script></script></body>"},
		{name: "case insensitive", doc: "<BODY>x</BODY>", closing: "</body>", want: "<BODY>x<script></script></BODY>"},
		{name: "append when missing", doc: "x", closing: "</body>", appendMissing: true, want: "x<script></script>"},
		{name: "prepend when missing", doc: "x", closing: "</head>", want: "<script></script>x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, injectBefore(tt.doc, tt.closing, "<script></script>", tt.appendMissing))
		})
	}
}
