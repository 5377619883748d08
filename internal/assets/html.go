package assets

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/pagebundle/internal/buildconfig"
)

// vuePlaceholders maps the interpolations found in Vue CLI templates onto
// the equivalent template fields.
var vuePlaceholders = strings.NewReplacer(
	"<%= BASE_URL %>", "{{ .PublicPath }}",
	"<%= htmlWebpackPlugin.options.title %>", "{{ .Title }}",
)

func (p *Pipeline) renderPage(name string, page buildconfig.PageEntry) (PageOutput, error) {
	scripts, styles, entrypoint, err := p.loadScripts(name)
	if err != nil {
		return PageOutput{}, fmt.Errorf("page %s: %w", name, err)
	}

	source, err := os.ReadFile(page.Template)
	if err != nil {
		return PageOutput{}, fmt.Errorf("page %s: failed to read template: %w", name, err)
	}

	tmpl, err := template.New(filepath.Base(page.Template)).
		Funcs(p.templateFuncs()).
		Parse(vuePlaceholders.Replace(string(source)))
	if err != nil {
		return PageOutput{}, fmt.Errorf("page %s: failed to parse template: %w", name, err)
	}

	data := map[string]any{
		"Title":      cond(page.Title != "", page.Title, name),
		"Page":       name,
		"PublicPath": p.build.PublicPath,
		"Scripts":    scripts,
		"Styles":     styles,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return PageOutput{}, fmt.Errorf("page %s: failed to render template: %w", name, err)
	}

	var head strings.Builder
	for _, href := range styles {
		fmt.Fprintf(&head, `<link rel="stylesheet" href="%s">`, html.EscapeString(href))
	}
	for _, href := range scripts[1:] {
		fmt.Fprintf(&head, `<link rel="modulepreload" href="%s">`, html.EscapeString(href))
	}
	body := fmt.Sprintf(`<script type="module" src="%s"></script>`, html.EscapeString(entrypoint))

	doc := injectBefore(buf.String(), "</head>", head.String(), false)
	doc = injectBefore(doc, "</body>", body, true)

	htmlPath := filepath.Join(p.build.OutputDir, filepath.FromSlash(page.Filename))
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return PageOutput{}, fmt.Errorf("page %s: failed to create output directory: %w", name, err)
	}
	// #nosec G306 - generated html is served publicly
	if err := os.WriteFile(htmlPath, []byte(doc), 0o644); err != nil {
		return PageOutput{}, fmt.Errorf("page %s: failed to write html: %w", name, err)
	}

	return PageOutput{
		Name:       name,
		HTMLPath:   htmlPath,
		Entrypoint: entrypoint,
		Scripts:    scripts,
		Styles:     styles,
	}, nil
}

func (p *Pipeline) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
		"asset": func(path string) string {
			return p.build.PublicPath + strings.TrimPrefix(path, "/")
		},
	}
}

// injectBefore inserts tags before the last occurrence of closing, matched
// case-insensitively. When closing is missing the tags are appended, or
// prepended when appendMissing is false.
func injectBefore(doc, closing, tags string, appendMissing bool) string {
	if tags == "" {
		return doc
	}

	idx := lastIndexFold(doc, closing)
	if idx < 0 {
		if appendMissing {
			return doc + tags
		}
		return tags + doc
	}

	return doc[:idx] + tags + doc[idx:]
}

func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
