package buildconfig

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Resolver validates raw descriptors and normalizes them into BuildConfig values.
type Resolver struct {
	fs FileSystem
}

// NewResolver creates a resolver backed by fs, or by the host filesystem when fs is nil.
func NewResolver(fs FileSystem) *Resolver {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &Resolver{fs: fs}
}

// Resolve validates raw against projectRoot using the host filesystem.
func Resolve(raw RawConfig, projectRoot string) (BuildConfig, error) {
	return NewResolver(nil).Resolve(raw, projectRoot)
}

// Resolve validates raw and returns the normalized BuildConfig. Every page
// entry and template must exist under projectRoot, and all alias targets are
// made absolute relative to projectRoot. The filesystem is only read.
func (r *Resolver) Resolve(raw RawConfig, projectRoot string) (BuildConfig, error) {
	if projectRoot == "" {
		return BuildConfig{}, fieldError(ErrMissingField, "projectRoot", projectRoot)
	}
	if !filepath.IsAbs(projectRoot) {
		return BuildConfig{}, fieldError(ErrInvalidPath, "projectRoot", projectRoot)
	}
	projectRoot = filepath.Clean(projectRoot)

	if len(raw.Pages) == 0 {
		return BuildConfig{}, fieldError(ErrMissingField, "pages", "")
	}

	cfg := BuildConfig{
		ProjectRoot:         projectRoot,
		ProductionSourceMap: deref(raw.ProductionSourceMap),
		LintOnSave:          deref(raw.LintOnSave),
		OutputDir:           r.fs.ResolveAbsolute(projectRoot, cond(raw.OutputDir != "", raw.OutputDir, DefaultOutputDir)),
		PublicPath:          normalizePublicPath(raw.PublicPath),
		Pages:               make(map[string]PageEntry, len(raw.Pages)),
		WebpackOverrides: ResolveConfig{
			Extensions: slices.Clone(raw.WebpackOverrides.Resolve.Extensions),
			Alias:      make(map[string]string, len(raw.WebpackOverrides.Resolve.Alias)),
		},
	}

	for _, name := range slices.Sorted(maps.Keys(raw.Pages)) {
		page, err := r.resolvePage(name, raw.Pages[name], projectRoot)
		if err != nil {
			return BuildConfig{}, err
		}
		cfg.Pages[name] = page
	}

	for _, token := range slices.Sorted(maps.Keys(raw.WebpackOverrides.Resolve.Alias)) {
		target := raw.WebpackOverrides.Resolve.Alias[token]
		field := "webpackOverrides.resolve.alias." + token
		if token == "" {
			return BuildConfig{}, fieldError(ErrInvalidPath, field, target)
		}
		if target == "" {
			return BuildConfig{}, fieldError(ErrMissingField, field, target)
		}
		cfg.WebpackOverrides.Alias[token] = r.fs.ResolveAbsolute(projectRoot, target)
	}

	if dup := firstDuplicate(cfg.WebpackOverrides.Extensions); dup != "" {
		log.Debug().Str("extension", dup).Msg("duplicate resolve extension, later occurrence has no effect")
	}

	log.Debug().
		Str("projectRoot", projectRoot).
		Strs("pages", cfg.PageNames()).
		Int("aliases", len(cfg.WebpackOverrides.Alias)).
		Msg("resolved build config")

	return cfg, nil
}

func (r *Resolver) resolvePage(name string, raw RawPage, projectRoot string) (PageEntry, error) {
	prefix := "pages." + name

	if raw.Entry == "" {
		return PageEntry{}, fieldError(ErrMissingField, prefix+".entry", raw.Entry)
	}
	if raw.Template == "" {
		return PageEntry{}, fieldError(ErrMissingField, prefix+".template", raw.Template)
	}

	entry := r.fs.ResolveAbsolute(projectRoot, raw.Entry)
	if !r.fs.Exists(entry) {
		return PageEntry{}, fieldError(ErrInvalidPath, prefix+".entry", raw.Entry)
	}

	template := r.fs.ResolveAbsolute(projectRoot, raw.Template)
	if !r.fs.Exists(template) {
		return PageEntry{}, fieldError(ErrInvalidPath, prefix+".template", raw.Template)
	}

	filename := cond(raw.Filename != "", raw.Filename, name+".html")
	cleaned, err := cleanOutputPath(filename)
	if err != nil {
		return PageEntry{}, fieldError(ErrInvalidPath, prefix+".filename", filename)
	}

	return PageEntry{
		Entry:    entry,
		Template: template,
		Filename: cleaned,
		Title:    raw.Title,
	}, nil
}

// cleanOutputPath normalizes a page filename to a slash separated path that
// stays inside the output directory.
func cleanOutputPath(filename string) (string, error) {
	filename = filepath.ToSlash(filename)
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("filename %q must be relative", filename)
	}
	cleaned := path.Clean(filename)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("filename %q escapes the output directory", filename)
	}
	return cleaned, nil
}

func normalizePublicPath(publicPath string) string {
	if publicPath == "" {
		return DefaultPublicPath
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}

func deref(b *bool) bool {
	return b != nil && *b
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
