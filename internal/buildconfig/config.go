package buildconfig

import (
	"maps"
	"slices"
)

const (
	// DefaultOutputDir is used when the descriptor does not set outputDir
	DefaultOutputDir = "dist"
	// DefaultPublicPath is used when the descriptor does not set publicPath
	DefaultPublicPath = "/"
)

// RawConfig is the descriptor as authored. Optional booleans are pointers so
// an omitted value can be told apart from an explicit false.
type RawConfig struct {
	ProductionSourceMap *bool              `yaml:"productionSourceMap,omitempty" json:"productionSourceMap,omitempty"`
	LintOnSave          *bool              `yaml:"lintOnSave,omitempty" json:"lintOnSave,omitempty"`
	OutputDir           string             `yaml:"outputDir,omitempty" json:"outputDir,omitempty"`
	PublicPath          string             `yaml:"publicPath,omitempty" json:"publicPath,omitempty"`
	Pages               map[string]RawPage `yaml:"pages,omitempty" json:"pages,omitempty"`
	WebpackOverrides    RawOverrides       `yaml:"webpackOverrides,omitempty" json:"webpackOverrides,omitempty"`
}

type RawPage struct {
	Entry    string `yaml:"entry,omitempty" json:"entry,omitempty"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
}

type RawOverrides struct {
	Resolve RawResolve `yaml:"resolve,omitempty" json:"resolve,omitempty"`
}

type RawResolve struct {
	Extensions []string          `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Alias      map[string]string `yaml:"alias,omitempty" json:"alias,omitempty"`
}

// BuildConfig is the validated, normalized descriptor handed to a build
// pipeline. It is created once per build invocation and must be treated as
// read-only.
type BuildConfig struct {
	ProjectRoot         string               `yaml:"projectRoot" json:"projectRoot"`
	ProductionSourceMap bool                 `yaml:"productionSourceMap" json:"productionSourceMap"`
	LintOnSave          bool                 `yaml:"lintOnSave" json:"lintOnSave"`
	OutputDir           string               `yaml:"outputDir" json:"outputDir"`
	PublicPath          string               `yaml:"publicPath" json:"publicPath"`
	Pages               map[string]PageEntry `yaml:"pages" json:"pages"`
	WebpackOverrides    ResolveConfig        `yaml:"webpackOverrides" json:"webpackOverrides"`
}

// PageEntry describes one output bundle. Entry and Template are absolute,
// Filename is relative to the output directory.
type PageEntry struct {
	Entry    string `yaml:"entry" json:"entry"`
	Template string `yaml:"template" json:"template"`
	Filename string `yaml:"filename" json:"filename"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
}

// ResolveConfig holds module-resolution overrides. Extensions are in
// precedence order, alias targets are absolute.
type ResolveConfig struct {
	Extensions []string          `yaml:"extensions" json:"extensions"`
	Alias      map[string]string `yaml:"alias" json:"alias"`
}

// PageNames returns the page names in lexical order.
func (c BuildConfig) PageNames() []string {
	return slices.Sorted(maps.Keys(c.Pages))
}

// Raw converts a resolved config back into descriptor form. Resolving the
// result against the same project root yields an identical BuildConfig.
func (c BuildConfig) Raw() RawConfig {
	pages := make(map[string]RawPage, len(c.Pages))
	for name, page := range c.Pages {
		pages[name] = RawPage(page)
	}

	return RawConfig{
		ProductionSourceMap: &c.ProductionSourceMap,
		LintOnSave:          &c.LintOnSave,
		OutputDir:           c.OutputDir,
		PublicPath:          c.PublicPath,
		Pages:               pages,
		WebpackOverrides: RawOverrides{
			Resolve: RawResolve{
				Extensions: slices.Clone(c.WebpackOverrides.Extensions),
				Alias:      maps.Clone(c.WebpackOverrides.Alias),
			},
		},
	}
}
