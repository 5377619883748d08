package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

var assetLoaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
}

// Build runs esbuild for every page, loads the metadata and renders each
// page's HTML template into the output directory
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := p.build.PageNames()
	if len(names) == 0 {
		return errors.New("no pages configured")
	}

	if p.config.Clean {
		if err := p.cleanOutputDir(); err != nil {
			return err
		}
	}

	entryPoints := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  p.build.Pages[name].Entry,
			OutputPath: entryOutputPath(name),
		})
	}

	log.Info().Strs("pages", names).Str("mode", string(p.config.Mode)).Msg("Building assets")

	production := p.config.Mode == ModeProduction

	options := api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.build.ProjectRoot,
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		Outdir:              p.build.OutputDir,
		ChunkNames:          "js/chunk-[hash]",
		AssetNames:          "assets/[name]-[hash]",
		Format:              api.FormatESModule,
		Loader:              assetLoaders,
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(string(p.config.Mode)),
		},
		MinifyWhitespace:  production,
		MinifyIdentifiers: production,
		MinifySyntax:      production,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(!production || p.build.ProductionSourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
	}

	if len(p.build.WebpackOverrides.Extensions) > 0 {
		options.ResolveExtensions = p.build.WebpackOverrides.Extensions
	}
	if len(p.build.WebpackOverrides.Alias) > 0 {
		options.Plugins = append(options.Plugins, aliasPlugin(p.build.WebpackOverrides.Alias))
	}
	options.Plugins = append(options.Plugins, vueComponentPlugin())

	result := api.Build(options)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			event := log.Error().Str("error", msg.Text)
			if msg.Location != nil {
				event = event.Str("file", msg.Location.File).Int("line", msg.Location.Line)
			}
			event.Msg("Build error")
		}
		return fmt.Errorf("esbuild failed with %d error(s), first: %s", len(result.Errors), result.Errors[0].Text)
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
	}

	// Write metafile
	metafilePath := filepath.Join(p.build.OutputDir, p.config.MetafileName)
	if err := os.WriteFile(metafilePath, []byte(result.Metafile), 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return err
	}
	p.metadata = &metadata

	outputs := make([]PageOutput, 0, len(names))
	for _, name := range names {
		out, err := p.renderPage(name, p.build.Pages[name])
		if err != nil {
			return err
		}
		log.Info().Str("page", name).Str("file", out.HTMLPath).Msg("Rendered page")
		outputs = append(outputs, out)
	}
	p.outputs = outputs

	return nil
}

// LoadScripts returns the ordered list of script URLs needed for the given
// page and the URL of the page's entry bundle.
func (p *Pipeline) LoadScripts(page string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	scripts, _, entrypoint, err := p.loadScripts(page)
	return scripts, entrypoint, err
}

func (p *Pipeline) loadScripts(page string) ([]string, []string, string, error) {
	if p.metadata == nil {
		return nil, nil, "", errors.New("assets not built yet, call Build() first")
	}

	// Pages may share an entry file, so the bundle is found by the output
	// path Build assigned to the page rather than by its entry point.
	want := filepath.Join(p.build.OutputDir, entryOutputPath(page)+".js")

	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == "" || p.absPath(outputPath) != want {
			continue
		}

		scripts := []string{}
		styles := []string{}
		visited := make(map[string]bool)

		entrypoint := p.assetURL(outputPath)
		scripts = append(scripts, entrypoint)
		visited[outputPath] = true
		p.addDependencies(info, &scripts, visited)

		if info.CSSBundle != "" {
			styles = append(styles, p.assetURL(info.CSSBundle))
		}
		return scripts, styles, entrypoint, nil
	}

	return nil, nil, "", fmt.Errorf("entrypoint for page %s not found in metadata", page)
}

// entryOutputPath is the esbuild output path, without extension, of a page's
// entry bundle.
func entryOutputPath(page string) string {
	return filepath.Join("js", filepath.FromSlash(page))
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.assetURL(imp.Path))

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// absPath resolves a metafile path, which esbuild reports relative to the
// project root, to an absolute path.
func (p *Pipeline) absPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.build.ProjectRoot, filepath.FromSlash(path))
}

// assetURL maps an output path to the URL it is served from.
func (p *Pipeline) assetURL(outputPath string) string {
	rel, err := filepath.Rel(p.build.OutputDir, p.absPath(outputPath))
	if err != nil {
		rel = outputPath
	}
	return p.build.PublicPath + filepath.ToSlash(rel)
}

// cleanOutputDir removes the output directory, refusing to touch anything
// that is not strictly inside the project root.
func (p *Pipeline) cleanOutputDir() error {
	rel, err := filepath.Rel(p.build.ProjectRoot, p.build.OutputDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		log.Warn().Str("outputDir", p.build.OutputDir).Msg("Output directory is outside the project root, not cleaning")
		return nil
	}

	log.Debug().Str("outputDir", p.build.OutputDir).Msg("Cleaning output directory")
	return os.RemoveAll(p.build.OutputDir)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
