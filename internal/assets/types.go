package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/wolfeidau/pagebundle/internal/buildconfig"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// PageOutput describes the files produced for one page.
type PageOutput struct {
	Name       string
	HTMLPath   string
	Entrypoint string
	Scripts    []string
	Styles     []string
}

// Pipeline builds every page of a BuildConfig and renders its HTML template
type Pipeline struct {
	build    buildconfig.BuildConfig
	config   Config
	metadata *BuildMetadata
	outputs  []PageOutput
	mu       sync.RWMutex
}

// New creates a new asset pipeline for the given build configuration
func New(build buildconfig.BuildConfig, config Config) *Pipeline {
	if config.MetafileName == "" {
		config.MetafileName = DefaultConfig().MetafileName
	}
	if config.Mode == "" {
		config.Mode = ModeProduction
	}
	return &Pipeline{
		build:  build,
		config: config,
	}
}

// Outputs returns the pages produced by the last successful build.
func (p *Pipeline) Outputs() []PageOutput {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PageOutput, len(p.outputs))
	copy(out, p.outputs)
	return out
}

// marshal encodes value as JSON for use inside a <script> block.
func marshal(value any) (template.JS, error) {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		return "", fmt.Errorf("context can only be json serializable: %w", err)
	}

	return template.JS(strings.TrimSpace(buf.String())), nil //nolint:gosec
}
