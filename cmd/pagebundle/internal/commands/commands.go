package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wolfeidau/pagebundle/internal/buildconfig"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConfigFlags locates, loads and resolves the build descriptor.
type ConfigFlags struct {
	Config          string   `help:"path to the build config, searched upwards from the working directory when empty" type:"path" env:"PAGEBUNDLE_CONFIG"`
	Root            string   `help:"project root, defaults to the directory holding the config" type:"path" env:"PAGEBUNDLE_ROOT"`
	Layer           []string `help:"extra config files merged over the base config, later files win" type:"path" env:"PAGEBUNDLE_LAYERS"`
	AllowDuplicates bool     `help:"let later page or alias declarations replace earlier ones" default:"false" env:"PAGEBUNDLE_ALLOW_DUPLICATES"`
	AllowUnknown    bool     `help:"ignore unknown keys in the config" default:"false" env:"PAGEBUNDLE_ALLOW_UNKNOWN"`
}

func (f *ConfigFlags) loadOptions() buildconfig.LoadOptions {
	return loadOptions(f.AllowDuplicates, f.AllowUnknown)
}

// Resolve loads the descriptor and its layers and resolves them against the
// project root.
func (f *ConfigFlags) Resolve() (buildconfig.BuildConfig, error) {
	configPath, root := f.Config, f.Root

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return buildconfig.BuildConfig{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		path, dir, err := buildconfig.FindConfig(wd)
		if err != nil {
			return buildconfig.BuildConfig{}, fmt.Errorf("failed to locate config (use --config or PAGEBUNDLE_CONFIG): %w", err)
		}
		configPath = path
		if root == "" {
			root = dir
		}
	}

	if root == "" {
		root = filepath.Dir(configPath)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return buildconfig.BuildConfig{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	raw, err := buildconfig.LoadLayers(append([]string{configPath}, f.Layer...), f.loadOptions())
	if err != nil {
		return buildconfig.BuildConfig{}, err
	}

	cfg, err := buildconfig.Resolve(raw, root)
	if err != nil {
		return buildconfig.BuildConfig{}, fmt.Errorf("%s: %w", configPath, err)
	}

	return cfg, nil
}

func loadOptions(allowDuplicates, allowUnknown bool) buildconfig.LoadOptions {
	opts := buildconfig.LoadOptions{}
	if allowDuplicates {
		opts.Duplicates = buildconfig.DuplicatesLastWins
	}
	if allowUnknown {
		opts.UnknownKeys = buildconfig.UnknownKeysIgnore
	}
	return opts
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
