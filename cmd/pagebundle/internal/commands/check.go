package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/wolfeidau/pagebundle/internal/buildconfig"
	"github.com/wolfeidau/pagebundle/internal/logger"
)

// CheckCmd validates several descriptors, each resolved against its own directory.
type CheckCmd struct {
	Configs         []string `arg:"" help:"config files to validate" type:"existingfile"`
	AllowDuplicates bool     `help:"let later page or alias declarations replace earlier ones" default:"false" env:"PAGEBUNDLE_ALLOW_DUPLICATES"`
	AllowUnknown    bool     `help:"ignore unknown keys in the config" default:"false" env:"PAGEBUNDLE_ALLOW_UNKNOWN"`

	out io.Writer `kong:"-"`
}

func (c *CheckCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	opts := loadOptions(c.AllowDuplicates, c.AllowUnknown)

	requests := make([]buildconfig.Request, 0, len(c.Configs))
	for _, path := range c.Configs {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve config path %s: %w", path, err)
		}

		raw, err := buildconfig.LoadFile(abs, opts)
		if err != nil {
			return err
		}

		requests = append(requests, buildconfig.Request{
			Name:        path,
			Raw:         raw,
			ProjectRoot: filepath.Dir(abs),
		})
	}

	configs, err := buildconfig.NewResolver(nil).ResolveAll(ctx, requests)
	if err != nil {
		return err
	}

	w := output(c.out)
	for i, cfg := range configs {
		log.Debug().Str("config", requests[i].Name).Strs("pages", cfg.PageNames()).Msg("config ok")
		fmt.Fprintf(w, "ok %s: %d page(s), %d alias(es)\n", requests[i].Name, len(cfg.Pages), len(cfg.WebpackOverrides.Alias))
	}

	return nil
}
