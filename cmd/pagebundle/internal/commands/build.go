package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/pagebundle/internal/assets"
	"github.com/wolfeidau/pagebundle/internal/logger"
)

// BuildCmd bundles every page of the build config.
type BuildCmd struct {
	Source  ConfigFlags `embed:""`
	Mode    string      `help:"build mode (production or development)" default:"production" enum:"production,development" env:"PAGEBUNDLE_MODE"`
	NoClean bool        `help:"keep existing files in the output directory" default:"false" env:"PAGEBUNDLE_NO_CLEAN"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := c.Source.Resolve()
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("root", cfg.ProjectRoot).
		Str("mode", c.Mode).
		Msg("Starting build")

	pipeline := assets.New(cfg, assets.Config{
		Mode:         assets.Mode(c.Mode),
		MetafileName: assets.DefaultConfig().MetafileName,
		Clean:        !c.NoClean,
	})
	if err := pipeline.Build(); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	for _, out := range pipeline.Outputs() {
		log.Info().
			Str("page", out.Name).
			Str("html", out.HTMLPath).
			Str("entrypoint", out.Entrypoint).
			Int("scripts", len(out.Scripts)).
			Msg("Page built")
	}

	return nil
}
