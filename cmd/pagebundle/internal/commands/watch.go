package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wolfeidau/pagebundle/internal/assets"
	"github.com/wolfeidau/pagebundle/internal/logger"
	"github.com/wolfeidau/pagebundle/internal/watch"
)

// WatchCmd rebuilds on every save and runs the lint tool when lintOnSave is set.
type WatchCmd struct {
	Source   ConfigFlags   `embed:""`
	Mode     string        `help:"build mode (production or development)" default:"development" enum:"production,development" env:"PAGEBUNDLE_MODE"`
	LintCmd  string        `help:"lint command run over saved files when lintOnSave is enabled" default:"npx eslint" env:"PAGEBUNDLE_LINT_CMD"`
	Debounce time.Duration `help:"wait for further saves before rebuilding" default:"200ms" env:"PAGEBUNDLE_DEBOUNCE"`
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := c.Source.Resolve()
	if err != nil {
		return err
	}

	pipeline := assets.New(cfg, assets.Config{
		Mode:         assets.Mode(c.Mode),
		MetafileName: assets.DefaultConfig().MetafileName,
		Clean:        true,
	})
	if err := pipeline.Build(); err != nil {
		log.Error().Err(err).Msg("Initial build failed, waiting for changes")
	}

	opts := []watch.Option{watch.WithDebounce(c.Debounce)}
	if cfg.LintOnSave {
		linter, err := watch.NewCommandLinter(cfg.ProjectRoot, strings.Fields(c.LintCmd))
		if err != nil {
			return fmt.Errorf("failed to configure lint command: %w", err)
		}
		opts = append(opts, watch.WithLinter(linter))
		log.Info().Str("lint", c.LintCmd).Msg("Lint on save enabled")
	}

	watcher, err := watch.New(cfg, pipeline, opts...)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watcher.Run(ctx)
}
