package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfeidau/pagebundle/internal/logger"
	"gopkg.in/yaml.v3"
)

// ResolveCmd prints the normalized build config as a descriptor, with every
// path made absolute, so the output can be loaded again.
type ResolveCmd struct {
	Source ConfigFlags `embed:""`
	Format string      `help:"output format (yaml or json)" default:"yaml" enum:"yaml,json" env:"PAGEBUNDLE_FORMAT"`

	out io.Writer `kong:"-"`
}

func (c *ResolveCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := c.Source.Resolve()
	if err != nil {
		return err
	}

	log.Debug().Str("root", cfg.ProjectRoot).Strs("pages", cfg.PageNames()).Msg("Resolved config")

	doc := cfg.Raw()
	w := output(c.out)

	switch c.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	return nil
}
