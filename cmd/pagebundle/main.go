package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/pagebundle/cmd/pagebundle/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Resolve commands.ResolveCmd `cmd:"" help:"Validate the build config and print its normalized form"`
		Check   commands.CheckCmd   `cmd:"" help:"Validate several build configs concurrently"`
		Build   commands.BuildCmd   `cmd:"" help:"Bundle every page and render its HTML"`
		Watch   commands.WatchCmd   `cmd:"" help:"Rebuild on save and lint when lintOnSave is enabled"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("pagebundle"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
