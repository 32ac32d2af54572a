package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the websocket game server"`
	Play     PlayCmd          `cmd:"" help:"Play a local game against bots in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Run headless bot tournaments"`
	Hands    HandsCmd         `cmd:"" help:"List the hand catalog from weakest to strongest"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("oblech"),
		kong.Description("Bluffing card game server, bots and terminal client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
