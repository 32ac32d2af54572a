package main

import (
	"fmt"

	"github.com/lox/oblech/cmd/oblech/shared"
	"github.com/lox/oblech/internal/lobby"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/server"
)

// ServerCmd runs the websocket server. Flags override OBLECH_* variables,
// which override the config file.
type ServerCmd struct {
	Config   string `kong:"default='oblech.hcl',help='Path to the HCL config file'"`
	Address  string `kong:"help='Listen address (overrides config)'"`
	Port     int    `kong:"help='Listen port (overrides config)'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
	MaxBots  int    `kong:"help='Maximum bots per lobby (overrides config)'"`
	BotDelay int    `kong:"name='bot-delay-ms',help='Delay before a bot moves, in milliseconds (overrides config)'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	logger, err := shared.SetupLogger(shared.LevelFor(c.Debug, cfg.Server.LogLevel))
	if err != nil {
		return err
	}

	seed := randutil.Seed(c.Seed)
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		logger.Info("Using random seed", "seed", seed)
	}

	bus := lobby.NewEventBus()
	store := lobby.NewStore(cfg.LobbyConfig(), nil, bus, randutil.New(seed), logger)
	s := server.NewServer(cfg.GetServerAddress(), store, bus, logger)

	logger.Info("Starting oblech server",
		"address", cfg.GetServerAddress(),
		"bot_delay_ms", cfg.Game.BotDelayMS,
		"ready_delay_ms", cfg.Game.ReadyDelayMS,
		"max_bots", cfg.Game.MaxBots,
		"fallback", cfg.Bots.Fallback,
	)

	ctx := shared.SetupSignalHandler(logger)
	return s.Serve(ctx)
}

// load reads the config file, then the environment, then flags.
func (c *ServerCmd) load() (*server.ServerConfig, error) {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", c.Config, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.MaxBots != 0 {
		cfg.Game.MaxBots = c.MaxBots
	}
	if c.BotDelay != 0 {
		cfg.Game.BotDelayMS = c.BotDelay
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
