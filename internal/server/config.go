package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/lobby"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
	Bots   *BotSettings    `hcl:"bots,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings controls lobby pacing and limits
type GameSettings struct {
	BotDelayMS   int `hcl:"bot_delay_ms,optional"`
	ReadyDelayMS int `hcl:"ready_delay_ms,optional"`
	MaxBots      int `hcl:"max_bots,optional"`
}

// BotSettings tunes every bot the server creates
type BotSettings struct {
	RelativeToDeclared bool   `hcl:"relative_to_declared,optional"`
	Fallback           string `hcl:"fallback,optional"`
}

// EnvOverrides are read from the environment after the config file.
type EnvOverrides struct {
	Address    string `env:"OBLECH_ADDRESS"`
	Port       int    `env:"OBLECH_PORT"`
	LogLevel   string `env:"OBLECH_LOG_LEVEL"`
	BotDelayMS int    `env:"OBLECH_BOT_DELAY_MS"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	c := &ServerConfig{}
	c.applyDefaults()
	return c
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Bots == nil {
		c.Bots = &BotSettings{}
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Game.BotDelayMS == 0 {
		c.Game.BotDelayMS = int(lobby.DefaultBotDelay / time.Millisecond)
	}
	if c.Game.ReadyDelayMS == 0 {
		c.Game.ReadyDelayMS = int(lobby.DefaultReadyDelay / time.Millisecond)
	}
	if c.Game.MaxBots == 0 {
		c.Game.MaxBots = lobby.DefaultMaxBots
	}
	if c.Bots.Fallback == "" {
		c.Bots.Fallback = bot.FallbackRandomCatalog.String()
	}
}

// ApplyEnv overrides settings from OBLECH_* environment variables.
func (c *ServerConfig) ApplyEnv() error {
	var env EnvOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if env.Address != "" {
		c.Server.Address = env.Address
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.Server.LogLevel = env.LogLevel
	}
	if env.BotDelayMS != 0 {
		c.Game.BotDelayMS = env.BotDelayMS
	}
	return nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	if c.Game.BotDelayMS < 0 || c.Game.ReadyDelayMS < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.Game.MaxBots < 1 {
		return fmt.Errorf("max_bots must be at least 1, got %d", c.Game.MaxBots)
	}
	if _, err := bot.ParseFallback(c.Bots.Fallback); err != nil {
		return err
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// LobbyConfig translates the game and bot settings for the lobby store.
func (c *ServerConfig) LobbyConfig() lobby.Config {
	cfg := lobby.Config{
		BotDelay:   time.Duration(c.Game.BotDelayMS) * time.Millisecond,
		ReadyDelay: time.Duration(c.Game.ReadyDelayMS) * time.Millisecond,
		MaxBots:    c.Game.MaxBots,
	}
	if c.Bots.RelativeToDeclared {
		cfg.BotOptions = append(cfg.BotOptions, bot.WithRelativeToDeclared())
	}
	if fb, err := bot.ParseFallback(c.Bots.Fallback); err == nil {
		cfg.BotOptions = append(cfg.BotOptions, bot.WithFallback(fb))
	}
	return cfg
}
