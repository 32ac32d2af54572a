package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/tui"
)

// PlayCmd starts a local game against bots.
type PlayCmd struct {
	Name     string `kong:"default='You',help='Your player name'"`
	Bots     string `kong:"default='mid,hard',help='Comma separated bot levels (easy, mid, hard)'"`
	Delay    int    `kong:"name='delay-ms',default='700',help='Delay before a bot moves, in milliseconds'"`
	Relative bool   `kong:"help='Bots only consider hands that beat the declared hand'"`
	Fallback string `kong:"default='random',enum='random,weakest',help='Opening hand when a bot has nothing to declare'"`
	NoColor  bool   `kong:"help='Disable colours'"`
	LogFile  string `kong:"default='oblech-play.log',help='File for debug logs; the terminal belongs to the UI'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *PlayCmd) Run() error {
	levels, err := bot.ParseLevels(c.Bots)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return fmt.Errorf("at least one bot is required")
	}
	fallback, err := bot.ParseFallback(c.Fallback)
	if err != nil {
		return err
	}
	if c.NoColor {
		tui.DisableColor()
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			log.Error("Failed to close log file", "error", err)
		}
	}()
	logger := log.NewWithOptions(logFile, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})

	seed := randutil.Seed(c.Seed)
	logger.Info("Starting local game", "bots", c.Bots, "seed", seed)

	opts := []bot.Option{bot.WithFallback(fallback), bot.WithLogger(logger)}
	if c.Relative {
		opts = append(opts, bot.WithRelativeToDeclared())
	}
	return tui.Run(tui.Config{
		Name:       c.Name,
		Levels:     levels,
		BotDelay:   time.Duration(c.Delay) * time.Millisecond,
		BotOptions: opts,
		Logger:     logger,
	}, randutil.New(seed))
}
