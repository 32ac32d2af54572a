package bot

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
)

// Level selects a strategy.
type Level string

const (
	LevelEasy Level = "easy"
	LevelMid  Level = "mid"
	LevelHard Level = "hard"
)

// Levels lists every level from weakest to strongest.
var Levels = []Level{LevelEasy, LevelMid, LevelHard}

// ErrUnknownLevel is returned for level names outside Levels.
var ErrUnknownLevel = errors.New("unknown bot level")

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// ParseLevels parses a comma separated list of levels.
func ParseLevels(s string) ([]Level, error) {
	var out []Level
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, err := ParseLevel(part)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Option configures a Bot.
type Option func(*options)

type options struct {
	relative bool
	fallback Fallback
	logger   *log.Logger
}

// WithRelativeToDeclared restricts a strategy to hands that beat the declared
// hand. Without it, strategies choose among every hand they hold and ForTurn
// turns a losing choice into a check.
func WithRelativeToDeclared() Option {
	return func(o *options) { o.relative = true }
}

// WithFallback sets the opening policy used when a bot has nothing to declare.
// Default is FallbackRandomCatalog.
func WithFallback(f Fallback) Option {
	return func(o *options) { o.fallback = f }
}

// WithLogger sets the logger for strategy diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Bot pairs a strategy with the random source and fallback used to make its
// decisions legal. It is not safe for concurrent use.
type Bot struct {
	Level    Level
	strategy Strategy
	rng      *rand.Rand
	fallback Fallback
}

// New creates a bot for level.
func New(level Level, rng *rand.Rand, opts ...Option) (*Bot, error) {
	if rng == nil {
		panic("rng is required for bots")
	}
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	var s Strategy
	switch level {
	case LevelEasy:
		s = NewEasy(rng, o.relative)
	case LevelMid:
		s = NewMid(o.relative)
	case LevelHard:
		s = NewHard(o.relative, o.logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return &Bot{Level: level, strategy: s, rng: rng, fallback: o.fallback}, nil
}

// Decide returns a move that is legal for v.
func (b *Bot) Decide(v View) Decision {
	return ForTurn(b.strategy, v, b.rng, b.fallback)
}

// ParseFallback parses "random" or "weakest".
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(s) {
	case "", "random":
		return FallbackRandomCatalog, nil
	case "weakest":
		return FallbackWeakest, nil
	}
	return FallbackRandomCatalog, fmt.Errorf("unknown fallback %q", s)
}
