// Package simulator plays headless bot-only games on the round engine.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
	"github.com/lox/oblech/internal/statistics"
)

// DefaultMaxRounds caps a single game. Bots that keep under-declaring can in
// principle trade checks forever.
const DefaultMaxRounds = 1000

// ErrNoSeats is returned when fewer than two levels are configured.
var ErrNoSeats = errors.New("simulation needs at least two bots")

// Config holds configuration for running simulations
type Config struct {
	Games     int
	Levels    []bot.Level
	Seed      int64
	Workers   int
	MaxRounds int

	BotOptions   []bot.Option
	RoundOptions []round.Option
	Logger       *log.Logger

	// Progress, when set, is called after each finished game with the
	// number completed so far. It may be called from several goroutines.
	Progress func(done int)
}

// Simulator runs bot tournaments
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	config.Logger = config.Logger.WithPrefix("simulator")
	return &Simulator{config: config}
}

// Labels returns the seat labels used in the statistics.
func (s *Simulator) Labels() []string {
	labels := make([]string, len(s.config.Levels))
	for i, l := range s.config.Levels {
		labels[i] = fmt.Sprintf("Seat %d (%s)", i+1, l)
	}
	return labels
}

// Run plays every game and aggregates the results. Each game draws from its
// own generator derived in order from the seed, so results do not depend on
// the number of workers.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if len(s.config.Levels) < 2 {
		return nil, ErrNoSeats
	}
	if s.config.Games <= 0 {
		return nil, fmt.Errorf("invalid games count: %d", s.config.Games)
	}

	parent := randutil.New(s.config.Seed)
	seeds := make([]int64, s.config.Games)
	for i := range seeds {
		seeds[i] = parent.Int64()
	}

	results := make([]statistics.GameResult, s.config.Games)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	var done atomic.Int64
	for i := range seeds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.playGame(seeds[i])
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", i+1, seeds[i], err)
			}
			results[i] = r
			if n := done.Add(1); s.config.Progress != nil {
				s.config.Progress(int(n))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := statistics.New(s.Labels())
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// playGame plays one game to completion or to the round cap.
func (s *Simulator) playGame(seed int64) (statistics.GameResult, error) {
	rng := randutil.New(seed)
	result := statistics.GameResult{Seed: seed, Winner: -1}

	seats := make([]round.Seat, len(s.config.Levels))
	bots := make(map[string]*bot.Bot, len(seats))
	index := make(map[string]int, len(seats))
	for i, level := range s.config.Levels {
		id := fmt.Sprintf("seat-%d", i+1)
		b, err := bot.New(level, randutil.Derive(rng), s.config.BotOptions...)
		if err != nil {
			return result, err
		}
		seats[i] = round.Seat{ID: id, Name: fmt.Sprintf("Seat %d", i+1)}
		bots[id] = b
		index[id] = i
	}

	engine := round.New(randutil.Derive(rng), s.config.RoundOptions...)
	state, _, err := engine.Start(seats)
	if err != nil {
		return result, err
	}

	for state.Round <= s.config.MaxRounds {
		if state.RoundEnded {
			for _, p := range state.Players {
				if state, _, err = engine.Ready(state, p.ID); err != nil {
					return result, err
				}
			}
			continue
		}

		actor := state.CurrentPlayer().ID
		d := bots[actor].Decide(bot.ViewFor(state, actor))
		rounds := state.Round

		var tr round.Transition
		if state, tr, err = engine.Move(state, actor, intentFor(d)); err != nil {
			return result, fmt.Errorf("bot %s proposed an illegal move: %w", actor, err)
		}
		if tr.Kind != round.TransitionChecked {
			continue
		}

		if tr.HandPresent {
			result.ChecksPresent++
		} else {
			result.ChecksAbsent++
		}
		result.Eliminations += len(tr.Eliminated)
		if tr.GameOver {
			result.Rounds = rounds
			if tr.Winner != "" {
				result.Winner = index[tr.Winner]
			}
			return result, nil
		}
	}

	s.config.Logger.Warn("Game hit the round cap", "seed", seed, "rounds", s.config.MaxRounds)
	result.Rounds = s.config.MaxRounds
	return result, nil
}

func intentFor(d bot.Decision) round.Intent {
	if d.Check {
		return round.Check()
	}
	return round.Trump(d.Hand)
}

// RunSimulation is a convenience function for running a simulation with basic parameters
func RunSimulation(ctx context.Context, games int, levels []bot.Level, seed int64, logger *log.Logger) (*statistics.Statistics, error) {
	return New(Config{Games: games, Levels: levels, Seed: seed, Logger: logger}).Run(ctx)
}
