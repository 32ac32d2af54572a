package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/lox/oblech/cmd/oblech/shared"
	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
	"github.com/lox/oblech/internal/simulator"
	"github.com/lox/oblech/internal/statistics"
)

// SimulateCmd plays bot-only games and reports win rates per seat.
type SimulateCmd struct {
	Games     int    `kong:"default='1000',help='Number of games to play'"`
	Levels    string `kong:"default='easy,mid,hard',help='Comma separated bot levels, one per seat'"`
	Workers   int    `kong:"help='Parallel workers (default GOMAXPROCS)'"`
	MaxRounds int    `kong:"default='1000',help='Round cap per game'"`
	Starting  int    `kong:"default='1',help='Cards dealt to each player in the first round'"`
	Eliminate int    `kong:"default='6',help='Card count at which a player is eliminated'"`
	Relative  bool   `kong:"help='Bots only consider hands that beat the declared hand'"`
	Fallback  string `kong:"default='random',enum='random,weakest',help='Opening hand when a bot has nothing to declare'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	Quiet     bool   `kong:"help='Skip the progress bar'"`
}

func (c *SimulateCmd) Run() error {
	logger, err := shared.SetupLogger(shared.LevelFor(c.Debug, "warn"))
	if err != nil {
		return err
	}
	levels, err := bot.ParseLevels(c.Levels)
	if err != nil {
		return err
	}
	fallback, err := bot.ParseFallback(c.Fallback)
	if err != nil {
		return err
	}
	if c.Starting < 1 || c.Starting >= c.Eliminate {
		return fmt.Errorf("starting cards (%d) must be at least 1 and below the elimination size (%d)", c.Starting, c.Eliminate)
	}

	botOpts := []bot.Option{bot.WithFallback(fallback), bot.WithLogger(logger)}
	if c.Relative {
		botOpts = append(botOpts, bot.WithRelativeToDeclared())
	}

	seed := randutil.Seed(c.Seed)
	cfg := simulator.Config{
		Games:      c.Games,
		Levels:     levels,
		Seed:       seed,
		Workers:    c.Workers,
		MaxRounds:  c.MaxRounds,
		BotOptions: botOpts,
		RoundOptions: []round.Option{
			round.WithStartingCards(c.Starting),
			round.WithEliminationSize(c.Eliminate),
		},
		Logger: logger,
	}

	if !c.Quiet {
		bar, err := pterm.DefaultProgressbar.WithTotal(c.Games).WithTitle("Simulating").Start()
		if err != nil {
			return err
		}
		var mu sync.Mutex
		cfg.Progress = func(int) {
			mu.Lock()
			bar.Increment()
			mu.Unlock()
		}
		defer func() { _, _ = bar.Stop() }()
	}

	ctx := shared.SetupSignalHandler(logger)
	started := time.Now()
	stats, err := simulator.New(cfg).Run(ctx)
	if err != nil {
		return err
	}
	return printReport(stats, seed, time.Since(started))
}

func printReport(stats *statistics.Statistics, seed int64, elapsed time.Duration) error {
	pterm.DefaultSection.Println("Results")
	pterm.Info.Printfln("%d games in %s (seed %d)", stats.Games, elapsed.Round(time.Millisecond), seed)

	seats := pterm.TableData{{"Seat", "Wins", "Win rate", "95% CI"}}
	for _, s := range stats.Seats {
		low, high := s.ConfidenceInterval95()
		seats = append(seats, []string{
			s.Label,
			fmt.Sprint(s.Wins),
			fmt.Sprintf("%.1f%%", s.WinRate()*100),
			fmt.Sprintf("[%.1f%%, %.1f%%]", low*100, high*100),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(seats).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Rounds")
	totals := pterm.TableData{
		{"Metric", "Value"},
		{"Rounds played", fmt.Sprint(stats.Rounds)},
		{"Rounds per game", fmt.Sprintf("%.2f ± %.2f (median %.1f, P95 %.1f)", stats.MeanRounds(), stats.StdDev(), stats.Median(), stats.Percentile(0.95))},
		{"Checks, hand present", fmt.Sprint(stats.ChecksPresent)},
		{"Checks, hand absent", fmt.Sprint(stats.ChecksAbsent)},
		{"Present rate", fmt.Sprintf("%.1f%%", stats.PresentRate()*100)},
		{"Eliminations", fmt.Sprint(stats.Eliminations)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(totals).Render(); err != nil {
		return err
	}

	if stats.Unfinished > 0 {
		pterm.Warning.Printfln("%d games hit the round cap without a winner", stats.Unfinished)
	}
	return nil
}
