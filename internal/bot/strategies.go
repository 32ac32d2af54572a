package bot

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
)

const noHandReason = "no hand in my cards"

// Easy declares a uniformly random hand from those present in its cards.
type Easy struct {
	rng      *rand.Rand
	relative bool
}

// NewEasy creates an easy strategy.
func NewEasy(rng *rand.Rand, relative bool) *Easy {
	return &Easy{rng: rng, relative: relative}
}

func (e *Easy) Decide(v View) Decision {
	cands := candidates(v, e.relative)
	if len(cands) == 0 {
		return Decision{Check: true, Reasoning: noHandReason}
	}
	l := cands[e.rng.IntN(len(cands))]
	return Decision{Hand: l, Reasoning: fmt.Sprintf("picked %s from %d hands I hold", l, len(cands))}
}

// Mid declares the strongest hand present in its cards.
type Mid struct {
	relative bool
}

// NewMid creates a mid strategy.
func NewMid(relative bool) *Mid {
	return &Mid{relative: relative}
}

func (m *Mid) Decide(v View) Decision {
	cands := candidates(v, m.relative)
	if len(cands) == 0 {
		return Decision{Check: true, Reasoning: noHandReason}
	}
	l := cands[len(cands)-1]
	return Decision{Hand: l, Reasoning: fmt.Sprintf("%s is the strongest hand I hold", l)}
}

// Hard declares the hand it holds that leaves opponents the fewest stronger
// hands to answer with, judged from the cards not yet accounted for.
type Hard struct {
	relative bool
	logger   *log.Logger
}

// NewHard creates a hard strategy.
func NewHard(relative bool, logger *log.Logger) *Hard {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hard{relative: relative, logger: logger.WithPrefix("hard-bot")}
}

func (h *Hard) Decide(v View) Decision {
	cands := candidates(v, h.relative)
	if len(cands) == 0 {
		return Decision{Check: true, Reasoning: noHandReason}
	}

	pool := deck.Remove(deck.Remove(deck.Universe(), v.Seen), v.Cards)
	constructible, err := Constructible(context.Background(), pool)
	if err != nil {
		h.logger.Warn("Constructible evaluation failed, declaring strongest held hand", "error", err)
		best := cands[len(cands)-1]
		return Decision{Hand: best, Reasoning: fmt.Sprintf("%s is the strongest hand I hold", best)}
	}

	best := hands.None
	bestRisk := -1
	for _, c := range cands {
		risk := 0
		for p := hands.Position(c) + 1; p < len(constructible); p++ {
			if constructible[p] {
				risk++
			}
		}
		// Candidates run weak to strong, so <= prefers the stronger hand on ties.
		if bestRisk < 0 || risk <= bestRisk {
			best, bestRisk = c, risk
		}
	}

	h.logger.Debug("Hard bot decision",
		"cards", deck.FormatCards(v.Cards),
		"declared", v.Declared,
		"pool", len(pool),
		"candidates", len(cands),
		"choice", best,
		"risk", bestRisk)

	return Decision{Hand: best, Reasoning: fmt.Sprintf("%s leaves %d stronger hands possible from %d unseen cards", best, bestRisk, len(pool))}
}

// Constructible reports, for every catalog position, whether that hand can be
// formed from some subset of pool. Labels are evaluated in parallel; labels
// not yet started when ctx is cancelled are skipped and ctx's error returned.
func Constructible(ctx context.Context, pool []deck.Card) ([]bool, error) {
	all := hands.All()
	out := make([]bool, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, l := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = hands.ExistsInSubset(l, pool)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
