package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
)

// HumanID is the seat ID of the local player.
const HumanID = "you"

// Table runs a local game between one human and a set of bots. It is driven
// from the bubbletea update loop and is not safe for concurrent use.
type Table struct {
	engine  *round.Engine
	state   *round.State
	bots    map[string]*bot.Bot
	version int
	logger  *log.Logger
}

// NewTable seats the human first and one bot per level, then deals the
// first round.
func NewTable(name string, levels []bot.Level, rng *rand.Rand, logger *log.Logger, botOpts []bot.Option, roundOpts ...round.Option) (*Table, []string, error) {
	seats := []round.Seat{{ID: HumanID, Name: name}}
	bots := make(map[string]*bot.Bot, len(levels))
	for i, level := range levels {
		b, err := bot.New(level, randutil.Derive(rng), botOpts...)
		if err != nil {
			return nil, nil, err
		}
		id := fmt.Sprintf("bot-%d", i+1)
		seats = append(seats, round.Seat{ID: id, Name: fmt.Sprintf("Bot %d (%s)", i+1, level)})
		bots[id] = b
	}

	t := &Table{
		engine: round.New(randutil.Derive(rng), roundOpts...),
		bots:   bots,
		logger: logger,
	}
	s, _, err := t.engine.Start(seats)
	if err != nil {
		return nil, nil, err
	}
	t.state = s
	t.version++
	return t, []string{fmt.Sprintf("Game %d, round %d. %s", s.Game, s.Round, s.Status)}, nil
}

// State returns the current round state. Callers must not modify it.
func (t *Table) State() *round.State { return t.state }

// EliminationSize is the card count that knocks a player out.
func (t *Table) EliminationSize() int { return t.engine.EliminationSize() }

// Version increases with every accepted operation.
func (t *Table) Version() int { return t.version }

// HumanSeated reports whether the human is still in the current game.
func (t *Table) HumanSeated() bool { return t.state.PlayerIndex(HumanID) >= 0 }

// HumanTurn reports whether the round waits on the human.
func (t *Table) HumanTurn() bool {
	return !t.state.RoundEnded && t.state.CurrentPlayer().ID == HumanID
}

// BotTurn returns the bot whose move the round waits on.
func (t *Table) BotTurn() (string, bool) {
	if t.state.RoundEnded {
		return "", false
	}
	id := t.state.CurrentPlayer().ID
	_, ok := t.bots[id]
	return id, ok
}

// Play applies the human's move.
func (t *Table) Play(in round.Intent) ([]string, error) {
	return t.apply(HumanID, in)
}

// PlayBot lets the current bot decide and applies its move.
func (t *Table) PlayBot() ([]string, error) {
	id, ok := t.BotTurn()
	if !ok {
		return nil, nil
	}
	d := t.bots[id].Decide(bot.ViewFor(t.state, id))
	t.logger.Debug("Bot decided", "bot", id, "check", d.Check, "hand", d.Hand, "reasoning", d.Reasoning)
	in := round.Check()
	if !d.Check {
		in = round.Trump(d.Hand)
	}
	return t.apply(id, in)
}

// Continue marks the human ready for the next round.
func (t *Table) Continue() ([]string, error) {
	s, tr, err := t.engine.Ready(t.state, HumanID)
	if err != nil {
		return nil, err
	}
	t.state = s
	t.version++
	if tr.Kind == round.TransitionNewRound {
		return []string{"", fmt.Sprintf("Round %d. %s", s.Round, s.Status)}, nil
	}
	return nil, nil
}

func (t *Table) apply(actor string, in round.Intent) ([]string, error) {
	before := t.state
	s, tr, err := t.engine.Move(before, actor, in)
	if err != nil {
		return nil, err
	}
	t.state = s
	t.version++

	name := before.Players[before.PlayerIndex(actor)].Name
	switch tr.Kind {
	case round.TransitionSelecting:
		return nil, nil
	case round.TransitionTrumped:
		return []string{fmt.Sprintf("%s declares %s.", name, tr.Hand)}, nil
	}

	lines := []string{fmt.Sprintf("%s checks %s.", name, tr.Hand)}
	for _, p := range before.Players {
		lines = append(lines, fmt.Sprintf("  %-16s %s", p.Name, FormatCards(p.Cards)))
	}
	lines = append(lines, s.Status)

	if tr.GameOver {
		lines = append(lines, "", fmt.Sprintf("Game %d, round %d. %s", s.Game, s.Round, s.Status))
		return lines, nil
	}
	more, err := t.readyBots()
	return append(lines, more...), err
}

// readyBots marks every bot ready after a check. When the human is out of
// the game this deals the next round straight away.
func (t *Table) readyBots() ([]string, error) {
	for _, p := range t.state.Players {
		if _, ok := t.bots[p.ID]; !ok {
			continue
		}
		s, tr, err := t.engine.Ready(t.state, p.ID)
		if err != nil {
			return nil, err
		}
		t.state = s
		t.version++
		if tr.Kind == round.TransitionNewRound {
			return []string{"", fmt.Sprintf("Round %d. %s", s.Round, s.Status)}, nil
		}
	}
	return nil, nil
}

// FormatCards renders cards with suit colours.
func FormatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return "[]"
	}
	formatted := make([]string, len(cards))
	for i, card := range cards {
		if card.IsRed() {
			formatted[i] = RedCardStyle.Render(card.String())
		} else {
			formatted[i] = BlackCardStyle.Render(card.String())
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// ParseCommand turns typed input into a move. Accepted forms are "check",
// "trump" (opens hand selection) and "trump <hand>", with "c" and "t" as
// shorthands.
func ParseCommand(input string) (round.Intent, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return round.Intent{}, fmt.Errorf("enter a move")
	}
	switch strings.ToLower(fields[0]) {
	case "check", "c":
		return round.Check(), nil
	case "trump", "t":
		if len(fields) == 1 {
			return round.Trump(hands.None), nil
		}
		h, err := hands.Parse(canonicalHand(strings.Join(fields[1:], " ")))
		if err != nil {
			return round.Intent{}, err
		}
		return round.Trump(h), nil
	}
	return round.Intent{}, fmt.Errorf("unknown move %q", fields[0])
}

// canonicalHand maps typed text to the catalog's spelling, ignoring case.
func canonicalHand(s string) string {
	for _, l := range hands.All() {
		if strings.EqualFold(string(l), s) {
			return string(l)
		}
	}
	return s
}
