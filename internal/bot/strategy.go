// Package bot implements computer players for the bluffing game.
//
// A Strategy looks only at a View (its own cards, the declared hand and the
// cards revealed earlier in the game) and proposes a Decision. ForTurn turns
// that proposal into a move the round engine will accept.
package bot

import (
	"math/rand/v2"

	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/round"
)

// View is everything a bot may know when it is its turn.
type View struct {
	Cards    []deck.Card
	Declared hands.Label
	// Seen holds cards revealed at earlier checks of the current game.
	Seen []deck.Card
}

// Decision is a bot's proposed move.
type Decision struct {
	Check     bool
	Hand      hands.Label
	Reasoning string
}

// Strategy proposes a move for a view.
type Strategy interface {
	Decide(v View) Decision
}

// ViewFor extracts the view of player id from a round state.
func ViewFor(s *round.State, id string) View {
	v := View{
		Declared: s.Declared,
		Seen:     append([]deck.Card(nil), s.Revealed...),
	}
	if i := s.PlayerIndex(id); i >= 0 {
		v.Cards = append([]deck.Card(nil), s.Players[i].Cards...)
	}
	return v
}

// Fallback picks the hand to open with when a strategy would check but
// nothing has been declared yet.
type Fallback int

const (
	// FallbackRandomCatalog declares a uniformly random catalog hand.
	FallbackRandomCatalog Fallback = iota
	// FallbackWeakest declares the weakest hand in the catalog.
	FallbackWeakest
)

func (f Fallback) String() string {
	switch f {
	case FallbackWeakest:
		return "weakest"
	default:
		return "random"
	}
}

func (f Fallback) pick(rng *rand.Rand) hands.Label {
	if f == FallbackWeakest {
		return hands.At(0)
	}
	return hands.At(rng.IntN(hands.Count()))
}

// ForTurn adapts a strategy's decision to what is legal this turn. A check
// with nothing declared becomes an opening declaration chosen by fb, and a
// declaration that does not beat the current hand becomes a check.
func ForTurn(s Strategy, v View, rng *rand.Rand, fb Fallback) Decision {
	d := s.Decide(v)
	if d.Check {
		if v.Declared != hands.None {
			return d
		}
		l := fb.pick(rng)
		return Decision{Hand: l, Reasoning: d.Reasoning + "; nothing to check, opening with " + string(l)}
	}
	if !hands.Beats(d.Hand, v.Declared) {
		return Decision{Check: true, Reasoning: d.Reasoning + "; " + string(d.Hand) + " does not beat " + string(v.Declared) + ", checking"}
	}
	return d
}

// candidates returns the hands present in the bot's own cards, optionally
// restricted to those that beat the declared hand.
func candidates(v View, relative bool) []hands.Label {
	possible := hands.Possible(v.Cards)
	if !relative || v.Declared == hands.None {
		return possible
	}
	out := possible[:0]
	for _, l := range possible {
		if hands.Beats(l, v.Declared) {
			out = append(out, l)
		}
	}
	return out
}
