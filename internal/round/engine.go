package round

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
)

// IntentKind distinguishes the two moves a player can make.
type IntentKind int

const (
	IntentCheck IntentKind = iota
	IntentTrump
)

// Intent is a move submitted by the player whose turn it is.
type Intent struct {
	Kind IntentKind
	Hand hands.Label
}

// Check challenges the declared hand.
func Check() Intent { return Intent{Kind: IntentCheck} }

// Trump declares a stronger hand. Trump(hands.None) only opens hand
// selection for the current player.
func Trump(h hands.Label) Intent { return Intent{Kind: IntentTrump, Hand: h} }

// TransitionKind names what an accepted operation did.
type TransitionKind string

const (
	TransitionStarted   TransitionKind = "started"
	TransitionSelecting TransitionKind = "selecting"
	TransitionTrumped   TransitionKind = "trumped"
	TransitionChecked   TransitionKind = "checked"
	TransitionReady     TransitionKind = "ready"
	TransitionNewRound  TransitionKind = "new_round"
)

// Transition describes the effect of an accepted operation.
type Transition struct {
	Kind  TransitionKind
	Actor string
	Hand  hands.Label

	// Set for checks.
	HandPresent bool
	Loser       string
	Eliminated  []string
	// Winner is set when a check left a single player standing.
	Winner string
	// GameOver is set when a check ended the game and a new one was dealt.
	GameOver bool
}

// Engine applies the rules to State snapshots. It owns a random source and is
// not safe for concurrent use.
type Engine struct {
	rng *rand.Rand
	cfg config
}

// New creates an engine. The RNG is required so dealing stays reproducible in tests.
func New(rng *rand.Rand, opts ...Option) *Engine {
	if rng == nil {
		panic("rng is required for the round engine")
	}
	cfg := config{
		startingCards:   DefaultStartingCards,
		eliminationSize: DefaultEliminationSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.startingCards >= cfg.eliminationSize {
		panic("starting cards must be below the elimination size")
	}
	return &Engine{rng: rng, cfg: cfg}
}

// EliminationSize is the card count that removes a player from the game.
func (e *Engine) EliminationSize() int { return e.cfg.eliminationSize }

// Start begins the first game for roster.
func (e *Engine) Start(roster []Seat) (*State, Transition, error) {
	if len(roster) < 2 {
		return nil, Transition{}, ErrNotEnoughPlayers
	}
	seen := make(map[string]bool, len(roster))
	for _, seat := range roster {
		if seen[seat.ID] {
			return nil, Transition{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, seat.ID)
		}
		seen[seat.ID] = true
	}

	s := &State{Roster: append([]Seat(nil), roster...)}
	e.newGame(s)
	return s, Transition{Kind: TransitionStarted}, nil
}

// Move applies a turn intent from actor.
func (e *Engine) Move(state *State, actor string, in Intent) (*State, Transition, error) {
	if state.RoundEnded {
		return nil, Transition{}, ErrRoundEnded
	}
	if state.CurrentPlayer().ID != actor {
		return nil, Transition{}, ErrNotYourTurn
	}

	switch in.Kind {
	case IntentTrump:
		return e.trump(state, actor, in.Hand)
	case IntentCheck:
		return e.check(state, actor)
	default:
		return nil, Transition{}, fmt.Errorf("unknown intent %d", in.Kind)
	}
}

func (e *Engine) trump(state *State, actor string, h hands.Label) (*State, Transition, error) {
	if h == hands.None {
		s := state.Clone()
		s.SelectingHand = true
		return s, Transition{Kind: TransitionSelecting, Actor: actor}, nil
	}
	if !hands.Valid(h) {
		return nil, Transition{}, fmt.Errorf("%w: %q", ErrUnknownHand, string(h))
	}
	if !hands.Beats(h, state.Declared) {
		return nil, Transition{}, fmt.Errorf("%w: %s does not beat %s", ErrHandTooWeak, h, state.Declared)
	}

	s := state.Clone()
	s.Declared = h
	s.SelectingHand = false
	actorName := s.CurrentPlayer().Name
	s.Current = s.next(s.Current)
	s.Status = trumpStatus(actorName, h, s.CurrentPlayer().Name)
	return s, Transition{Kind: TransitionTrumped, Actor: actor, Hand: h}, nil
}

func (e *Engine) check(state *State, actor string) (*State, Transition, error) {
	if state.Declared == hands.None {
		return nil, Transition{}, ErrNoHandDeclared
	}

	s := state.Clone()
	table := s.AllCards()
	present := hands.IsPossible(s.Declared, table)

	loserIdx := s.previous(s.Current)
	if present {
		loserIdx = s.Current
	}
	loser := &s.Players[loserIdx]
	loser.CardCount++

	tr := Transition{
		Kind:        TransitionChecked,
		Actor:       actor,
		Hand:        s.Declared,
		HandPresent: present,
		Loser:       loser.ID,
	}

	s.Status = checkStatus(s.CurrentPlayer().Name, present, loser.Name)
	s.RoundEnded = true
	s.RevealCards = true
	s.SelectingHand = false
	s.LastLoser = loserIdx
	s.Revealed = append(s.Revealed, table...)

	survivors := s.Players[:0:0]
	for _, p := range s.Players {
		if p.CardCount >= e.cfg.eliminationSize {
			tr.Eliminated = append(tr.Eliminated, p.ID)
			delete(s.Ready, p.ID)
			continue
		}
		survivors = append(survivors, p)
	}
	s.Players = survivors

	switch len(survivors) {
	case 0:
		tr.GameOver = true
		status := s.Status
		e.newGame(s)
		s.Status = status + " " + s.Status
	case 1:
		winner := survivors[0]
		tr.Winner = winner.ID
		tr.GameOver = true
		for i := range s.Roster {
			if s.Roster[i].ID == winner.ID {
				s.Roster[i].Score++
			}
		}
		status := s.Status + " " + winStatus(winner.Name)
		e.newGame(s)
		s.Status = status + " " + s.Status
	default:
		s.LastLoser = loserIdx % len(survivors)
	}
	return s, tr, nil
}

// Ready marks actor as ready for the next round. Once every active player is
// ready the next round is dealt, starting with the last loser.
func (e *Engine) Ready(state *State, actor string) (*State, Transition, error) {
	if state.PlayerIndex(actor) < 0 {
		return nil, Transition{}, ErrUnknownPlayer
	}
	if !state.RoundEnded {
		return nil, Transition{}, ErrRoundInProgress
	}

	s := state.Clone()
	s.Ready[actor] = true
	if !s.allReady() {
		return s, Transition{Kind: TransitionReady, Actor: actor}, nil
	}

	start := 0
	if s.LastLoser >= 0 {
		start = s.LastLoser % len(s.Players)
	}
	e.newRound(s, start)
	return s, Transition{Kind: TransitionNewRound, Actor: actor}, nil
}

// newGame resets s to a fresh game over the whole roster.
func (e *Engine) newGame(s *State) {
	s.Players = make([]Player, len(s.Roster))
	for i, seat := range s.Roster {
		s.Players[i] = Player{
			ID:        seat.ID,
			Name:      seat.Name,
			CardCount: e.cfg.startingCards,
			Score:     seat.Score,
		}
	}
	s.Game++
	s.Round = 0
	s.LastLoser = -1
	s.Revealed = nil
	e.newRound(s, e.rng.IntN(len(s.Players)))
}

// newRound deals fresh cards to every active player and hands the turn to start.
func (e *Engine) newRound(s *State, start int) {
	s.Ready = make(map[string]bool, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		p.Cards = deck.Deal(e.rng, p.CardCount)
		s.Ready[p.ID] = false
	}
	s.Round++
	s.Current = start
	s.Declared = hands.None
	s.RoundEnded = false
	s.RevealCards = false
	s.SelectingHand = false
	s.Status = turnStatus(s.CurrentPlayer().Name)
}
