package round

import (
	"maps"

	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
)

// Seat is a lobby member eligible for the next game. Score counts games won.
type Seat struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Player is an active participant of the current game.
type Player struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CardCount int         `json:"cardCount"`
	Cards     []deck.Card `json:"cards"`
	Score     int         `json:"score"`
}

// State is a snapshot of a game in progress.
type State struct {
	// Roster is everyone who plays when a new game begins.
	Roster []Seat `json:"roster"`
	// Players are the active players in turn order.
	Players []Player `json:"players"`
	Current int      `json:"currentPlayerIndex"`

	Declared      hands.Label `json:"currentHand"`
	RoundEnded    bool        `json:"roundEnded"`
	RevealCards   bool        `json:"revealCards"`
	SelectingHand bool        `json:"selectingHand"`

	// Ready is keyed by player ID and only meaningful once the round ended.
	Ready map[string]bool `json:"ready"`
	// LastLoser is the index of the player who starts the next round, or -1.
	LastLoser int    `json:"lastLoserIndex"`
	Status    string `json:"status"`

	Game  int `json:"game"`
	Round int `json:"round"`
	// Revealed holds every card shown at a check during the current game.
	Revealed []deck.Card `json:"revealed"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Roster = append([]Seat(nil), s.Roster...)
	c.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Cards = append([]deck.Card(nil), p.Cards...)
		c.Players[i] = p
	}
	c.Ready = maps.Clone(s.Ready)
	if c.Ready == nil {
		c.Ready = map[string]bool{}
	}
	c.Revealed = append([]deck.Card(nil), s.Revealed...)
	return &c
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() Player {
	return s.Players[s.Current]
}

// PlayerIndex returns the turn-order index of an active player, or -1.
func (s *State) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// AllCards returns the cards of every active player, in turn order.
func (s *State) AllCards() []deck.Card {
	var cards []deck.Card
	for _, p := range s.Players {
		cards = append(cards, p.Cards...)
	}
	return cards
}

// ReadyCount returns how many active players are ready for the next round.
func (s *State) ReadyCount() int {
	n := 0
	for _, p := range s.Players {
		if s.Ready[p.ID] {
			n++
		}
	}
	return n
}

func (s *State) allReady() bool {
	return s.ReadyCount() == len(s.Players)
}

func (s *State) previous(i int) int {
	n := len(s.Players)
	return (i - 1 + n) % n
}

func (s *State) next(i int) int {
	return (i + 1) % len(s.Players)
}
