package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/lobby"
	"github.com/lox/oblech/internal/round"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type HelloData struct {
	Name string `json:"name"`
}

// LobbyRequestData addresses a lobby. An empty ID means the sender's current lobby.
type LobbyRequestData struct {
	LobbyID string `json:"lobbyId,omitempty"`
}

type AddBotData struct {
	LobbyID string `json:"lobbyId,omitempty"`
	Level   string `json:"level"`
}

type RemoveBotData struct {
	LobbyID string `json:"lobbyId,omitempty"`
	BotID   string `json:"botId"`
}

// MoveData is a turn: Move is "check" or "trump". A trump without a hand
// opens hand selection.
type MoveData struct {
	LobbyID string `json:"lobbyId,omitempty"`
	Move    string `json:"move"`
	Hand    string `json:"hand,omitempty"`
}

// Server → Client Messages

type WelcomeData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type LobbyListData struct {
	Lobbies []lobby.Info `json:"lobbies"`
}

type LobbyClosedData struct {
	LobbyID string `json:"lobbyId"`
}

type GameStateData struct {
	LobbyID string    `json:"lobbyId"`
	State   *GameView `json:"state"`
	Event   string    `json:"event,omitempty"`
}

type GameWonData struct {
	LobbyID    string `json:"lobbyId"`
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerView is a player as seen by one viewer.
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CardCount int         `json:"cardCount"`
	Cards     []deck.Card `json:"cards,omitempty"`
	Score     int         `json:"score"`
}

// GameView is a round state as seen by one viewer. Other players' cards are
// only included once the round's cards are revealed.
type GameView struct {
	Players       []PlayerView    `json:"players"`
	Current       int             `json:"currentPlayerIndex"`
	CurrentHand   hands.Label     `json:"currentHand"`
	RoundEnded    bool            `json:"roundEnded"`
	RevealCards   bool            `json:"revealCards"`
	SelectingHand bool            `json:"selectingHand"`
	Ready         map[string]bool `json:"ready"`
	LastLoser     int             `json:"lastLoserIndex"`
	Status        string          `json:"status"`
	Game          int             `json:"game"`
	Round         int             `json:"round"`
}

// NewGameView masks s for viewer.
func NewGameView(s *round.State, viewer string) *GameView {
	if s == nil {
		return nil
	}
	v := &GameView{
		Players:       make([]PlayerView, len(s.Players)),
		Current:       s.Current,
		CurrentHand:   s.Declared,
		RoundEnded:    s.RoundEnded,
		RevealCards:   s.RevealCards,
		SelectingHand: s.SelectingHand,
		Ready:         make(map[string]bool, len(s.Ready)),
		LastLoser:     s.LastLoser,
		Status:        s.Status,
		Game:          s.Game,
		Round:         s.Round,
	}
	for id, ok := range s.Ready {
		v.Ready[id] = ok
	}
	for i, p := range s.Players {
		pv := PlayerView{ID: p.ID, Name: p.Name, CardCount: p.CardCount, Score: p.Score}
		if s.RevealCards || p.ID == viewer {
			pv.Cards = append([]deck.Card(nil), p.Cards...)
		}
		v.Players[i] = pv
	}
	return v
}

// errorCode maps domain errors to stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, round.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, round.ErrHandTooWeak):
		return "hand_too_weak"
	case errors.Is(err, hands.ErrUnknownHand):
		return "unknown_hand"
	case errors.Is(err, round.ErrNoHandDeclared):
		return "no_hand_declared"
	case errors.Is(err, round.ErrRoundEnded):
		return "round_ended"
	case errors.Is(err, round.ErrRoundInProgress):
		return "round_in_progress"
	case errors.Is(err, round.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, round.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, lobby.ErrLobbyNotFound):
		return "lobby_not_found"
	case errors.Is(err, lobby.ErrNotLeader):
		return "not_leader"
	case errors.Is(err, lobby.ErrAlreadyMember), errors.Is(err, ErrAlreadyInLobby):
		return "already_in_lobby"
	case errors.Is(err, lobby.ErrNotMember):
		return "not_member"
	case errors.Is(err, lobby.ErrNotABot):
		return "not_a_bot"
	case errors.Is(err, lobby.ErrTooManyBots):
		return "too_many_bots"
	case errors.Is(err, lobby.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, lobby.ErrNoGame):
		return "no_game"
	case errors.Is(err, bot.ErrUnknownLevel):
		return "unknown_level"
	case errors.Is(err, ErrNotInLobby):
		return "not_in_lobby"
	default:
		return "internal_error"
	}
}
