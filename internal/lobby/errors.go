package lobby

import (
	"errors"

	"github.com/lox/oblech/internal/round"
)

var (
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrNotLeader        = errors.New("only the lobby leader can do that")
	ErrAlreadyMember    = errors.New("already in the lobby")
	ErrNotMember        = errors.New("not in the lobby")
	ErrNotABot          = errors.New("member is not a bot")
	ErrTooManyBots      = errors.New("lobby has the maximum number of bots")
	ErrGameInProgress   = errors.New("a game is in progress")
	ErrNoGame           = errors.New("no game has been started")
	ErrNotEnoughPlayers = round.ErrNotEnoughPlayers
)
