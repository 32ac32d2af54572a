package round

import (
	"errors"

	"github.com/lox/oblech/internal/hands"
)

// Illegal operations. None of them change state.
var (
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
	ErrDuplicatePlayer  = errors.New("player appears twice in the roster")
	ErrRoundEnded       = errors.New("round has ended")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrUnknownHand      = hands.ErrUnknownHand
	ErrHandTooWeak      = errors.New("hand does not beat the declared hand")
	ErrNoHandDeclared   = errors.New("no hand has been declared")
	ErrUnknownPlayer    = errors.New("player is not in this round")
	ErrRoundInProgress  = errors.New("round is still in progress")
)
