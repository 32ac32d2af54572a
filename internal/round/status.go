package round

import (
	"fmt"

	"github.com/lox/oblech/internal/hands"
)

func turnStatus(name string) string {
	return fmt.Sprintf("%s's turn.", name)
}

func trumpStatus(actor string, h hands.Label, next string) string {
	return fmt.Sprintf("%s trumped with %s. Now it's %s's turn.", actor, h, next)
}

func checkStatus(actor string, present bool, loser string) string {
	if present {
		return fmt.Sprintf("%s checked. The hand was present! %s loses.", actor, loser)
	}
	return fmt.Sprintf("%s checked. The hand was NOT there. %s loses.", actor, loser)
}

func winStatus(winner string) string {
	return fmt.Sprintf("%s wins the game!", winner)
}
