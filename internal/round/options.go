package round

// Defaults for the card limits of a game.
const (
	DefaultStartingCards   = 1
	DefaultEliminationSize = 6
)

// Option configures an Engine during creation.
type Option func(*config)

type config struct {
	startingCards   int
	eliminationSize int
}

// WithStartingCards sets how many cards every player holds at the start of a game.
// Default is 1.
func WithStartingCards(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.startingCards = n
		}
	}
}

// WithEliminationSize sets the card count at which a player leaves the game.
// Default is 6.
func WithEliminationSize(n int) Option {
	return func(c *config) {
		if n > 1 {
			c.eliminationSize = n
		}
	}
}
