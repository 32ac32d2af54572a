package deck

import rand "math/rand/v2"

// UniverseSize is the number of distinct cards (six ranks by four suits).
const UniverseSize = NumRanks * 4

// Universe returns every distinct card once, rank-major.
func Universe() []Card {
	cards := make([]Card, 0, UniverseSize)
	for _, r := range Ranks {
		for _, s := range Suits {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

// Deal draws count cards independently and uniformly at random, with
// replacement. Hands may hold several copies of the same card; there is no
// physical deck to run out of.
func Deal(rng *rand.Rand, count int) []Card {
	if count <= 0 {
		return []Card{}
	}
	cards := make([]Card, count)
	for i := range cards {
		cards[i] = Card{
			Rank: Ranks[rng.IntN(len(Ranks))],
			Suit: Suits[rng.IntN(len(Suits))],
		}
	}
	return cards
}

// Remove returns pool without cards, removing at most one pool entry per
// element of cards. Cards that are not in the pool are ignored.
func Remove(pool, cards []Card) []Card {
	out := make([]Card, len(pool))
	copy(out, pool)
	for _, c := range cards {
		for i, p := range out {
			if p == c {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}

// RankCounts tallies cards per rank.
func RankCounts(cards []Card) [NumRanks]int {
	var counts [NumRanks]int
	for _, c := range cards {
		if c.Rank <= Ace {
			counts[c.Rank]++
		}
	}
	return counts
}
