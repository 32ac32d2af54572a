package hands

import "github.com/lox/oblech/internal/deck"

var (
	smallStreet = []deck.Rank{deck.Nine, deck.Ten, deck.Jack, deck.Queen, deck.King}
	bigStreet   = []deck.Rank{deck.Ten, deck.Jack, deck.Queen, deck.King, deck.Ace}
)

// IsPossible reports whether hand l is present in cards. Presence is
// evaluated per label: one card may count toward several hands.
func IsPossible(l Label, cards []deck.Card) bool {
	return present(Lookup(l), deck.RankCounts(cards))
}

func present(h Hand, counts [deck.NumRanks]int) bool {
	switch h.Kind {
	case Single:
		return counts[h.Rank] >= 1
	case Double:
		return counts[h.Rank] >= 2
	case Triple:
		return counts[h.Rank] >= 3
	case Quadruple:
		return counts[h.Rank] >= 4
	case TwoPairs:
		return counts[h.Rank] >= 2 && counts[h.High] >= 2
	case FullHouse:
		if counts[h.Rank] < 3 {
			return false
		}
		for r, n := range counts {
			if deck.Rank(r) != h.Rank && n >= 2 {
				return true
			}
		}
		return false
	case SmallStreet:
		return covers(counts, smallStreet)
	case BigStreet:
		return covers(counts, bigStreet)
	}
	return false
}

func covers(counts [deck.NumRanks]int, ranks []deck.Rank) bool {
	for _, r := range ranks {
		if counts[r] == 0 {
			return false
		}
	}
	return true
}

// Possible returns every label present in cards, weakest first.
func Possible(cards []deck.Card) []Label {
	counts := deck.RankCounts(cards)
	var labels []Label
	for _, h := range catalog {
		if present(h, counts) {
			labels = append(labels, h.Label)
		}
	}
	return labels
}

// ExistsInSubset reports whether some sub-multiset of pool with exactly
// RequiredSize(l) cards forms l. The search is exhaustive over combinations;
// with the pool capped at the 24-card universe the worst case is C(24,5).
func ExistsInSubset(l Label, pool []deck.Card) bool {
	h := Lookup(l)
	size := RequiredSize(l)
	if len(pool) < size {
		return false
	}
	found := false
	Combinations(pool, size, func(subset []deck.Card) bool {
		if present(h, deck.RankCounts(subset)) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Combinations calls visit with every k-element combination of cards, in
// lexicographic index order, until visit returns false. The slice passed to
// visit is reused between calls.
func Combinations(cards []deck.Card, k int, visit func([]deck.Card) bool) {
	n := len(cards)
	if k < 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	subset := make([]deck.Card, k)
	for {
		for i, j := range idx {
			subset[i] = cards[j]
		}
		if !visit(subset) {
			return
		}

		// Advance the rightmost index that still has room.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
