package hands

import (
	"testing"

	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/randutil"
)

func TestIsPossible(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hand  Label
		cards string
		want  bool
	}{
		{"Single 9", "9s", true},
		{"Single 9", "10s", false},
		{"Double 9", "9s 9c Qd", true},
		{"Double 9", "9s 10c Qd", false},
		{"Triple Q", "Qs Qc Qd", true},
		{"Triple Q", "Qs Qc Kd", false},
		{"Quadruple A", "As Ac Ad Ah", true},
		{"Quadruple A", "As As As Ks", false},
		{"2 Pairs 9-A", "9s 9c As Ad", true},
		{"2 Pairs 9-A", "9s 9c 9d Ad", false},
		{"Full House K", "Ks Kc Kd 9s 9h", true},
		{"Full House K", "Ks Kc Kd 9s 10h", false},
		{"Full House K", "Ks Kc Kd Kh Qs", false},
		{"Full House K", "Ks Kc 9d 9s 9h", false},
		{"Small Street", "9s 10c Jd Qh Ks", true},
		{"Small Street", "10c Jd Qh Ks As", false},
		{"Big Street", "10c Jd Qh Ks As", true},
		{"Big Street", "9s 10c Jd Qh Ks", false},
		// Duplicate cards are allowed and count separately.
		{"Double J", "Js Js", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.hand)+"/"+tt.cards, func(t *testing.T) {
			got := IsPossible(tt.hand, deck.MustParseCards(tt.cards))
			if got != tt.want {
				t.Errorf("IsPossible(%q, %s) = %v, want %v", tt.hand, tt.cards, got, tt.want)
			}
		})
	}
}

func TestIsPossibleSharesCardsAcrossHands(t *testing.T) {
	t.Parallel()
	cards := deck.MustParseCards("9s 10c Jd Qh Ks As")
	for _, l := range []Label{"Small Street", "Big Street", "Single 9", "Single A"} {
		if !IsPossible(l, cards) {
			t.Errorf("%q should be present in %v", l, cards)
		}
	}
}

func TestIsPossibleIsMonotonic(t *testing.T) {
	t.Parallel()
	rng := randutil.New(11)
	extraCards := deck.Universe()
	for i := 0; i < 200; i++ {
		cards := deck.Deal(rng, rng.IntN(8))
		for _, l := range Possible(cards) {
			for _, extra := range extraCards {
				if !IsPossible(l, append(append([]deck.Card{}, cards...), extra)) {
					t.Fatalf("%q present in %v but lost after adding %v", l, cards, extra)
				}
			}
		}
	}
}

func TestPossible(t *testing.T) {
	t.Parallel()
	got := Possible(deck.MustParseCards("9s 9c Qd"))
	want := []Label{"Single 9", "Single Q", "Double 9"}
	if len(got) != len(want) {
		t.Fatalf("Possible = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Possible[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := Possible(nil); len(got) != 0 {
		t.Errorf("no cards means no hands, got %v", got)
	}
}

func TestCombinations(t *testing.T) {
	t.Parallel()
	cards := deck.Universe()
	count := 0
	Combinations(cards, 5, func([]deck.Card) bool {
		count++
		return true
	})
	if count != 42504 {
		t.Errorf("C(24,5) visits = %d, want 42504", count)
	}

	count = 0
	Combinations(cards[:4], 2, func(subset []deck.Card) bool {
		if len(subset) != 2 {
			t.Errorf("subset has %d cards", len(subset))
		}
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("visit should stop early, visited %d", count)
	}

	Combinations(cards[:2], 3, func([]deck.Card) bool {
		t.Error("k larger than the pool must not visit anything")
		return true
	})
}

func TestExistsInSubset(t *testing.T) {
	t.Parallel()
	full := deck.Universe()
	for _, l := range All() {
		if !ExistsInSubset(l, full) {
			t.Errorf("%q should be constructible from the full universe", l)
		}
	}

	pool := deck.MustParseCards("9s 9c 9d Ks Kc Ah")
	if !ExistsInSubset("Full House 9", pool) {
		t.Error("Full House 9 exists in pool")
	}
	if ExistsInSubset("Full House K", pool) {
		t.Error("Full House K needs three kings")
	}
	if ExistsInSubset("Small Street", pool) {
		t.Error("no street in pool")
	}
	if ExistsInSubset("Double 9", deck.MustParseCards("9s")) {
		t.Error("pool smaller than the hand")
	}
}

func TestExistsInSubsetAgreesWithIsPossible(t *testing.T) {
	t.Parallel()
	rng := randutil.New(5)
	for i := 0; i < 40; i++ {
		pool := deck.Deal(rng, 1+rng.IntN(10))
		for _, l := range All() {
			if got, want := ExistsInSubset(l, pool), IsPossible(l, pool); got != want {
				t.Fatalf("%q on %v: ExistsInSubset=%v IsPossible=%v", l, pool, got, want)
			}
		}
	}
}
