package deck

import (
	"encoding/json"
	"testing"

	"github.com/lox/oblech/internal/randutil"
)

func TestParseCards(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "letters",
			input: "9s 10c Qd",
			expected: []Card{
				{Rank: Nine, Suit: Spades},
				{Rank: Ten, Suit: Clubs},
				{Rank: Queen, Suit: Diamonds},
			},
		},
		{
			name:  "symbols and commas",
			input: "A♥,K♠,T♦",
			expected: []Card{
				{Rank: Ace, Suit: Hearts},
				{Rank: King, Suit: Spades},
				{Rank: Ten, Suit: Diamonds},
			},
		},
		{
			name:  "case insensitive",
			input: "jH qS",
			expected: []Card{
				{Rank: Jack, Suit: Hearts},
				{Rank: Queen, Suit: Spades},
			},
		},
		{
			name:    "rank outside the short deck",
			input:   "8s",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "Ax",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d cards, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("card %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCardString(t *testing.T) {
	t.Parallel()
	if got := NewCard(Ten, Hearts).String(); got != "10♥" {
		t.Errorf("String() = %q", got)
	}
	if got := FormatCards(MustParseCards("9s Ac")); got != "9♠ A♣" {
		t.Errorf("FormatCards = %q", got)
	}
}

func TestCardJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(NewCard(King, Diamonds))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"rank":"K","suit":"♦"}` {
		t.Errorf("unexpected encoding %s", data)
	}

	var c Card
	if err := json.Unmarshal([]byte(`{"rank":"10","suit":"h"}`), &c); err != nil {
		t.Fatal(err)
	}
	if c != NewCard(Ten, Hearts) {
		t.Errorf("decoded %v", c)
	}
}

func TestUniverse(t *testing.T) {
	t.Parallel()
	u := Universe()
	if len(u) != UniverseSize {
		t.Fatalf("universe has %d cards, want %d", len(u), UniverseSize)
	}
	seen := map[Card]bool{}
	for _, c := range u {
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestDealWithReplacement(t *testing.T) {
	t.Parallel()
	rng := randutil.New(1)
	cards := Deal(rng, 200)
	if len(cards) != 200 {
		t.Fatalf("dealt %d cards", len(cards))
	}

	// 200 draws over 24 cards must repeat some card.
	seen := map[Card]int{}
	for _, c := range cards {
		if c.Rank > Ace || c.Suit > Hearts {
			t.Fatalf("card out of range: %+v", c)
		}
		seen[c]++
	}
	if len(seen) == len(cards) {
		t.Error("expected duplicates when dealing with replacement")
	}

	if got := Deal(rng, 0); len(got) != 0 {
		t.Errorf("Deal(0) returned %d cards", len(got))
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	pool := MustParseCards("9s 9s Qd Ah")
	got := Remove(pool, MustParseCards("9s Kc Ah"))
	want := MustParseCards("9s Qd")
	if len(got) != len(want) {
		t.Fatalf("Remove = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Remove = %v, want %v", got, want)
		}
	}
	if len(pool) != 4 {
		t.Error("Remove must not modify its input")
	}
}

func TestRankCounts(t *testing.T) {
	t.Parallel()
	counts := RankCounts(MustParseCards("9s 9c Qd Ah Ac As"))
	if counts[Nine] != 2 || counts[Queen] != 1 || counts[Ace] != 3 || counts[King] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}
