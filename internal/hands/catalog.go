// Package hands defines the fixed catalog of declarable hands and decides
// whether a declared hand is present in a multiset of cards.
//
// The catalog is totally ordered from weakest to strongest:
//
//	Singles < Doubles < 2 Pairs < Full Houses < Streets < Triples < Quadruples
//
// A hand's position in that order is the only thing comparisons look at.
package hands

import (
	"errors"
	"fmt"

	"github.com/lox/oblech/internal/deck"
)

// Label names a declarable hand, e.g. "Double K" or "2 Pairs 9-A".
type Label string

// None is the sentinel for "no hand declared yet".
const None Label = ""

// ErrUnknownHand is returned when text does not name a catalog hand.
var ErrUnknownHand = errors.New("unknown hand")

// Kind is the shape of a hand.
type Kind int

const (
	Single Kind = iota
	Double
	TwoPairs
	FullHouse
	SmallStreet
	BigStreet
	Triple
	Quadruple
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "Single"
	case Double:
		return "Double"
	case TwoPairs:
		return "2 Pairs"
	case FullHouse:
		return "Full House"
	case SmallStreet:
		return "Small Street"
	case BigStreet:
		return "Big Street"
	case Triple:
		return "Triple"
	case Quadruple:
		return "Quadruple"
	default:
		return "Unknown"
	}
}

// Hand is the parsed form of a catalog label.
type Hand struct {
	Label Label
	Kind  Kind
	// Rank is the rank the hand is built on; for 2 Pairs it is the lower pair.
	Rank deck.Rank
	// High is the higher pair of a 2 Pairs hand.
	High deck.Rank
}

// Category groups labels for display.
type Category struct {
	Name  string
	Hands []Label
}

var (
	catalog    []Hand
	positions  map[Label]int
	categories []Category
)

func init() {
	add := func(category string, h Hand) {
		if len(categories) == 0 || categories[len(categories)-1].Name != category {
			categories = append(categories, Category{Name: category})
		}
		c := &categories[len(categories)-1]
		c.Hands = append(c.Hands, h.Label)
		catalog = append(catalog, h)
	}

	for _, r := range deck.Ranks {
		add("Singles", Hand{Label: Label(fmt.Sprintf("Single %s", r)), Kind: Single, Rank: r})
	}
	for _, r := range deck.Ranks {
		add("Doubles", Hand{Label: Label(fmt.Sprintf("Double %s", r)), Kind: Double, Rank: r})
	}
	for i, lo := range deck.Ranks {
		for _, hi := range deck.Ranks[i+1:] {
			add("2 Pairs", Hand{Label: Label(fmt.Sprintf("2 Pairs %s-%s", lo, hi)), Kind: TwoPairs, Rank: lo, High: hi})
		}
	}
	for _, r := range deck.Ranks {
		add("Full Houses", Hand{Label: Label(fmt.Sprintf("Full House %s", r)), Kind: FullHouse, Rank: r})
	}
	add("Streets", Hand{Label: "Small Street", Kind: SmallStreet, Rank: deck.Nine})
	add("Streets", Hand{Label: "Big Street", Kind: BigStreet, Rank: deck.Ten})
	for _, r := range deck.Ranks {
		add("Triples", Hand{Label: Label(fmt.Sprintf("Triple %s", r)), Kind: Triple, Rank: r})
	}
	for _, r := range deck.Ranks {
		add("Quadruples", Hand{Label: Label(fmt.Sprintf("Quadruple %s", r)), Kind: Quadruple, Rank: r})
	}

	positions = make(map[Label]int, len(catalog))
	for i, h := range catalog {
		positions[h.Label] = i
	}
}

// Count is the number of labels in the catalog.
func Count() int {
	return len(catalog)
}

// All returns every label from weakest to strongest.
func All() []Label {
	labels := make([]Label, len(catalog))
	for i, h := range catalog {
		labels[i] = h.Label
	}
	return labels
}

// At returns the label at a position.
func At(position int) Label {
	return catalog[position].Label
}

// Categories returns the display groups in catalog order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Name: c.Name, Hands: append([]Label(nil), c.Hands...)}
	}
	return out
}

// Valid reports whether l is a catalog label.
func Valid(l Label) bool {
	_, ok := positions[l]
	return ok
}

// Parse validates inbound text as a catalog label.
func Parse(s string) (Label, error) {
	l := Label(s)
	if !Valid(l) {
		return None, fmt.Errorf("%w: %q", ErrUnknownHand, s)
	}
	return l, nil
}

// Position returns the index of l in the weak-to-strong order, or -1 for
// None. Labels outside the catalog are a programming error and panic.
func Position(l Label) int {
	if l == None {
		return -1
	}
	p, ok := positions[l]
	if !ok {
		panic(fmt.Sprintf("hands: label %q is not in the catalog", string(l)))
	}
	return p
}

// Lookup returns the parsed form of l. It panics for labels outside the catalog.
func Lookup(l Label) Hand {
	return catalog[Position(l)]
}

// RequiredSize is the number of cards needed to form l.
func RequiredSize(l Label) int {
	switch Lookup(l).Kind {
	case Single:
		return 1
	case Double:
		return 2
	case Triple:
		return 3
	case Quadruple, TwoPairs:
		return 4
	default:
		return 5
	}
}

// Beats reports whether a is strictly stronger than b. Any label beats None.
func Beats(a, b Label) bool {
	return Position(a) > Position(b)
}

// Stronger returns every label strictly stronger than l, weakest first.
func Stronger(l Label) []Label {
	p := Position(l)
	labels := make([]Label, 0, len(catalog)-p-1)
	for _, h := range catalog[p+1:] {
		labels = append(labels, h.Label)
	}
	return labels
}

func (l Label) String() string {
	if l == None {
		return "none"
	}
	return string(l)
}
