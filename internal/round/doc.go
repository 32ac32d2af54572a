// Package round implements the rules of a round of hand-bluffing.
//
// Players hold a hidden number of cards dealt from the 24-card short deck.
// On their turn a player either trumps the declared hand with a strictly
// stronger one from the catalog, or checks it. A check reveals every card at
// the table: if the declared hand is present among them the checker loses,
// otherwise the player who declared it loses. Losing adds a card for the next
// round, and holding too many cards eliminates a player. The last player
// standing wins the game and a new game begins from the whole roster.
//
// # Basic Usage
//
//	e := round.New(randutil.New(42))
//	s, _, err := e.Start([]round.Seat{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}})
//	s, _, err = e.Move(s, s.CurrentPlayer().ID, round.Trump("Double 9"))
//	s, tr, err := e.Move(s, s.CurrentPlayer().ID, round.Check())
//	// tr.Loser lost the check; every player now calls Ready.
//
// The Engine never mutates the state it is given. Each accepted operation
// returns a fresh snapshot, so callers own where state lives and how access
// to it is serialized.
package round
