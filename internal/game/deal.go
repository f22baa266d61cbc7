package game

import (
	"math/rand"

	"github.com/minefield/server/internal/tile"
)

// A Deal fixes everything random about a game: the deck order and the
// seat that plays East. Seats draw deck[0:34] and deck[34:68]; deck[68]
// is the dora indicator and deck[69] the uradora indicator.
type Deal struct {
	Deck []tile.Tile
	East int
}

// DealSource produces deals. Production uses ShuffledDeal; tests inject
// a FixedDeal to make games reproducible.
type DealSource interface {
	Deal() Deal
}

// ShuffledDeal shuffles the full 136-tile set. With a nil Rand it uses
// the shared math/rand source.
type ShuffledDeal struct {
	Rand *rand.Rand
}

func (s ShuffledDeal) Deal() Deal {
	deck := tile.FullSet()
	shuffle := rand.Shuffle
	intn := rand.Intn
	if s.Rand != nil {
		shuffle = s.Rand.Shuffle
		intn = s.Rand.Intn
	}
	shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return Deal{Deck: deck, East: intn(2)}
}

// FixedDeal returns a predetermined deal. A nil Deck means the unshuffled
// full set, which puts M1 at the dora indicator and M2 at the uradora
// indicator.
type FixedDeal struct {
	Deck []tile.Tile
	East int
}

func (f FixedDeal) Deal() Deal {
	deck := f.Deck
	if deck == nil {
		deck = tile.FullSet()
	}
	return Deal{Deck: deck, East: f.East}
}
