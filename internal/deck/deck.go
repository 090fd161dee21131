// internal/deck/deck.go
package deck

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Rank is a card rank. Ten is spelled out ("10") so the wire format matches
// what clients render.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists every rank once, in deal order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Color returns "red" or "black". Purely presentational; no rule consults it.
func (s Suit) Color() string {
	if s == Hearts || s == Diamonds {
		return "red"
	}
	return "black"
}

// Card is an immutable playing card. ID is unique per physical card so that
// duplicate logical decks could be tracked apart; rank/suit alone never
// identify a card.
type Card struct {
	ID   uuid.UUID `json:"id"`
	Rank Rank      `json:"rank"`
	Suit Suit      `json:"suit"`
}

// rankValues orders ranks for magnitude comparison. Aces are high.
// 2, 3 and 10 are magic and must be special-cased before consulting this.
var rankValues = map[Rank]int{
	Two:   2,
	Three: 3,
	Four:  4,
	Five:  5,
	Six:   6,
	Seven: 7,
	Eight: 8,
	Nine:  9,
	Ten:   10,
	Jack:  11,
	Queen: 12,
	King:  13,
	Ace:   14,
}

// Value returns the magnitude of a rank for legality comparisons.
func Value(r Rank) int {
	return rankValues[r]
}

// NewShuffled builds the full 52-card deck, each card with a fresh unique ID,
// and applies an unbiased Fisher-Yates permutation.
func NewShuffled() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			id, _ := uuid.NewRandom()
			cards = append(cards, Card{ID: id, Rank: rank, Suit: suit})
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}
