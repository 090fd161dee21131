// internal/rules/rules.go

// Package rules holds the pure pile-legality functions for Shithead.
// Everything here is stateless: callers pass the pile and get an answer.
package rules

import (
	"github.com/okessler/shithead/internal/deck"
)

// burnRun is the number of equal non-3 ranks on top of the pile that burn it.
const burnRun = 4

// IsMagic reports whether a rank may be played on any pile.
// 2 resets the pile, 3 is invisible, 10 burns.
func IsMagic(r deck.Rank) bool {
	return r == deck.Two || r == deck.Three || r == deck.Ten
}

// EffectiveTop returns the rank legality is compared against: the last card
// in the pile whose rank is not 3. The second return is false when the pile
// is empty or holds only 3s, in which case anything is playable.
func EffectiveTop(pile []deck.Card) (deck.Rank, bool) {
	for i := len(pile) - 1; i >= 0; i-- {
		if pile[i].Rank != deck.Three {
			return pile[i].Rank, true
		}
	}
	return "", false
}

// CanPlay reports whether a card of the given rank may legally be appended
// to the pile.
func CanPlay(r deck.Rank, pile []deck.Card) bool {
	if IsMagic(r) {
		return true
	}
	top, ok := EffectiveTop(pile)
	if !ok {
		return true
	}
	if r == top {
		// Stacking the same rank is always allowed.
		return true
	}
	if top == deck.Seven {
		// A 7 forces the next play to be lower.
		return deck.Value(r) < deck.Value(deck.Seven)
	}
	return deck.Value(r) >= deck.Value(top)
}

// TriggersBurn reports whether the pile's top four non-3 cards share a rank.
// Interleaved 3s are skipped, so A,3,A,3,A,3,A counts as four of a kind.
// The rank-10 burn is the caller's job: it depends on the card just played,
// not on the pile contents.
func TriggersBurn(pile []deck.Card) bool {
	var run deck.Rank
	count := 0
	for i := len(pile) - 1; i >= 0; i-- {
		r := pile[i].Rank
		if r == deck.Three {
			continue
		}
		if count == 0 {
			run = r
		} else if r != run {
			return false
		}
		count++
		if count == burnRun {
			return true
		}
	}
	return false
}
