// internal/game/player.go
package game

import (
	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/deck"
)

// Stage tracks a player's progress through the setup phase.
type Stage string

const (
	StageChooseFaceUp Stage = "chooseFaceUp"
	StageReady        Stage = "ready"
	StagePlaying      Stage = "playing"
)

// Zone names one of the three card-holding areas a player plays from.
type Zone string

const (
	ZoneHand     Zone = "hand"
	ZoneFaceUp   Zone = "faceUp"
	ZoneFaceDown Zone = "faceDown"
)

const (
	faceDownSlots  = 3
	startingHand   = 6
	faceUpRequired = 3
	handRefillTo   = 3
)

// PlayerState holds one seat's cards. FaceDown is a fixed array of optional
// slots: a played slot becomes nil, so the remaining slots keep their index
// identity for the blind-pick action.
type PlayerState struct {
	ID       uuid.UUID
	Name     string
	Hand     []deck.Card
	FaceUp   []deck.Card
	FaceDown [faceDownSlots]*deck.Card
	Stage    Stage
}

// RequiredZone returns the zone the player is obligated to play from.
// While the shared deck holds any card the zone is always the hand, even if
// that hand is momentarily empty. Once the deck runs dry the zones deplete
// strictly in order: hand, then face-up, then face-down.
func (p *PlayerState) RequiredZone(deckHasCards bool) Zone {
	if deckHasCards {
		return ZoneHand
	}
	if len(p.Hand) > 0 {
		return ZoneHand
	}
	if len(p.FaceUp) > 0 {
		return ZoneFaceUp
	}
	return ZoneFaceDown
}

// Finished reports whether all three zones are empty.
func (p *PlayerState) Finished() bool {
	return len(p.Hand) == 0 && len(p.FaceUp) == 0 && p.FaceDownCount() == 0
}

// FaceDownCount returns the number of occupied face-down slots.
func (p *PlayerState) FaceDownCount() int {
	n := 0
	for _, c := range p.FaceDown {
		if c != nil {
			n++
		}
	}
	return n
}

// drawUpTo refills the hand from the deck until it holds target cards or the
// deck is empty. Returns the shrunk deck. Only hand plays trigger a refill.
func (p *PlayerState) drawUpTo(cards []deck.Card, target int) []deck.Card {
	for len(p.Hand) < target && len(cards) > 0 {
		p.Hand = append(p.Hand, cards[0])
		cards = cards[1:]
	}
	return cards
}

// removeByIDSet splits cards into (removed, kept) by membership in ids.
// The kept slice is freshly allocated; callers never alias the input.
func removeByIDSet(cards []deck.Card, ids map[uuid.UUID]bool) (removed, kept []deck.Card) {
	kept = make([]deck.Card, 0, len(cards))
	for _, c := range cards {
		if ids[c.ID] {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	return removed, kept
}
