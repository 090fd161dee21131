// internal/game/state.go
package game

import (
	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/deck"
)

// GameState is the whole in-play state for one room. It is owned by exactly
// one Room and only ever touched under that room's lock.
type GameState struct {
	Deck   []deck.Card
	Pile   []deck.Card
	Burned []deck.Card

	CurrentPlayerID uuid.UUID
	Players         map[uuid.UUID]*PlayerState

	// Order is the seat order at game start; turn rotation follows it.
	Order []uuid.UUID

	// Finished records players who emptied all three zones, in discovery
	// order. Finished[0] is the eventual winner.
	Finished []uuid.UUID

	WinnerID uuid.UUID
	LoserID  uuid.UUID
}

func newGameState() *GameState {
	return &GameState{
		Deck:    deck.NewShuffled(),
		Players: make(map[uuid.UUID]*PlayerState),
	}
}

// deal gives each seated player three face-down slots and a starting hand.
func (g *GameState) deal(seats []Seat) {
	for _, seat := range seats {
		p := &PlayerState{ID: seat.ID, Name: seat.Name, Stage: StageChooseFaceUp}
		for i := 0; i < faceDownSlots; i++ {
			c := g.Deck[0]
			g.Deck = g.Deck[1:]
			p.FaceDown[i] = &c
		}
		for i := 0; i < startingHand; i++ {
			p.Hand = append(p.Hand, g.Deck[0])
			g.Deck = g.Deck[1:]
		}
		g.Players[p.ID] = p
		g.Order = append(g.Order, p.ID)
	}
	g.CurrentPlayerID = seats[0].ID
}

func (g *GameState) isFinished(id uuid.UUID) bool {
	for _, f := range g.Finished {
		if f == id {
			return true
		}
	}
	return false
}

// activeIDs returns, in seat order, every player still holding cards.
func (g *GameState) activeIDs() []uuid.UUID {
	active := make([]uuid.UUID, 0, len(g.Order))
	for _, id := range g.Order {
		if _, ok := g.Players[id]; !ok {
			continue
		}
		if !g.isFinished(id) {
			active = append(active, id)
		}
	}
	return active
}

// nextActive returns the first active player after `from` in seat order,
// wrapping around. Returns uuid.Nil when nobody is active.
func (g *GameState) nextActive(from uuid.UUID) uuid.UUID {
	start := -1
	for i, id := range g.Order {
		if id == from {
			start = i
			break
		}
	}
	n := len(g.Order)
	for step := 1; step <= n; step++ {
		id := g.Order[(start+step)%n]
		if _, ok := g.Players[id]; !ok {
			continue
		}
		if !g.isFinished(id) {
			return id
		}
	}
	return uuid.Nil
}

// advance moves the turn pointer forward by steps, each step landing on an
// active player. An 8 in a play adds a step per 8 played, which is how the
// skip rule falls out.
func (g *GameState) advance(steps int) {
	cur := g.CurrentPlayerID
	for i := 0; i < steps; i++ {
		next := g.nextActive(cur)
		if next == uuid.Nil {
			return
		}
		cur = next
	}
	g.CurrentPlayerID = cur
}

// removePlayer drops a seat from the game entirely, moving any cards they
// still held onto the burned pile so the game can never wait on them.
func (g *GameState) removePlayer(id uuid.UUID) {
	p, ok := g.Players[id]
	if !ok {
		return
	}
	heldTurn := g.CurrentPlayerID == id
	if heldTurn {
		g.CurrentPlayerID = g.nextActive(id)
	}

	g.Burned = append(g.Burned, p.Hand...)
	g.Burned = append(g.Burned, p.FaceUp...)
	for _, c := range p.FaceDown {
		if c != nil {
			g.Burned = append(g.Burned, *c)
		}
	}
	delete(g.Players, id)

	for i, oid := range g.Order {
		if oid == id {
			g.Order = append(g.Order[:i], g.Order[i+1:]...)
			break
		}
	}
	// Finished is left alone: a finished player who leaves keeps their
	// placing, so the winner stays fixed as the first to ever finish.
}
