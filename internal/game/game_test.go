// internal/game/game_test.go
package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okessler/shithead/internal/deck"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	events       []Event
	playerEvents map[uuid.UUID][]Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[uuid.UUID][]Event)}
}

func (mb *mockBroadcaster) broadcast(recipients []uuid.UUID, ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) sendTo(playerID uuid.UUID, ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) lastEvent() *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.events) == 0 {
		return nil
	}
	return &mb.events[len(mb.events)-1]
}

func (mb *mockBroadcaster) lastPlayerEvent(playerID uuid.UUID) *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// c builds a card of the given rank; suit never matters for legality.
func c(r deck.Rank) deck.Card {
	return deck.Card{ID: uuid.New(), Rank: r, Suit: deck.Spades}
}

func cardIDs(cards ...deck.Card) []uuid.UUID {
	out := make([]uuid.UUID, len(cards))
	for i, card := range cards {
		out[i] = card.ID
	}
	return out
}

// newTestRoom seats n players with the first as host and wires a mock
// broadcaster.
func newTestRoom(n int) (*Room, []uuid.UUID, *mockBroadcaster) {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	r := NewRoom("TEST", ids[0], "player0")
	for i := 1; i < n; i++ {
		r.Seats = append(r.Seats, Seat{ID: ids[i], Name: fmt.Sprintf("player%d", i)})
	}
	mb := newMockBroadcaster()
	r.BroadcastFn = mb.broadcast
	r.BroadcastToPlayerFn = mb.sendTo
	return r, ids, mb
}

// rigPlaying puts the room straight into the playing phase with empty zones,
// so tests can lay out exact hands and piles.
func rigPlaying(r *Room) *GameState {
	g := &GameState{Players: make(map[uuid.UUID]*PlayerState)}
	for _, s := range r.Seats {
		g.Players[s.ID] = &PlayerState{ID: s.ID, Name: s.Name, Stage: StagePlaying}
		g.Order = append(g.Order, s.ID)
	}
	g.CurrentPlayerID = r.Seats[0].ID
	r.Game = g
	r.Phase = PhasePlaying
	return g
}

func TestJoinIsIdempotent(t *testing.T) {
	r, ids, _ := newTestRoom(1)
	other := uuid.New()

	require.NoError(t, r.Join(other, "Bob"))
	require.Len(t, r.Seats, 2)

	// Same identity again: no error, no duplicate seat.
	require.NoError(t, r.Join(other, "Bob"))
	require.NoError(t, r.Join(ids[0], "player0"))
	assert.Len(t, r.Seats, 2)
}

func TestJoinValidation(t *testing.T) {
	r, _, _ := newTestRoom(1)

	err := r.Join(uuid.New(), "   ")
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)

	for len(r.Seats) < maxSeats {
		require.NoError(t, r.Join(uuid.New(), "filler"))
	}
	err = r.Join(uuid.New(), "late")
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsError(err).Code)
}

func TestStartDealsAndValidates(t *testing.T) {
	r, ids, mb := newTestRoom(2)

	err := r.Start(ids[1])
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, AsError(err).Code, "only the host starts")

	require.NoError(t, r.Start(ids[0]))
	assert.Equal(t, PhaseSetup, r.Phase)
	assert.Len(t, r.Game.Deck, 52-2*(faceDownSlots+startingHand))
	assert.Equal(t, ids[0], r.Game.CurrentPlayerID)
	for _, id := range ids {
		p := r.Game.Players[id]
		require.NotNil(t, p)
		assert.Len(t, p.Hand, startingHand)
		assert.Equal(t, faceDownSlots, p.FaceDownCount())
		assert.Equal(t, StageChooseFaceUp, p.Stage)
	}

	// Each player saw their private hand.
	for _, id := range ids {
		ev := mb.lastPlayerEvent(id)
		require.NotNil(t, ev)
		assert.Equal(t, EventGamePrivate, ev.Type)
		assert.Len(t, ev.Self.Hand, startingHand)
	}

	err = r.Start(ids[0])
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsError(err).Code, "no restart mid-game")
}

func TestStartRejectsOversizedTable(t *testing.T) {
	// Nine cards go out per player, so a 52-card deck seats at most five.
	r, ids, _ := newTestRoom(6)
	err := r.Start(ids[0])
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)
	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Nil(t, r.Game, "a rejected start must not half-deal")

	r5, ids5, _ := newTestRoom(5)
	require.NoError(t, r5.Start(ids5[0]))
	assert.Len(t, r5.Game.Deck, 52-5*(faceDownSlots+startingHand))
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	r, ids, _ := newTestRoom(1)
	err := r.Start(ids[0])
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)
}

func TestLockFaceUpFlow(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	require.NoError(t, r.Start(ids[0]))

	p0 := r.Game.Players[ids[0]]
	chosen := cardIDs(p0.Hand[0], p0.Hand[1], p0.Hand[2])

	err := r.LockFaceUp(ids[0], chosen[:2])
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code, "must pick exactly three")

	err = r.LockFaceUp(ids[0], []uuid.UUID{chosen[0], chosen[0], chosen[1], chosen[2]})
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code, "padding with duplicates is not three cards")
	assert.Equal(t, StageChooseFaceUp, p0.Stage)

	err = r.LockFaceUp(ids[0], []uuid.UUID{chosen[0], chosen[1], uuid.New()})
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code, "cards must come from the hand")

	require.NoError(t, r.LockFaceUp(ids[0], chosen))
	assert.Equal(t, StageReady, p0.Stage)
	assert.Len(t, p0.FaceUp, faceUpRequired)
	assert.Len(t, p0.Hand, startingHand-faceUpRequired)
	assert.Equal(t, PhaseSetup, r.Phase, "waiting on the other player")

	err = r.LockFaceUp(ids[0], chosen)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsError(err).Code, "locking twice")

	p1 := r.Game.Players[ids[1]]
	require.NoError(t, r.LockFaceUp(ids[1], cardIDs(p1.Hand[0], p1.Hand[1], p1.Hand[2])))
	assert.Equal(t, PhasePlaying, r.Phase)
	assert.Equal(t, StagePlaying, p0.Stage)
	assert.Equal(t, StagePlaying, p1.Stage)
}

func TestPlayOutOfTurnForbidden(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	four := c(deck.Four)
	g.Players[ids[1]].Hand = []deck.Card{four}
	g.Players[ids[0]].Hand = []deck.Card{c(deck.Five)}

	_, err := r.PlayCards(ids[1], ZoneHand, cardIDs(four), -1)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, AsError(err).Code)
}

func TestPlayIllegalCardForcesPickup(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	four, spare := c(deck.Four), c(deck.Ace)
	g.Players[ids[0]].Hand = []deck.Card{four, spare}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Pile = []deck.Card{c(deck.King)}

	res, err := r.PlayCards(ids[0], ZoneHand, cardIDs(four), -1)
	require.NoError(t, err, "an illegal card is resolved, not rejected")
	assert.True(t, res.ForcedPickup)
	assert.False(t, res.Burned)
	assert.Empty(t, g.Pile)
	assert.Len(t, g.Players[ids[0]].Hand, 3, "spare + attempt + old pile")
	assert.Equal(t, ids[1], g.CurrentPlayerID, "pickup costs the turn")
}

func TestTenBurnsAndRetainsTurn(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	ten, spare := c(deck.Ten), c(deck.Four)
	g.Players[ids[0]].Hand = []deck.Card{ten, spare}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Pile = []deck.Card{c(deck.Nine), c(deck.King)}

	res, err := r.PlayCards(ids[0], ZoneHand, cardIDs(ten), -1)
	require.NoError(t, err)
	assert.True(t, res.Burned)
	assert.Empty(t, g.Pile)
	assert.Len(t, g.Burned, 3)
	assert.Equal(t, ids[0], g.CurrentPlayerID, "the burner keeps the turn")
}

func TestFourOfAKindBurnsThroughThrees(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	seven, spare := c(deck.Seven), c(deck.Four)
	g.Players[ids[0]].Hand = []deck.Card{seven, spare}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Pile = []deck.Card{c(deck.Seven), c(deck.Three), c(deck.Seven), c(deck.Seven)}

	res, err := r.PlayCards(ids[0], ZoneHand, cardIDs(seven), -1)
	require.NoError(t, err)
	assert.True(t, res.Burned)
	assert.Empty(t, g.Pile)
	assert.Equal(t, ids[0], g.CurrentPlayerID)
}

func TestEightsSkipPlayers(t *testing.T) {
	r, ids, _ := newTestRoom(3)
	g := rigPlaying(r)
	e1, e2, spare := c(deck.Eight), c(deck.Eight), c(deck.Four)
	g.Players[ids[0]].Hand = []deck.Card{e1, e2, spare}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Players[ids[2]].Hand = []deck.Card{c(deck.Six)}

	// Two 8s skip the next two players: with three seated, the turn comes
	// straight back around.
	res, err := r.PlayCards(ids[0], ZoneHand, cardIDs(e1, e2), -1)
	require.NoError(t, err)
	assert.False(t, res.Burned)
	assert.Equal(t, ids[0], g.CurrentPlayerID)
}

func TestSingleEightSkipsOne(t *testing.T) {
	r, ids, _ := newTestRoom(3)
	g := rigPlaying(r)
	eight, spare := c(deck.Eight), c(deck.Four)
	g.Players[ids[0]].Hand = []deck.Card{eight, spare}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Players[ids[2]].Hand = []deck.Card{c(deck.Six)}

	_, err := r.PlayCards(ids[0], ZoneHand, cardIDs(eight), -1)
	require.NoError(t, err)
	assert.Equal(t, ids[2], g.CurrentPlayerID)
}

func TestMixedRanksRejected(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	four, five := c(deck.Four), c(deck.Five)
	g.Players[ids[0]].Hand = []deck.Card{four, five}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}

	_, err := r.PlayCards(ids[0], ZoneHand, cardIDs(four, five), -1)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)
	assert.Len(t, g.Players[ids[0]].Hand, 2, "a rejected play leaves the hand alone")
	assert.Equal(t, ids[0], g.CurrentPlayerID)
}

func TestHandRefillsFromDeck(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	four := c(deck.Four)
	g.Players[ids[0]].Hand = []deck.Card{four, c(deck.Five), c(deck.Six)}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Deck = []deck.Card{c(deck.Nine), c(deck.Jack)}

	_, err := r.PlayCards(ids[0], ZoneHand, cardIDs(four), -1)
	require.NoError(t, err)
	assert.Len(t, g.Players[ids[0]].Hand, handRefillTo)
	assert.Len(t, g.Deck, 1)
}

func TestZoneProgressionEnforced(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	p0 := g.Players[ids[0]]
	faceUpCard := c(deck.Five)
	p0.FaceUp = []deck.Card{faceUpCard}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}

	// Deck still holding cards pins everyone to the hand zone.
	g.Deck = []deck.Card{c(deck.Nine)}
	_, err := r.PlayCards(ids[0], ZoneFaceUp, cardIDs(faceUpCard), -1)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, AsError(err).Code)

	// Deck empty and hand empty: the face-up zone opens.
	g.Deck = nil
	_, err = r.PlayCards(ids[0], ZoneFaceUp, cardIDs(faceUpCard), -1)
	require.NoError(t, err)
	assert.Empty(t, p0.FaceUp)
	assert.Equal(t, ids[1], g.CurrentPlayerID)
}

func TestFaceDownBlindPlay(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	p0 := g.Players[ids[0]]
	ace, four := c(deck.Ace), c(deck.Four)
	p0.FaceDown[0] = &ace
	p0.FaceDown[2] = &four
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}

	_, err := r.PlayCards(ids[0], ZoneFaceDown, nil, 1)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code, "empty slot")

	res, err := r.PlayCards(ids[0], ZoneFaceDown, nil, 0)
	require.NoError(t, err)
	assert.False(t, res.ForcedPickup)
	assert.Nil(t, p0.FaceDown[0])
	assert.Equal(t, 1, p0.FaceDownCount())
	assert.Equal(t, ids[1], g.CurrentPlayerID)
}

func TestFaceDownRevealCanForcePickup(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	p0 := g.Players[ids[0]]
	four := c(deck.Four)
	spare := c(deck.Ace)
	p0.FaceDown[1] = &four
	p0.FaceDown[2] = &spare
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Pile = []deck.Card{c(deck.King)}

	res, err := r.PlayCards(ids[0], ZoneFaceDown, nil, 1)
	require.NoError(t, err)
	assert.True(t, res.ForcedPickup)
	assert.Nil(t, p0.FaceDown[1])
	assert.Len(t, p0.Hand, 2, "revealed card plus the pile")
	assert.Equal(t, ids[1], g.CurrentPlayerID)
}

func TestPickupPile(t *testing.T) {
	r, ids, _ := newTestRoom(2)
	g := rigPlaying(r)
	g.Players[ids[0]].Hand = []deck.Card{c(deck.Four)}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Pile = []deck.Card{c(deck.King), c(deck.Ace)}

	require.NoError(t, r.PickupPile(ids[0]))
	assert.Empty(t, g.Pile)
	assert.Len(t, g.Players[ids[0]].Hand, 3)
	assert.Equal(t, ids[1], g.CurrentPlayerID)

	err := r.PickupPile(ids[0])
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, AsError(err).Code, "not their turn anymore")
}

func TestWinnerAndLoser(t *testing.T) {
	r, ids, mb := newTestRoom(2)
	g := rigPlaying(r)
	five := c(deck.Five)
	g.Players[ids[0]].Hand = []deck.Card{five}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Six)}
	g.Pile = []deck.Card{c(deck.Four)}

	_, err := r.PlayCards(ids[0], ZoneHand, cardIDs(five), -1)
	require.NoError(t, err)
	assert.Equal(t, PhaseEnded, r.Phase)
	assert.Equal(t, ids[0], g.WinnerID)
	assert.Equal(t, ids[1], g.LoserID)

	ev := mb.lastEvent()
	require.NotNil(t, ev)
	require.Equal(t, EventGameState, ev.Type)
	assert.Equal(t, ids[0], ev.Game.WinnerID)

	_, err = r.PlayCards(ids[1], ZoneHand, cardIDs(g.Players[ids[1]].Hand[0]), -1)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsError(err).Code, "no plays after the game ends")
}

func TestFinishOnBurnEndsTurnProperly(t *testing.T) {
	r, ids, _ := newTestRoom(3)
	g := rigPlaying(r)
	ten := c(deck.Ten)
	g.Players[ids[0]].Hand = []deck.Card{ten}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five)}
	g.Players[ids[2]].Hand = []deck.Card{c(deck.Six)}

	// Going out on a burn: the retained turn is meaningless for a finished
	// player, so it passes on.
	res, err := r.PlayCards(ids[0], ZoneHand, cardIDs(ten), -1)
	require.NoError(t, err)
	assert.True(t, res.Burned)
	assert.Equal(t, PhasePlaying, r.Phase)
	assert.Equal(t, []uuid.UUID{ids[0]}, g.Finished)
	assert.Equal(t, ids[1], g.CurrentPlayerID)
}

func TestMidGameLeaverForfeits(t *testing.T) {
	r, ids, _ := newTestRoom(3)
	g := rigPlaying(r)
	g.CurrentPlayerID = ids[1]
	g.Players[ids[0]].Hand = []deck.Card{c(deck.Four)}
	g.Players[ids[1]].Hand = []deck.Card{c(deck.Five), c(deck.Six)}
	g.Players[ids[2]].Hand = []deck.Card{c(deck.Seven)}

	empty := r.RemovePlayer(ids[1])
	assert.False(t, empty)
	assert.Equal(t, PhasePlaying, r.Phase, "two players remain, play continues")
	assert.Equal(t, ids[2], g.CurrentPlayerID, "the leaver's turn moves on")
	assert.Len(t, g.Burned, 2, "forfeited cards are burned")
	assert.Len(t, r.Seats, 2)

	empty = r.RemovePlayer(ids[2])
	assert.False(t, empty)
	assert.Equal(t, PhaseEnded, r.Phase, "one player cannot keep playing")
	assert.Equal(t, ids[0], g.WinnerID, "last one standing wins by forfeit")
}

func TestHostReassignedOnLeave(t *testing.T) {
	r, ids, _ := newTestRoom(3)

	empty := r.RemovePlayer(ids[0])
	assert.False(t, empty)
	assert.Equal(t, ids[1], r.HostID)

	assert.False(t, r.RemovePlayer(ids[1]))
	assert.True(t, r.RemovePlayer(ids[2]), "last member out empties the room")
}

func TestLeaverUnblocksSetupReadiness(t *testing.T) {
	r, ids, _ := newTestRoom(3)
	require.NoError(t, r.Start(ids[0]))

	for _, id := range ids[:2] {
		p := r.Game.Players[id]
		require.NoError(t, r.LockFaceUp(id, cardIDs(p.Hand[0], p.Hand[1], p.Hand[2])))
	}
	assert.Equal(t, PhaseSetup, r.Phase, "still waiting on the third player")

	r.RemovePlayer(ids[2])
	assert.Equal(t, PhasePlaying, r.Phase, "the blocker leaving starts the game")
}

func TestPrivateViewKeepsSlotIdentity(t *testing.T) {
	r, ids, mb := newTestRoom(2)
	require.NoError(t, r.Start(ids[0]))

	ev := mb.lastPlayerEvent(ids[0])
	require.NotNil(t, ev)
	require.NotNil(t, ev.Self)
	require.Len(t, ev.Self.FaceDown, faceDownSlots)
	for _, slot := range ev.Self.FaceDown {
		assert.NotNil(t, slot, "all three slots are dealt")
	}
	assert.Len(t, ev.Self.Hand, startingHand)

	public := mb.lastEvent()
	require.NotNil(t, public)
	require.Equal(t, EventGameState, public.Type)
	for _, pv := range public.Game.Players {
		assert.Equal(t, startingHand, pv.HandCount)
		assert.Equal(t, faceDownSlots, pv.FaceDownCount)
	}
}
