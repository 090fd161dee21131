// internal/game/views.go
package game

import (
	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/deck"
	"github.com/okessler/shithead/internal/rules"
)

// EventType labels the broadcast frames the messaging layer fans out.
type EventType string

const (
	// EventRoomUpdate carries the public room view to every member.
	EventRoomUpdate EventType = "room:update"
	// EventGameState carries the public game view to every member.
	EventGameState EventType = "game:state"
	// EventGamePrivate carries a member's own cards on top of the public view.
	EventGamePrivate EventType = "game:private"
)

// Event is one broadcast frame. Which views are set depends on the type.
type Event struct {
	Type EventType `json:"type"`
	Room *RoomView `json:"room,omitempty"`
	Game *GameView `json:"game,omitempty"`
	Self *SelfView `json:"self,omitempty"`
}

// SeatView is a room member as everyone sees them.
type SeatView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RoomView is the public, all-members-visible room state.
type RoomView struct {
	Code    string     `json:"code"`
	HostID  uuid.UUID  `json:"hostId"`
	Phase   Phase      `json:"phase"`
	Players []SeatView `json:"players"`
}

// GamePlayerView is what opponents see of a player: counts for the hidden
// zones and the face-up cards in full.
type GamePlayerView struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	HandCount     int         `json:"handCount"`
	FaceDownCount int         `json:"faceDownCount"`
	FaceUp        []deck.Card `json:"faceUp"`
	Finished      bool        `json:"finished"`
}

// GameView is the public game state. The pile is intentionally visible in
// full to every player.
type GameView struct {
	Phase           Phase            `json:"phase"`
	CurrentPlayerID uuid.UUID        `json:"currentPlayerId"`
	DeckCount       int              `json:"deckCount"`
	Pile            []deck.Card      `json:"pile"`
	PileCount       int              `json:"pileCount"`
	EffectiveTop    deck.Rank        `json:"effectiveTop,omitempty"`
	Players         []GamePlayerView `json:"players"`
	WinnerID        uuid.UUID        `json:"winnerId,omitempty"`
	LoserID         uuid.UUID        `json:"loserId,omitempty"`
	Finished        []uuid.UUID      `json:"finished"`
}

// SelfView is the owner-only projection of a player's own zones. FaceDown
// keeps its three slots, null marking an already-played slot; whether the
// client renders the hidden ranks as backs is presentation's problem.
type SelfView struct {
	ID       uuid.UUID    `json:"id"`
	Stage    Stage        `json:"stage"`
	Hand     []deck.Card  `json:"hand"`
	FaceUp   []deck.Card  `json:"faceUp"`
	FaceDown []*deck.Card `json:"faceDown"`
}

// RoomViewLocked builds the public room view. Assumes the room lock is held.
func (r *Room) RoomViewLocked() *RoomView {
	v := &RoomView{
		Code:    r.Code,
		HostID:  r.HostID,
		Phase:   r.Phase,
		Players: make([]SeatView, len(r.Seats)),
	}
	for i, s := range r.Seats {
		v.Players[i] = SeatView{ID: s.ID, Name: s.Name}
	}
	return v
}

// GameViewLocked builds the public game view, or nil before a game starts.
// Assumes the room lock is held.
func (r *Room) GameViewLocked() *GameView {
	g := r.Game
	if g == nil {
		return nil
	}
	v := &GameView{
		Phase:           r.Phase,
		CurrentPlayerID: g.CurrentPlayerID,
		DeckCount:       len(g.Deck),
		Pile:            append([]deck.Card(nil), g.Pile...),
		PileCount:       len(g.Pile),
		WinnerID:        g.WinnerID,
		LoserID:         g.LoserID,
		Finished:        append([]uuid.UUID(nil), g.Finished...),
	}
	if top, ok := rules.EffectiveTop(g.Pile); ok {
		v.EffectiveTop = top
	}
	for _, id := range g.Order {
		p, ok := g.Players[id]
		if !ok {
			continue
		}
		v.Players = append(v.Players, GamePlayerView{
			ID:            p.ID,
			Name:          p.Name,
			HandCount:     len(p.Hand),
			FaceDownCount: p.FaceDownCount(),
			FaceUp:        append([]deck.Card(nil), p.FaceUp...),
			Finished:      g.isFinished(p.ID),
		})
	}
	return v
}

// selfView builds the owner-only projection for one player.
// Assumes the room lock is held.
func (r *Room) selfView(p *PlayerState) *SelfView {
	v := &SelfView{
		ID:       p.ID,
		Stage:    p.Stage,
		Hand:     append([]deck.Card(nil), p.Hand...),
		FaceUp:   append([]deck.Card(nil), p.FaceUp...),
		FaceDown: make([]*deck.Card, faceDownSlots),
	}
	for i, c := range p.FaceDown {
		if c != nil {
			cc := *c
			v.FaceDown[i] = &cc
		}
	}
	return v
}

// broadcastRoom emits room:update to every member.
// Assumes the room lock is held.
func (r *Room) broadcastRoom() {
	if r.BroadcastFn == nil {
		return
	}
	r.BroadcastFn(r.memberIDs(), Event{Type: EventRoomUpdate, Room: r.RoomViewLocked()})
}

// broadcastGame emits game:state to every member plus a game:private frame
// per player still holding a PlayerState. Assumes the room lock is held.
func (r *Room) broadcastGame() {
	room := r.RoomViewLocked()
	gv := r.GameViewLocked()
	if gv == nil {
		return
	}
	if r.BroadcastFn != nil {
		r.BroadcastFn(r.memberIDs(), Event{Type: EventGameState, Room: room, Game: gv})
	}
	if r.BroadcastToPlayerFn != nil {
		for _, p := range r.Game.Players {
			r.BroadcastToPlayerFn(p.ID, Event{Type: EventGamePrivate, Room: room, Game: gv, Self: r.selfView(p)})
		}
	}
}
