// internal/handlers/messages.go
package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/game"
)

// Operation names accepted over the socket. Each request yields exactly one
// Result frame.
const (
	OpRoomCreate = "room:create"
	OpRoomJoin   = "room:join"
	OpGameStart  = "game:start"
	OpSetFaceUp  = "setup:setFaceUp"
	OpPlayCards  = "play:cards"
	OpPlayPickup = "play:pickup"
)

// Request is the envelope for every client frame: an operation tag plus the
// operation's own payload, decoded into a typed variant before any game
// logic sees it.
type Request struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data,omitempty"`
}

type createRoomPayload struct {
	Name string `json:"name"`
}

type joinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type roomOnlyPayload struct {
	Code string `json:"code"`
}

type setFaceUpPayload struct {
	Code          string      `json:"code"`
	ChosenCardIDs []uuid.UUID `json:"chosenCardIds"`
}

type playCardsPayload struct {
	Code          string      `json:"code"`
	Source        string      `json:"source"`
	CardIDs       []uuid.UUID `json:"cardIds,omitempty"`
	FaceDownIndex *int        `json:"faceDownIndex,omitempty"`
}

// validate checks the shape of a play request before it reaches the engine:
// the zone tag must be known, a face-down play names a slot, and the other
// zones name cards.
func (p *playCardsPayload) validate() error {
	switch game.Zone(p.Source) {
	case game.ZoneFaceDown:
		if p.FaceDownIndex == nil {
			return fmt.Errorf("faceDownIndex is required for a face-down play")
		}
		if len(p.CardIDs) > 0 {
			return fmt.Errorf("cardIds must be empty for a face-down play")
		}
	case game.ZoneHand, game.ZoneFaceUp:
		if len(p.CardIDs) == 0 {
			return fmt.Errorf("cardIds must not be empty")
		}
		if p.FaceDownIndex != nil {
			return fmt.Errorf("faceDownIndex is only valid for a face-down play")
		}
	default:
		return fmt.Errorf("unknown source zone %q", p.Source)
	}
	return nil
}

// Result is the single response frame for a request.
type Result struct {
	Type  string `json:"type"` // always "result"
	Op    string `json:"op"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Room   *game.RoomView `json:"room,omitempty"`
	YourID uuid.UUID      `json:"yourId,omitempty"`

	ForcedPickup bool `json:"forcedPickup,omitempty"`
	Burned       bool `json:"burned,omitempty"`
}

func okResult(op string) Result {
	return Result{Type: "result", Op: op, Ok: true}
}

func errResult(op string, err error) Result {
	return Result{Type: "result", Op: op, Ok: false, Error: game.AsError(err).Error()}
}
