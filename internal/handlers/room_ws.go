// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/auth"
	"github.com/okessler/shithead/internal/game"
)

// WSHandler upgrades the connection and runs the request loop for one
// member. The session cookie fixes the member's identity before the
// upgrade, because headers cannot be written afterwards.
func (s *RoomServer) WSHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.EnsureSession(w, r)
	if err != nil {
		s.Logger.WithError(err).Warn("session setup failed")
		http.Error(w, "session setup failed", http.StatusInternalServerError)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler exit")

	s.Logger.WithFields(map[string]interface{}{
		"user":   userID,
		"remote": r.RemoteAddr,
	}).Info("websocket connected")

	s.register(userID, c)
	defer func() {
		s.unregister(userID)
		// A dropped socket is an immediate state mutation, not a
		// cancellable operation: the member forfeits their seats.
		s.Store.DropMember(userID)
		s.Logger.WithField("user", userID).Info("websocket disconnected")
	}()

	s.readRequests(r.Context(), c, userID)
}

// readRequests decodes frames and answers each with exactly one Result.
func (s *RoomServer) readRequests(ctx context.Context, c *websocket.Conn, userID uuid.UUID) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!strings.Contains(err.Error(), "context canceled") {
				s.Logger.WithError(err).Debugf("read failed for user %s", userID)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeResult(ctx, c, Result{Type: "result", Ok: false, Error: "ValidationError: invalid JSON"})
			continue
		}
		s.writeResult(ctx, c, s.handle(userID, req))
	}
}

func (s *RoomServer) writeResult(ctx context.Context, c *websocket.Conn, res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		s.Logger.WithError(err).Error("marshal result")
		return
	}
	writeRaw(c, data, s.Logger)
}

// handle routes one decoded request into the engine and shapes the result.
func (s *RoomServer) handle(userID uuid.UUID, req Request) Result {
	switch req.Op {
	case OpRoomCreate:
		var p createRoomPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Create(userID, p.Name)
		if err != nil {
			return errResult(req.Op, err)
		}
		room.Announce()
		res := okResult(req.Op)
		res.Room = room.Snapshot()
		res.YourID = userID
		return res

	case OpRoomJoin:
		var p joinRoomPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Get(p.Code)
		if err != nil {
			return errResult(req.Op, err)
		}
		if err := room.Join(userID, p.Name); err != nil {
			return errResult(req.Op, err)
		}
		res := okResult(req.Op)
		res.Room = room.Snapshot()
		res.YourID = userID
		return res

	case OpGameStart:
		var p roomOnlyPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Get(p.Code)
		if err != nil {
			return errResult(req.Op, err)
		}
		if err := room.Start(userID); err != nil {
			return errResult(req.Op, err)
		}
		return okResult(req.Op)

	case OpSetFaceUp:
		var p setFaceUpPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Get(p.Code)
		if err != nil {
			return errResult(req.Op, err)
		}
		if err := room.LockFaceUp(userID, p.ChosenCardIDs); err != nil {
			return errResult(req.Op, err)
		}
		return okResult(req.Op)

	case OpPlayCards:
		var p playCardsPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		if err := p.validate(); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Get(p.Code)
		if err != nil {
			return errResult(req.Op, err)
		}
		idx := -1
		if p.FaceDownIndex != nil {
			idx = *p.FaceDownIndex
		}
		outcome, err := room.PlayCards(userID, game.Zone(p.Source), p.CardIDs, idx)
		if err != nil {
			return errResult(req.Op, err)
		}
		res := okResult(req.Op)
		res.ForcedPickup = outcome.ForcedPickup
		res.Burned = outcome.Burned
		return res

	case OpPlayPickup:
		var p roomOnlyPayload
		if err := decode(req.Data, &p); err != nil {
			return errResult(req.Op, err)
		}
		room, err := s.Store.Get(p.Code)
		if err != nil {
			return errResult(req.Op, err)
		}
		if err := room.PickupPile(userID); err != nil {
			return errResult(req.Op, err)
		}
		return okResult(req.Op)

	default:
		return Result{Type: "result", Op: req.Op, Ok: false, Error: "ValidationError: unknown operation"}
	}
}

// decode unmarshals a payload strictly enough that garbage fails fast.
func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return &game.Error{Code: game.CodeValidation, Message: "missing payload"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &game.Error{Code: game.CodeValidation, Message: "malformed payload: " + err.Error()}
	}
	return nil
}
