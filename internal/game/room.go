// internal/game/room.go
package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/okessler/shithead/internal/deck"
	"github.com/okessler/shithead/internal/rules"
)

// Phase is the room-level lifecycle.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

const (
	minPlayers = 2
	maxNameLen = 24
	maxSeats   = 8

	// maxDealPlayers is how many starting deals fit in one 52-card deck.
	maxDealPlayers = 52 / (faceDownSlots + startingHand)
)

// Seat is a room member: the connection identity plus display name.
// Members who join mid-game hold a seat but no PlayerState.
type Seat struct {
	ID   uuid.UUID
	Name string
}

// PlayResult reports how a play resolved. Neither flag is an error: a forced
// pickup is a fully resolved game action.
type PlayResult struct {
	ForcedPickup bool
	Burned       bool
}

// Room is one independent party. All mutation goes through methods that
// hold Mu, so turn validation and state change are atomic per room.
// Rooms share nothing with each other.
type Room struct {
	Code   string
	HostID uuid.UUID
	Seats  []Seat
	Phase  Phase
	Game   *GameState

	Mu sync.Mutex

	// BroadcastFn fans an event out to the given members. Set by the
	// transport when the room is created; nil drops events.
	BroadcastFn func(recipients []uuid.UUID, ev Event)

	// BroadcastToPlayerFn sends an event to a single member.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)

	// LogFn records a resolved action for the historian. Best effort.
	LogFn func(actorID uuid.UUID, action string, payload map[string]interface{})
}

// NewRoom builds a lobby-phase room with the creator as host and sole seat.
func NewRoom(code string, hostID uuid.UUID, hostName string) *Room {
	return &Room{
		Code:   code,
		HostID: hostID,
		Seats:  []Seat{{ID: hostID, Name: hostName}},
		Phase:  PhaseLobby,
	}
}

// SanitizeName trims and length-caps a display name. Empty results are the
// caller's validation failure.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// Snapshot returns the public room view.
func (r *Room) Snapshot() *RoomView {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.RoomViewLocked()
}

// Announce pushes the current views to every member. Used right after
// creation; the mutating operations broadcast on their own.
func (r *Room) Announce() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.broadcastRoom()
	if r.Game != nil {
		r.broadcastGame()
	}
}

// Join adds a member to the room. Joining twice with the same identity is a
// no-op; a mid-game joiner becomes a passive member of whatever phase is in
// progress.
func (r *Room) Join(playerID uuid.UUID, name string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	name = SanitizeName(name)
	if name == "" {
		return validationf("name must not be empty")
	}
	for _, s := range r.Seats {
		if s.ID == playerID {
			return nil
		}
	}
	if len(r.Seats) >= maxSeats {
		return conflictf("room %s is full", r.Code)
	}
	r.Seats = append(r.Seats, Seat{ID: playerID, Name: name})

	r.logAction(playerID, "room_join", map[string]interface{}{"name": name})
	r.broadcastRoom()
	if r.Game != nil {
		r.broadcastGame()
	}
	return nil
}

// Start deals a fresh game. Host only, lobby phase only, two players minimum.
func (r *Room) Start(requester uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if requester != r.HostID {
		return forbiddenf("only the host can start the game")
	}
	if r.Phase != PhaseLobby {
		return conflictf("game already started")
	}
	if len(r.Seats) < minPlayers {
		return validationf("need at least %d players to start", minPlayers)
	}
	if len(r.Seats) > maxDealPlayers {
		return validationf("at most %d players can be dealt from one deck", maxDealPlayers)
	}

	r.Game = newGameState()
	r.Game.deal(r.Seats)
	r.Phase = PhaseSetup

	r.logAction(requester, "game_start", map[string]interface{}{"players": len(r.Seats)})
	r.broadcastGame()
	return nil
}

// LockFaceUp moves the player's three chosen cards from hand to face-up and
// marks them ready. When the last player locks in, the room flips to playing.
func (r *Room) LockFaceUp(requester uuid.UUID, chosen []uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseSetup {
		return conflictf("room %s is not in setup", r.Code)
	}
	p, ok := r.Game.Players[requester]
	if !ok {
		return forbiddenf("you are not playing in this game")
	}
	if p.Stage != StageChooseFaceUp {
		return conflictf("face-up cards already locked in")
	}

	if len(chosen) != faceUpRequired {
		return validationf("choose exactly %d cards", faceUpRequired)
	}
	ids := make(map[uuid.UUID]bool, len(chosen))
	for _, id := range chosen {
		ids[id] = true
	}
	if len(ids) != faceUpRequired {
		return validationf("chosen cards must be distinct")
	}
	removed, kept := removeByIDSet(p.Hand, ids)
	if len(removed) != faceUpRequired {
		return validationf("chosen cards must all be in your hand")
	}
	p.FaceUp = removed
	p.Hand = kept
	p.Stage = StageReady

	allReady := true
	for _, other := range r.Game.Players {
		if other.Stage != StageReady {
			allReady = false
			break
		}
	}
	if allReady {
		r.Phase = PhasePlaying
		for _, other := range r.Game.Players {
			other.Stage = StagePlaying
		}
	}

	r.logAction(requester, "setup_lock_faceup", map[string]interface{}{"allReady": allReady})
	r.broadcastGame()
	return nil
}

// PlayCards applies a play from the given zone. Multi-card plays come as a
// same-rank id set from the hand or face-up zone; a face-down play names one
// slot by index because the player cannot know the card. An illegal card is
// not rejected: it resolves as a forced pickup of the pile.
func (r *Room) PlayCards(requester uuid.UUID, source Zone, cardIDs []uuid.UUID, faceDownIndex int) (PlayResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	var res PlayResult
	g := r.Game
	if r.Phase != PhasePlaying {
		return res, conflictf("room %s is not in play", r.Code)
	}
	p, ok := g.Players[requester]
	if !ok {
		return res, forbiddenf("you are not playing in this game")
	}
	if g.CurrentPlayerID != requester {
		return res, forbiddenf("not your turn")
	}
	if source != p.RequiredZone(len(g.Deck) > 0) {
		return res, forbiddenf("you must play from your %s zone", p.RequiredZone(len(g.Deck) > 0))
	}

	var played []deck.Card
	switch source {
	case ZoneFaceDown:
		if faceDownIndex < 0 || faceDownIndex >= faceDownSlots || p.FaceDown[faceDownIndex] == nil {
			return res, validationf("no face-down card at slot %d", faceDownIndex)
		}
		played = []deck.Card{*p.FaceDown[faceDownIndex]}
		p.FaceDown[faceDownIndex] = nil

	case ZoneHand, ZoneFaceUp:
		if len(cardIDs) == 0 {
			return res, validationf("no cards selected")
		}
		ids := make(map[uuid.UUID]bool, len(cardIDs))
		for _, id := range cardIDs {
			ids[id] = true
		}
		zone := p.Hand
		if source == ZoneFaceUp {
			zone = p.FaceUp
		}
		removed, kept := removeByIDSet(zone, ids)
		if len(removed) != len(ids) {
			return res, validationf("selected cards must all be in your %s zone", source)
		}
		for _, c := range removed[1:] {
			if c.Rank != removed[0].Rank {
				return res, validationf("all played cards must share one rank")
			}
		}
		if source == ZoneFaceUp {
			p.FaceUp = kept
		} else {
			p.Hand = kept
		}
		played = removed

	default:
		return res, validationf("unknown zone %q", source)
	}

	rank := played[0].Rank
	action := "play_cards"
	payload := map[string]interface{}{"rank": string(rank), "count": len(played), "source": string(source)}

	if !rules.CanPlay(rank, g.Pile) {
		// Forced pickup: the attempt plus the whole pile go to the hand.
		p.Hand = append(p.Hand, played...)
		p.Hand = append(p.Hand, g.Pile...)
		g.Pile = nil
		g.advance(1)
		res.ForcedPickup = true
		payload["forcedPickup"] = true
	} else {
		g.Pile = append(g.Pile, played...)
		burned := rank == deck.Ten || rules.TriggersBurn(g.Pile)
		if source == ZoneHand {
			g.Deck = p.drawUpTo(g.Deck, handRefillTo)
		}
		if burned {
			g.Burned = append(g.Burned, g.Pile...)
			g.Pile = nil
			// The burner keeps the turn.
			res.Burned = true
			payload["burned"] = true
		} else {
			steps := 1
			for _, c := range played {
				if c.Rank == deck.Eight {
					steps++
				}
			}
			g.advance(steps)
		}
	}

	r.resolveFinish()
	r.logAction(requester, action, payload)
	r.broadcastGame()
	return res, nil
}

// PickupPile moves the whole pile into the current player's hand.
func (r *Room) PickupPile(requester uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	g := r.Game
	if r.Phase != PhasePlaying {
		return conflictf("room %s is not in play", r.Code)
	}
	p, ok := g.Players[requester]
	if !ok {
		return forbiddenf("you are not playing in this game")
	}
	if g.CurrentPlayerID != requester {
		return forbiddenf("not your turn")
	}

	p.Hand = append(p.Hand, g.Pile...)
	g.Pile = nil
	g.advance(1)

	r.resolveFinish()
	r.logAction(requester, "pickup_pile", nil)
	r.broadcastGame()
	return nil
}

// RemovePlayer drops a member on disconnect. A mid-game leaver forfeits:
// their remaining cards go to the burned pile and the turn moves on if they
// held it. Returns true when the room is now empty and should be destroyed.
func (r *Room) RemovePlayer(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	found := false
	for i, s := range r.Seats {
		if s.ID == playerID {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return len(r.Seats) == 0
	}
	if len(r.Seats) == 0 {
		return true
	}
	if r.HostID == playerID {
		r.HostID = r.Seats[0].ID
	}

	if r.Game != nil {
		g := r.Game
		g.removePlayer(playerID)
		if r.Phase == PhaseSetup {
			// The leaver may have been the last one blocking readiness.
			allReady := len(g.Players) > 0
			for _, p := range g.Players {
				if p.Stage != StageReady {
					allReady = false
					break
				}
			}
			if allReady {
				r.Phase = PhasePlaying
				for _, p := range g.Players {
					p.Stage = StagePlaying
				}
			}
		}
		if len(g.Players) < minPlayers && r.Phase != PhaseEnded {
			r.endGame()
		} else {
			r.resolveFinish()
		}
	}

	r.logAction(playerID, "room_leave", nil)
	r.broadcastRoom()
	if r.Game != nil {
		r.broadcastGame()
	}
	return false
}

// resolveFinish records fresh finishers, ends the game when a single active
// player remains, and steps the turn pointer off a finished player.
// Assumes the room lock is held.
func (r *Room) resolveFinish() {
	g := r.Game
	for _, id := range g.Order {
		p, ok := g.Players[id]
		if !ok {
			continue
		}
		if p.Finished() && !g.isFinished(id) {
			g.Finished = append(g.Finished, id)
		}
	}

	active := g.activeIDs()
	if len(active) == 1 && len(g.Finished) > 0 {
		r.Phase = PhaseEnded
		g.WinnerID = g.Finished[0]
		g.LoserID = active[0]
		r.logAction(g.WinnerID, "game_end", map[string]interface{}{
			"winner": g.WinnerID.String(),
			"loser":  g.LoserID.String(),
		})
		return
	}
	if r.Phase == PhasePlaying && g.isFinished(g.CurrentPlayerID) {
		g.CurrentPlayerID = g.nextActive(g.CurrentPlayerID)
	}
}

// endGame closes out a game that lost too many players to continue.
// Assumes the room lock is held.
func (r *Room) endGame() {
	g := r.Game
	r.Phase = PhaseEnded
	if len(g.Finished) > 0 {
		g.WinnerID = g.Finished[0]
	} else if active := g.activeIDs(); len(active) == 1 {
		// Last player standing wins by forfeit.
		g.WinnerID = active[0]
	}
	r.logAction(g.WinnerID, "game_end", map[string]interface{}{"reason": "forfeit"})
}

// memberIDs snapshots the seat identities. Assumes the room lock is held.
func (r *Room) memberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Seats))
	for i, s := range r.Seats {
		ids[i] = s.ID
	}
	return ids
}

// logAction reports a resolved mutation to the historian hook, if set.
// Assumes the room lock is held.
func (r *Room) logAction(actorID uuid.UUID, action string, payload map[string]interface{}) {
	if r.LogFn != nil {
		r.LogFn(actorID, action, payload)
	}
}
