// internal/game/room_store.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room codes avoid look-alike characters so they survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 4

// RoomStore owns every live room, keyed by code. It is injected into the
// transport rather than reached as a global, and hands out rooms that carry
// their own lock; the store's own mutex only guards the map.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand

	// OnCreate lets the transport wire broadcast/log hooks onto a room
	// before it is visible to anyone.
	OnCreate func(r *Room)
}

// NewRoomStore returns an empty in-memory store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create makes a new lobby-phase room with a fresh code, the requester
// seated as host.
func (s *RoomStore) Create(hostID uuid.UUID, hostName string) (*Room, error) {
	hostName = SanitizeName(hostName)
	if hostName == "" {
		return nil, validationf("name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCodeLocked()
	room := NewRoom(code, hostID, hostName)
	if s.OnCreate != nil {
		s.OnCreate(room)
	}
	s.rooms[code] = room
	room.logAction(hostID, "room_create", map[string]interface{}{"name": hostName})
	return room, nil
}

// Get looks a room up by code, case-insensitively.
func (s *RoomStore) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, notFoundf("no room with code %q", code)
	}
	return room, nil
}

// Delete removes a room from the store.
func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Rooms snapshots the live rooms, for the debug listing endpoint.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// DropMember removes a disconnected identity from every room it sits in,
// destroying rooms that empty out. Returns the rooms the member was in.
func (s *RoomStore) DropMember(playerID uuid.UUID) []*Room {
	s.mu.Lock()
	candidates := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		candidates = append(candidates, r)
	}
	s.mu.Unlock()

	var touched []*Room
	for _, r := range candidates {
		r.Mu.Lock()
		member := false
		for _, seat := range r.Seats {
			if seat.ID == playerID {
				member = true
				break
			}
		}
		r.Mu.Unlock()
		if !member {
			continue
		}
		if empty := r.RemovePlayer(playerID); empty {
			s.Delete(r.Code)
		}
		touched = append(touched, r)
	}
	return touched
}

// newCodeLocked draws codes until one is unused. Collisions are rare at
// this population, so the retry loop settles immediately in practice.
func (s *RoomStore) newCodeLocked() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, exists := s.rooms[code]; !exists {
			return code
		}
	}
}
