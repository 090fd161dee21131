// internal/handlers/room_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/okessler/shithead/internal/cache"
	"github.com/okessler/shithead/internal/game"
)

const writeTimeout = 3 * time.Second

// sendQueueSize bounds the per-connection outbound backlog. A client that
// cannot drain this many frames is dropped-from rather than waited-on.
const sendQueueSize = 32

// client is one registered socket plus its outbound queue. All writes to a
// connection flow through the queue's single writer goroutine, so frames
// reach the peer in the order they were produced.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writeLoop drains the queue until it is closed on unregister.
func (cl *client) writeLoop(logger *logrus.Logger) {
	for data := range cl.send {
		writeRaw(cl.conn, data, logger)
	}
}

// enqueue hands a frame to the writer without ever blocking the caller.
func (cl *client) enqueue(data []byte, logger *logrus.Logger) {
	select {
	case cl.send <- data:
	default:
		logger.Warn("send queue full, dropping frame")
	}
}

// RoomServer owns the room store and the live socket per member identity.
// It wires broadcast and historian hooks onto every room the store creates.
type RoomServer struct {
	Store  *game.RoomStore
	Logger *logrus.Logger

	mu    sync.Mutex
	conns map[uuid.UUID]*client
}

// NewRoomServer builds a server with an empty store.
func NewRoomServer(logger *logrus.Logger) *RoomServer {
	s := &RoomServer{
		Store:  game.NewRoomStore(),
		Logger: logger,
		conns:  make(map[uuid.UUID]*client),
	}
	s.Store.OnCreate = s.wireRoom
	return s
}

// wireRoom attaches the transport hooks before a room becomes visible.
func (s *RoomServer) wireRoom(r *game.Room) {
	code := r.Code
	r.BroadcastFn = s.broadcast
	r.BroadcastToPlayerFn = s.sendTo
	r.LogFn = func(actorID uuid.UUID, action string, payload map[string]interface{}) {
		rec := cache.RoomActionRecord{
			RoomCode:  code,
			ActorID:   actorID,
			Action:    action,
			Payload:   payload,
			Timestamp: time.Now().UnixMilli(),
		}
		// Fire and forget; the game never waits on the historian.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := cache.PublishRoomAction(ctx, rec); err != nil {
				s.Logger.WithError(err).Debug("historian publish failed")
			}
		}()
	}
}

func (s *RoomServer) register(id uuid.UUID, c *websocket.Conn) {
	cl := &client{conn: c, send: make(chan []byte, sendQueueSize)}
	s.mu.Lock()
	s.conns[id] = cl
	s.mu.Unlock()
	go cl.writeLoop(s.Logger)
}

func (s *RoomServer) unregister(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cl, ok := s.conns[id]; ok {
		close(cl.send)
		delete(s.conns, id)
	}
}

// broadcast fans an event out to every recipient with a live socket. Called
// while a room lock is held: enqueue never blocks, and each connection's
// writer delivers its frames in enqueue order.
func (s *RoomServer) broadcast(recipients []uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.WithError(err).Errorf("marshal %s event", ev.Type)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range recipients {
		if cl, ok := s.conns[id]; ok {
			cl.enqueue(data, s.Logger)
		}
	}
}

// sendTo unicasts an event to one member.
func (s *RoomServer) sendTo(playerID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.WithError(err).Errorf("marshal %s event", ev.Type)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cl, ok := s.conns[playerID]; ok {
		cl.enqueue(data, s.Logger)
	}
}

func writeRaw(c *websocket.Conn, data []byte, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		logger.WithError(err).Debug("websocket write failed")
	}
}

// HealthzHandler answers liveness probes.
func (s *RoomServer) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ListRoomsHandler is a debug view of the live rooms.
func (s *RoomServer) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	type roomInfo struct {
		Code    string     `json:"code"`
		Phase   game.Phase `json:"phase"`
		Players int        `json:"players"`
	}
	rooms := s.Store.Rooms()
	out := make([]roomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.Mu.Lock()
		out = append(out, roomInfo{Code: room.Code, Phase: room.Phase, Players: len(room.Seats)})
		room.Mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
