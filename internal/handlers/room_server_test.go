// internal/handlers/room_server_test.go
package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientQueuePreservesOrder(t *testing.T) {
	cl := &client{send: make(chan []byte, sendQueueSize)}
	logger := logrus.New()

	cl.enqueue([]byte("first"), logger)
	cl.enqueue([]byte("second"), logger)
	cl.enqueue([]byte("third"), logger)

	assert.Equal(t, "first", string(<-cl.send))
	assert.Equal(t, "second", string(<-cl.send))
	assert.Equal(t, "third", string(<-cl.send))
}

func TestClientQueueDropsWhenFull(t *testing.T) {
	cl := &client{send: make(chan []byte, 2)}
	logger := logrus.New()

	cl.enqueue([]byte("a"), logger)
	cl.enqueue([]byte("b"), logger)
	cl.enqueue([]byte("c"), logger)

	require.Equal(t, "a", string(<-cl.send))
	require.Equal(t, "b", string(<-cl.send))
	select {
	case data := <-cl.send:
		t.Fatalf("queue should have dropped the overflow frame, got %q", data)
	default:
	}
}

func TestBroadcastSkipsUnregisteredMembers(t *testing.T) {
	s := NewRoomServer(logrus.New())
	room, err := s.Store.Create(uuid.New(), "Alice")
	require.NoError(t, err)

	// Nobody has a live socket; announcing must not block or panic while
	// the room lock is held.
	room.Announce()
	assert.Len(t, room.Seats, 1)
}
