// internal/handlers/messages_test.go
package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okessler/shithead/internal/game"
)

func intPtr(i int) *int { return &i }

func TestPlayCardsPayloadValidate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		payload playCardsPayload
		wantErr bool
	}{
		{"hand play with cards", playCardsPayload{Source: "hand", CardIDs: []uuid.UUID{id}}, false},
		{"faceUp play with cards", playCardsPayload{Source: "faceUp", CardIDs: []uuid.UUID{id}}, false},
		{"hand play without cards", playCardsPayload{Source: "hand"}, true},
		{"hand play with slot index", playCardsPayload{Source: "hand", CardIDs: []uuid.UUID{id}, FaceDownIndex: intPtr(0)}, true},
		{"faceDown play with slot", playCardsPayload{Source: "faceDown", FaceDownIndex: intPtr(2)}, false},
		{"faceDown play without slot", playCardsPayload{Source: "faceDown"}, true},
		{"faceDown play with cards", playCardsPayload{Source: "faceDown", FaceDownIndex: intPtr(0), CardIDs: []uuid.UUID{id}}, true},
		{"unknown zone", playCardsPayload{Source: "sleeve", CardIDs: []uuid.UUID{id}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	var p joinRoomPayload

	err := decode(nil, &p)
	require.Error(t, err)
	assert.Equal(t, game.CodeValidation, game.AsError(err).Code)

	err = decode([]byte(`{"code":`), &p)
	require.Error(t, err)
	assert.Equal(t, game.CodeValidation, game.AsError(err).Code)

	require.NoError(t, decode([]byte(`{"code":"AB12","name":"Alice"}`), &p))
	assert.Equal(t, "AB12", p.Code)
	assert.Equal(t, "Alice", p.Name)
}

func TestErrResultKeepsErrorCode(t *testing.T) {
	res := errResult(OpPlayCards, game.AsError(assert.AnError))
	assert.False(t, res.Ok)
	assert.Equal(t, OpPlayCards, res.Op)
	assert.Contains(t, res.Error, string(game.CodeValidation), "unknown errors surface as validation failures")
}
