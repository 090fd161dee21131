// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoomAction is one historized room mutation row.
type RoomAction struct {
	RoomCode  string
	ActorID   uuid.UUID
	Action    string
	Payload   map[string]interface{}
	Timestamp int64
}

// InsertRoomActions writes a batch of actions in one transaction, upserting
// the owning match row so actions can arrive before the match is "known".
func InsertRoomActions(ctx context.Context, actions []RoomAction) error {
	if len(actions) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, a := range actions {
			upsert := `
				INSERT INTO matches (room_code, status)
				VALUES ($1, 'active')
				ON CONFLICT (room_code) DO NOTHING
			`
			if _, err := tx.Exec(ctx, upsert, a.RoomCode); err != nil {
				return err
			}

			payload, err := json.Marshal(a.Payload)
			if err != nil {
				return err
			}
			insert := `
				INSERT INTO match_actions (room_code, actor_id, action, payload, ts)
				VALUES ($1, $2, $3, $4, to_timestamp($5 / 1000.0))
			`
			if _, err := tx.Exec(ctx, insert, a.RoomCode, a.ActorID, a.Action, payload, a.Timestamp); err != nil {
				return err
			}

			if a.Action == "game_end" {
				finish := `UPDATE matches SET status = 'finished' WHERE room_code = $1`
				if _, err := tx.Exec(ctx, finish, a.RoomCode); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert room actions: %w", err)
	}
	return nil
}

// MarkMatchAbandoned flags a match that went quiet without a game_end.
func MarkMatchAbandoned(ctx context.Context, roomCode string) error {
	q := `UPDATE matches SET status = 'abandoned' WHERE room_code = $1 AND status = 'active'`
	if _, err := DB.Exec(ctx, q, roomCode); err != nil {
		return fmt.Errorf("mark match abandoned: %w", err)
	}
	return nil
}
