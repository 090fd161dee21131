// cmd/historian/main.go is an asynchronous service that pops room action
// records from the Redis queue and persists them to Postgres in batches.
// Running it is optional; the game server works without it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/okessler/shithead/internal/cache"
	"github.com/okessler/shithead/internal/database"
)

// Historian drains the action queue into Postgres and marks rooms that go
// quiet as abandoned.
type Historian struct {
	logger      *logrus.Logger
	redisClient *redis.Client
	batchSize   int
	flushDelay  time.Duration
	inactivity  time.Duration

	// lastActivity maps room code to the time of its latest action.
	lastActivity sync.Map

	batchMu sync.Mutex
	batch   []database.RoomAction

	ctx      context.Context
	cancelFn context.CancelFunc
}

func newHistorian(logger *logrus.Logger) *Historian {
	ctx, cancel := context.WithCancel(context.Background())
	return &Historian{
		logger:      logger,
		redisClient: redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", "localhost:6379")}),
		batchSize:   getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		flushDelay:  time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		inactivity:  time.Duration(getEnvInt("ROOM_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

func (h *Historian) run() {
	go h.readQueueLoop()
	go h.inactivityLoop()

	h.logger.Info("historian started")
	<-h.ctx.Done()
	h.flush()
	h.logger.Info("historian shut down")
}

// readQueueLoop blocks on the Redis queue and accumulates a batch, flushing
// on size or on the flush ticker.
func (h *Historian) readQueueLoop() {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.flush()
		default:
			res, err := h.redisClient.BLPop(h.ctx, 3*time.Second, queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
					h.logger.WithError(err).Error("blpop")
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			var record cache.RoomActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				h.logger.WithError(err).Warn("invalid action record")
				continue
			}
			h.lastActivity.Store(record.RoomCode, time.Now())

			h.batchMu.Lock()
			h.batch = append(h.batch, database.RoomAction{
				RoomCode:  record.RoomCode,
				ActorID:   record.ActorID,
				Action:    record.Action,
				Payload:   record.Payload,
				Timestamp: record.Timestamp,
			})
			full := len(h.batch) >= h.batchSize
			h.batchMu.Unlock()
			if full {
				h.flush()
			}
		}
	}
}

func (h *Historian) flush() {
	h.batchMu.Lock()
	batch := h.batch
	h.batch = nil
	h.batchMu.Unlock()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InsertRoomActions(ctx, batch); err != nil {
		h.logger.WithError(err).Errorf("flush of %d action(s) failed", len(batch))
	}
}

// inactivityLoop marks rooms abandoned once they stay silent long enough.
func (h *Historian) inactivityLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-h.inactivity)
			h.lastActivity.Range(func(key, value interface{}) bool {
				code := key.(string)
				last := value.(time.Time)
				if last.Before(cutoff) {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := database.MarkMatchAbandoned(ctx, code); err != nil {
						h.logger.WithError(err).Warnf("abandon room %s", code)
					}
					cancel()
					h.lastActivity.Delete(code)
				}
				return true
			})
		}
	}
}

func main() {
	logger := logrus.New()

	if err := database.ConnectDB(); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.DB.Close()

	h := newHistorian(logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		h.cancelFn()
	}()

	h.run()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
