// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/okessler/shithead/internal/auth"
	"github.com/okessler/shithead/internal/cache"
	"github.com/okessler/shithead/internal/handlers"
	"github.com/okessler/shithead/internal/middleware"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := auth.Init(); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	// History is optional: without Redis the server just plays games.
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("redis unavailable, match history disabled")
	}

	srv := handlers.NewRoomServer(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Get("/healthz", srv.HealthzHandler)
	r.Get("/rooms", srv.ListRoomsHandler)
	r.Get("/ws", srv.WSHandler)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
