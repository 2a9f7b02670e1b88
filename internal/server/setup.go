// Package server is the backend REST API plus the websocket event hub
// endpoint. Handlers log through sugar and answer bare status codes; clients
// treat every failure as non-fatal.
package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"cordis/internal/config"
	"cordis/internal/hub"
	"cordis/internal/keyValue"
	"cordis/internal/snowflake"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var sugar *zap.SugaredLogger
var db *sql.DB
var events *hub.Hub
var presence *keyValue.Store
var ids *snowflake.Generator

// presenceTTL bounds how long a status read from the cache can be stale.
const presenceTTL = 5 * time.Minute

func Setup(cfg config.Config, _sugar *zap.SugaredLogger, _db *sql.DB, _events *hub.Hub, _presence *keyValue.Store, _ids *snowflake.Generator) http.Handler {
	sugar = _sugar
	db = _db
	events = _events
	presence = _presence
	ids = _ids

	r := chi.NewRouter()
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	limiter := newIPRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst)

	r.Route("/api", func(api chi.Router) {
		api.Use(limiter.Middleware)

		api.Get("/health", Health)

		api.Route("/users", func(r chi.Router) {
			r.Get("/{userID}", GetUser)
			r.Put("/{userID}", UpdateUser)
			r.Put("/{userID}/status", UpdateStatus)
		})

		api.Get("/friends/{userID}", GetFriends)

		api.Route("/servers", func(r chi.Router) {
			r.Get("/", GetServers)
			r.Post("/", UpsertServer)
			r.Delete("/{serverID}", DeleteServer)
		})

		api.Route("/messages", func(r chi.Router) {
			r.Get("/{channelID}", GetMessages)
			r.Post("/", CreateMessage)
		})

		api.Post("/channels/{channelID}/typing", NotifyTyping)
	})

	r.Get("/ws", events.HandleClient)

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func respondSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"success": true}); err != nil {
		sugar.Error(err)
	}
}
