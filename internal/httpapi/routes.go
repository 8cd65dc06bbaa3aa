package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/courtside/pong-backend/internal/hub"
	"github.com/courtside/pong-backend/internal/tournament"
	"github.com/courtside/pong-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, store *tournament.Store, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", Health)

	r.Post("/rooms", CreateRoom(h))
	r.Get("/rooms", ListRooms(h))

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", CreateTournament(store))
		r.Get("/", ListTournaments(store))
		r.Get("/{id}", GetTournament(store))
		r.Post("/{id}/advance", AdvanceWinner(store))
	})

	r.Get("/ws/game", ws.GameHandler(h, log))
	r.Get("/ws/tournament/{id}", ws.TournamentHandler(store, log))

	return r
}
