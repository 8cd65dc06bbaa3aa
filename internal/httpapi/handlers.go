package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtside/pong-backend/internal/bracket"
	"github.com/courtside/pong-backend/internal/hub"
	"github.com/courtside/pong-backend/internal/room"
	"github.com/courtside/pong-backend/internal/tournament"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *room.Room, 1)
			h.Inbox() <- hub.GetRoom{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			// collision on code, regenerate
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	type roomInfo struct {
		Code    string `json:"code"`
		Clients int    `json:"clients"`
		Status  string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []room.View, 1)
		h.Inbox() <- hub.ListRooms{Reply: reply}

		select {
		case views := <-reply:
			out := make([]roomInfo, 0, len(views))
			for _, v := range views {
				out = append(out, roomInfo{Code: v.Code, Clients: v.NumClients, Status: string(v.State.Status)})
			}
			writeJSON(w, http.StatusOK, out)
		case <-time.After(2 * time.Second):
			http.Error(w, "timed out listing rooms", http.StatusInternalServerError)
		}
	}
}

type createTournamentRequest struct {
	Players []string `json:"players"`
	Name    string   `json:"name,omitempty"`
}

func CreateTournament(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTournamentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		snap, err := store.Create(req.Players, req.Name)
		if err != nil {
			writeTournamentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			ID string `json:"id"`
		}{ID: snap.ID})
	}
}

func ListTournaments(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.List())
	}
}

func GetTournament(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeTournamentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type advanceRequest struct {
	MatchID string `json:"matchId"`
	Winner  string `json:"winner"`
}

func AdvanceWinner(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req advanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		snap, err := store.Advance(chi.URLParam(r, "id"), req.MatchID, req.Winner)
		if err != nil {
			writeTournamentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{Status: "healthy", Timestamp: time.Now().UTC()})
}

// writeTournamentError maps the tournament/bracket sentinel errors onto HTTP
// statuses: unknown ids are 404, everything else the caller did wrong is 400.
func writeTournamentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tournament.ErrNotFound), errors.Is(err, bracket.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bracket.ErrInvalidPlayerCount),
		errors.Is(err, bracket.ErrInvalidWinner),
		errors.Is(err, bracket.ErrAlreadyDecided),
		errors.Is(err, tournament.ErrInvalidWinner),
		errors.Is(err, tournament.ErrDuplicatePlayer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
