package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/courtside/pong-backend/internal/engine"
	"github.com/courtside/pong-backend/internal/hub"
	"github.com/courtside/pong-backend/internal/room"
	"github.com/courtside/pong-backend/internal/tournament"
	"github.com/courtside/pong-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// GameHandler attaches a connection to a room: a writer goroutine drains the
// snapshot outbox while the reader loop decodes paddle commands.
func GameHandler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Snapshot, 8)
		clientID := randID(6)

		rm.Inbox() <- room.Join{ClientID: clientID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()
		h.Inbox() <- hub.TouchRoom{Code: code}

		// Writer goroutine. A closed outbox means the room shut down or
		// dropped this client as too slow; closing the connection unblocks
		// the reader so the client can reconnect.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer conn.Close(websocket.StatusNormalClosure, "room closed")
			for snap := range out {
				payload, _ := json.Marshal(types.NewStateMessage(snap.State))
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("dropping malformed payload", zap.String("room", code), zap.Error(err))
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				log.Debug("dropping unknown message", zap.String("room", code), zap.String("type", cm.Type))
				continue
			}

			rm.Inbox() <- room.Input{ClientID: clientID, Cmd: cmd}
		}
	}
}

// TournamentHandler streams bracket snapshots to a viewer. Inbound frames are
// read and discarded so close detection keeps working.
func TournamentHandler(store *tournament.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		clientID := randID(6)

		updates, err := store.Subscribe(id, clientID)
		if err != nil {
			http.Error(w, "tournament not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			store.Unsubscribe(id, clientID)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		defer store.Unsubscribe(id, clientID)

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			// Unsubscribed or dropped as too slow: close so the viewer
			// notices instead of holding a silent connection open.
			defer conn.Close(websocket.StatusNormalClosure, "subscription closed")
			for snap := range updates {
				payload, _ := json.Marshal(types.TournamentMessage{Type: "tournament.update", Data: snap})
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
					cancel()
					log.Debug("tournament update send failed", zap.String("tournament", id), zap.Error(err))
					return
				}
				cancel()
			}
		}()

		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}
}

// toEngineCommand maps a wire message onto the closed engine command set. The
// player's slot is resolved by the room, not trusted from the payload.
func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "paddle_move":
		dir, ok := parseDirection(m.Direction)
		if !ok {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdMovePaddle, Direction: dir}, true
	case "move":
		if m.Y == nil {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdSetPaddle, Y: *m.Y}, true
	default:
		return engine.Command{}, false
	}
}

func parseDirection(dir string) (engine.Direction, bool) {
	switch dir {
	case "up":
		return engine.DirUp, true
	case "down":
		return engine.DirDown, true
	default:
		return "", false
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
