// Package types holds the JSON wire messages exchanged with clients. Inbound
// payloads are decoded defensively at the boundary: anything that does not
// match a known variant is dropped without closing the connection.
package types

import (
	"github.com/courtside/pong-backend/internal/engine"
	"github.com/courtside/pong-backend/internal/tournament"
)

// ClientMessage is the tagged union of everything a game client may send.
//
//	{"type":"paddle_move","direction":"up"|"down","playerId":1}
//	{"type":"move","y":12.5}
type ClientMessage struct {
	Type      string   `json:"type"`
	Direction string   `json:"direction,omitempty"`
	PlayerID  int      `json:"playerId,omitempty"`
	Y         *float64 `json:"y,omitempty"`
}

// StateMessage is broadcast to every game subscriber after each tick.
type StateMessage struct {
	Type    string                 `json:"type"` // "state"
	Ball    engine.Ball            `json:"ball"`
	Paddles map[string]PaddleState `json:"paddles"`
	Score   engine.Score           `json:"score"`
	Status  engine.Status          `json:"status"`
	Winner  string                 `json:"winner,omitempty"`
}

type PaddleState struct {
	Y float64 `json:"y"`
}

// TournamentMessage wraps a bracket snapshot for tournament subscribers.
type TournamentMessage struct {
	Type string              `json:"type"` // "tournament.update"
	Data tournament.Snapshot `json:"data"`
}

func NewStateMessage(s engine.State) StateMessage {
	return StateMessage{
		Type: "state",
		Ball: s.Ball,
		Paddles: map[string]PaddleState{
			string(engine.SlotPlayer1): {Y: s.Paddles.Player1Y},
			string(engine.SlotPlayer2): {Y: s.Paddles.Player2Y},
		},
		Score:  s.Score,
		Status: s.Status,
		Winner: string(s.Winner),
	}
}
