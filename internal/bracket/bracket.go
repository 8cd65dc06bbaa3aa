// Package bracket implements single-elimination brackets for 4 or 8 players.
// All functions are pure; serialization of concurrent mutations is the
// caller's job (see the tournament package).
package bracket

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPlayerCount = errors.New("player count must be 4 or 8")
	ErrMatchNotFound      = errors.New("match not found")
	ErrInvalidWinner      = errors.New("winner is not a player of this match")
	ErrAlreadyDecided     = errors.New("match already decided")
)

type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting"
	MatchFinished MatchStatus = "finished"
)

// Match is one bracket node. Player1/Player2 stay nil in later rounds until a
// feeding match resolves; Winner is set at most once.
type Match struct {
	ID         string      `json:"matchId"`
	Player1    *string     `json:"player1"`
	Player2    *string     `json:"player2"`
	Winner     *string     `json:"winner"`
	Status     MatchStatus `json:"status"`
	PrevMatch1 string      `json:"prevMatch1,omitempty"`
	PrevMatch2 string      `json:"prevMatch2,omitempty"`
}

// Bracket is an ordered sequence of rounds, round 0 first.
type Bracket struct {
	Rounds [][]Match `json:"rounds"`
}

// Generate pairs players in input order for round one and builds the empty
// later rounds with back-references to the two matches feeding each slot.
func Generate(players []string) (Bracket, error) {
	if len(players) != 4 && len(players) != 8 {
		return Bracket{}, ErrInvalidPlayerCount
	}

	first := make([]Match, 0, len(players)/2)
	for i := 0; i < len(players); i += 2 {
		p1, p2 := players[i], players[i+1]
		first = append(first, Match{
			ID:      matchID(1, i/2),
			Player1: &p1,
			Player2: &p2,
			Status:  MatchWaiting,
		})
	}

	b := Bracket{Rounds: [][]Match{first}}
	prev := first
	for round := 2; len(prev) > 1; round++ {
		next := make([]Match, 0, len(prev)/2)
		for i := 0; i < len(prev); i += 2 {
			next = append(next, Match{
				ID:         matchID(round, i/2),
				Status:     MatchWaiting,
				PrevMatch1: prev[i].ID,
				PrevMatch2: prev[i+1].ID,
			})
		}
		b.Rounds = append(b.Rounds, next)
		prev = next
	}
	return b, nil
}

func matchID(round, index int) string {
	return fmt.Sprintf("R%dM%d", round, index+1)
}

// Advance records the winner of a match and propagates them into the
// feed-forward slot of the next round: player1 if empty, else player2.
// It reports whether the bracket's final match is now decided.
func (b *Bracket) Advance(matchID, winner string) (finished bool, err error) {
	round, idx, ok := b.find(matchID)
	if !ok {
		return false, ErrMatchNotFound
	}

	m := &b.Rounds[round][idx]
	if m.Player1 == nil || m.Player2 == nil {
		return false, ErrInvalidWinner
	}
	if winner != *m.Player1 && winner != *m.Player2 {
		return false, ErrInvalidWinner
	}
	if m.Winner != nil {
		return false, ErrAlreadyDecided
	}

	w := winner
	m.Winner = &w
	m.Status = MatchFinished

	if round == len(b.Rounds)-1 {
		return true, nil
	}

	next := &b.Rounds[round+1][idx/2]
	if next.Player1 == nil {
		next.Player1 = &w
	} else {
		next.Player2 = &w
	}
	return false, nil
}

// HasMatch reports whether a match id exists anywhere in the bracket.
func (b *Bracket) HasMatch(matchID string) bool {
	_, _, ok := b.find(matchID)
	return ok
}

func (b *Bracket) find(matchID string) (round, idx int, ok bool) {
	for r := range b.Rounds {
		for i := range b.Rounds[r] {
			if b.Rounds[r][i].ID == matchID {
				return r, i, true
			}
		}
	}
	return 0, 0, false
}

// FinalWinner returns the tournament winner once the last round's match is
// decided.
func (b *Bracket) FinalWinner() (string, bool) {
	if len(b.Rounds) == 0 {
		return "", false
	}
	final := b.Rounds[len(b.Rounds)-1]
	if len(final) != 1 || final[0].Winner == nil {
		return "", false
	}
	return *final[0].Winner, true
}

// Clone deep-copies the round structure so snapshots never alias live state.
func (b Bracket) Clone() Bracket {
	rounds := make([][]Match, len(b.Rounds))
	for i, r := range b.Rounds {
		rounds[i] = make([]Match, len(r))
		copy(rounds[i], r)
	}
	return Bracket{Rounds: rounds}
}
