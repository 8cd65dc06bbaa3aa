package tournament

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courtside/pong-backend/internal/bracket"
)

var (
	ErrNotFound        = errors.New("tournament not found")
	ErrDuplicatePlayer = errors.New("duplicate player alias")
	ErrInvalidWinner   = errors.New("winner is not registered in this tournament")
)

type Status string

const (
	StatusRegistration Status = "registration"
	StatusInProgress   Status = "in_progress"
	StatusFinished     Status = "finished"
)

// Tournament carries its own mutex: every mutation of a given tournament is
// serialized through it, so two sibling advances feeding the same next-round
// match can never race on its player slots. Distinct tournaments proceed
// concurrently.
type Tournament struct {
	mu      sync.Mutex
	id      string
	name    string
	players []string
	inSet   map[string]struct{}
	bracket bracket.Bracket
	status  Status
	winner  string
	subs    map[string]chan Snapshot
}

// Snapshot is the immutable projection fanned out to subscribers and returned
// from every read or successful mutation.
type Snapshot struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Players []string        `json:"players"`
	Bracket bracket.Bracket `json:"bracket"`
	Status  Status          `json:"status"`
	Winner  string          `json:"winner,omitempty"`
}

// Summary is the listing projection.
type Summary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  Status   `json:"status"`
	Players []string `json:"players"`
}

// Store is the tournament registry. The registry map has its own RWMutex;
// per-tournament state is guarded by the tournament's mutex.
type Store struct {
	mu          sync.RWMutex
	tournaments map[string]*Tournament
	log         *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		tournaments: make(map[string]*Tournament),
		log:         log,
	}
}

// Create validates the player list, generates the bracket and registers the
// tournament. No state is created on a rejected player count.
func (s *Store) Create(players []string, name string) (Snapshot, error) {
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, dup := seen[p]; dup {
			return Snapshot{}, ErrDuplicatePlayer
		}
		seen[p] = struct{}{}
	}

	b, err := bracket.Generate(players)
	if err != nil {
		return Snapshot{}, err
	}

	if name == "" && len(players) > 0 {
		name = players[0] + "'s Tournament"
	}

	t := &Tournament{
		id:      uuid.NewString(),
		name:    name,
		players: append([]string(nil), players...),
		inSet:   seen,
		bracket: b,
		status:  StatusRegistration,
		subs:    make(map[string]chan Snapshot),
	}

	s.mu.Lock()
	s.tournaments[t.id] = t
	s.mu.Unlock()

	s.log.Info("tournament created",
		zap.String("tournament", t.id),
		zap.String("name", name),
		zap.Int("players", len(players)))
	return t.snapshot(), nil
}

// Advance records a match winner and propagates it through the bracket. The
// first successful advance moves the tournament to in_progress; deciding the
// final match finishes it. Subscribers receive the updated snapshot.
func (s *Store) Advance(id, matchID, winner string) (Snapshot, error) {
	t, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Match lookup first: an unknown match id reports not-found even when
	// the winner is also bad.
	if !t.bracket.HasMatch(matchID) {
		return Snapshot{}, bracket.ErrMatchNotFound
	}
	if _, ok := t.inSet[winner]; !ok {
		return Snapshot{}, ErrInvalidWinner
	}

	final, err := t.bracket.Advance(matchID, winner)
	if err != nil {
		return Snapshot{}, err
	}

	if t.status == StatusRegistration {
		t.status = StatusInProgress
	}
	if final {
		t.status = StatusFinished
		t.winner = winner
		s.log.Info("tournament finished",
			zap.String("tournament", t.id),
			zap.String("winner", winner))
	}

	snap := t.snapshot()
	t.publish(snap)
	return snap, nil
}

func (s *Store) Get(id string) (Snapshot, error) {
	t, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot(), nil
}

func (s *Store) List() []Summary {
	s.mu.RLock()
	all := make([]*Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		all = append(all, t)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, t := range all {
		t.mu.Lock()
		out = append(out, Summary{
			ID:      t.id,
			Name:    t.name,
			Status:  t.status,
			Players: append([]string(nil), t.players...),
		})
		t.mu.Unlock()
	}
	return out
}

// Subscribe registers a viewer and delivers the current snapshot immediately.
// The returned channel is closed on Unsubscribe or when the subscriber falls
// too far behind.
func (s *Store) Subscribe(id, clientID string) (<-chan Snapshot, error) {
	t, err := s.get(id)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, 8)
	t.subs[clientID] = ch
	ch <- t.snapshot()
	return ch, nil
}

// Subscribers lists the client ids attached to a tournament's update feed;
// used by tests and diagnostics.
func (s *Store) Subscribers(id string) []string {
	t, err := s.get(id)
	if err != nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.subs))
	for clientID := range t.subs {
		out = append(out, clientID)
	}
	return out
}

func (s *Store) Unsubscribe(id, clientID string) {
	t, err := s.get(id)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.subs[clientID]; ok {
		close(ch)
		delete(t.subs, clientID)
	}
}

func (s *Store) get(id string) (*Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// publish fans the snapshot out to every subscriber; a full channel means a
// slow consumer, which gets dropped so bracket mutations never block on
// delivery. Callers hold t.mu.
func (t *Tournament) publish(snap Snapshot) {
	for id, ch := range t.subs {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(t.subs, id)
		}
	}
}

// snapshot deep-copies everything mutable. Callers hold t.mu.
func (t *Tournament) snapshot() Snapshot {
	return Snapshot{
		ID:      t.id,
		Name:    t.name,
		Players: append([]string(nil), t.players...),
		Bracket: t.bracket.Clone(),
		Status:  t.status,
		Winner:  t.winner,
	}
}
