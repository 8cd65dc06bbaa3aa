package room

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/courtside/pong-backend/internal/engine"
	"github.com/courtside/pong-backend/internal/history"
)

type Msg interface{ isRoomMsg() }

// Join subscribes a connection to the room. The first two joiners take the
// player1/player2 slots in arrival order; everyone after that spectates.
type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// Input queues a paddle command from a connection. Commands from clients
// without a player slot are dropped.
type Input struct {
	ClientID string
	Cmd      engine.Command
}

func (Input) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// GetState reflects internal state without data races; used by tests and the
// room listing endpoint.
type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Snapshot struct {
	Tick  uint64
	State engine.State
}

type View struct {
	Code       string
	Tick       uint64
	NumClients int
	State      engine.State
}

type Options struct {
	Code       string
	TickHz     int
	ScoreLimit int
	Recorder   history.Recorder
	Logger     *zap.Logger
	// OnEmpty is invoked from the room goroutine when the last subscriber
	// leaves.
	OnEmpty func(code string)
}

// Room owns one match. Its loop goroutine is the only writer of the session
// state: client commands are queued into inputs and drained at the next tick,
// so at most one displacement per paddle applies per tick.
type Room struct {
	code     string
	inbox    chan Msg
	state    engine.State
	inputs   engine.Inputs
	tick     uint64
	tickRate time.Duration
	clients  map[string]chan Snapshot
	slots    map[string]engine.Slot
	rng      *rand.Rand
	recorder history.Recorder
	recorded bool
	onEmpty  func(code string)
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)

	hz := opts.TickHz
	if hz <= 0 {
		hz = 30
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = history.Nop{}
	}

	r := &Room{
		code:     opts.Code,
		inbox:    make(chan Msg, 64),
		state:    engine.NewState(opts.ScoreLimit),
		inputs:   make(engine.Inputs),
		tickRate: time.Second / time.Duration(hz),
		clients:  make(map[string]chan Snapshot),
		slots:    make(map[string]engine.Slot),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		recorder: rec,
		onEmpty:  opts.OnEmpty,
		log:      log.With(zap.String("room", opts.Code)),
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

func (r *Room) loop() {
	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				r.handleLeave(msg.ClientID)

			case Input:
				slot, ok := r.slots[msg.ClientID]
				if !ok {
					break
				}
				cmd := msg.Cmd
				cmd.Slot = slot
				r.inputs[slot] = cmd

			case GetState:
				msg.Reply <- View{
					Code:       r.code,
					Tick:       r.tick,
					NumClients: len(r.clients),
					State:      r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}

		case <-ticker.C:
			r.state = engine.Step(r.state, r.inputs, r.rng)
			clear(r.inputs)
			r.tick++
			r.broadcast()
			r.maybeRecord()
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	r.clients[msg.ClientID] = msg.Outbox

	if _, taken := r.slots[msg.ClientID]; !taken {
		if slot, ok := r.freeSlot(); ok {
			r.slots[msg.ClientID] = slot
			r.log.Info("player joined", zap.String("client", msg.ClientID), zap.String("slot", string(slot)))
		}
	}

	// Both seats filled: the match starts on the next tick.
	if len(r.slots) == 2 {
		r.state = engine.Start(r.state)
	}

	msg.Outbox <- Snapshot{Tick: r.tick, State: r.state}
}

func (r *Room) handleLeave(clientID string) {
	if ch, ok := r.clients[clientID]; ok {
		close(ch)
		delete(r.clients, clientID)
	}
	if slot, ok := r.slots[clientID]; ok {
		delete(r.inputs, slot)
		delete(r.slots, clientID)
	}

	if len(r.clients) == 0 && r.onEmpty != nil {
		r.onEmpty(r.code)
	}
}

func (r *Room) freeSlot() (engine.Slot, bool) {
	taken := map[engine.Slot]bool{}
	for _, s := range r.slots {
		taken[s] = true
	}
	if !taken[engine.SlotPlayer1] {
		return engine.SlotPlayer1, true
	}
	if !taken[engine.SlotPlayer2] {
		return engine.SlotPlayer2, true
	}
	return "", false
}

// broadcast is best-effort and per-connection: a full outbox means a slow or
// dead consumer, which gets dropped rather than stalling the tick loop.
func (r *Room) broadcast() {
	snap := Snapshot{Tick: r.tick, State: r.state}
	for id, ch := range r.clients {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(r.clients, id)
			delete(r.slots, id)
			r.log.Warn("dropped slow client", zap.String("client", id))
		}
	}
}

// maybeRecord hands the final score to the history recorder once, off the
// loop goroutine; a write-back failure is logged and otherwise ignored.
func (r *Room) maybeRecord() {
	if r.recorded || r.state.Status != engine.StatusFinished {
		return
	}
	r.recorded = true

	rec := history.Match{
		RoomCode:     r.code,
		Player1Score: r.state.Score.Player1,
		Player2Score: r.state.Score.Player2,
		Winner:       string(r.state.Winner),
		FinishedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.recorder.Record(ctx, rec); err != nil {
			r.log.Warn("match history write-back failed", zap.Error(err))
		}
	}()
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}
