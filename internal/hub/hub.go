package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/courtside/pong-backend/internal/history"
	"github.com/courtside/pong-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

// TouchRoom marks a room as occupied so the idle reaper leaves it alone;
// connection handlers send it when a client attaches.
type TouchRoom struct {
	Code string
}

type ListRooms struct {
	Reply chan []room.View
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (TouchRoom) isHubMsg()   {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	TickHz     int
	ScoreLimit int
	// RoomTTL bounds how long a room may sit with no connections before the
	// reaper removes it.
	RoomTTL      time.Duration
	ReapInterval time.Duration
	Recorder     history.Recorder
	Logger       *zap.Logger
}

type entry struct {
	room *room.Room
	// emptySince is the zero time while the room has subscribers.
	emptySince time.Time
}

// Hub is the single writer of the code→room registry; all create/get/remove
// traffic is serialized through its inbox.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*entry
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)

	if opts.RoomTTL <= 0 {
		opts.RoomTTL = 5 * time.Minute
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*entry),
		opts:   opts,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	reap := time.NewTicker(h.opts.ReapInterval)
	defer reap.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-reap.C:
			h.reapIdle()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if e := h.rooms[msg.Code]; e != nil {
					msg.Reply <- e.room
					break
				}
				msg.Reply <- h.spawn(msg.Code)

			case GetRoom:
				if e := h.rooms[msg.Code]; e != nil {
					msg.Reply <- e.room
				} else {
					msg.Reply <- nil
				}

			case EnsureRoom:
				if e := h.rooms[msg.Code]; e != nil {
					msg.Reply <- e.room
					break
				}
				msg.Reply <- h.spawn(msg.Code)

			case TouchRoom:
				if e := h.rooms[msg.Code]; e != nil {
					e.emptySince = time.Time{}
				}

			case RemoveRoom:
				h.remove(msg.Code)

			case ListRooms:
				msg.Reply <- h.snapshotRooms()

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) spawn(code string) *room.Room {
	r := room.New(h.ctx, room.Options{
		Code:       code,
		TickHz:     h.opts.TickHz,
		ScoreLimit: h.opts.ScoreLimit,
		Recorder:   h.opts.Recorder,
		Logger:     h.log,
		OnEmpty: func(c string) {
			// Called from the room goroutine; route through the inbox so the
			// registry still has a single writer.
			select {
			case h.inbox <- RemoveRoom{Code: c}:
			case <-h.ctx.Done():
			}
		},
	})
	h.rooms[code] = &entry{room: r, emptySince: time.Now()}
	h.log.Info("room created", zap.String("room", code))
	return r
}

func (h *Hub) remove(code string) {
	e, ok := h.rooms[code]
	if !ok {
		return
	}
	e.room.Inbox() <- room.Shutdown{}
	delete(h.rooms, code)
	h.log.Info("room removed", zap.String("room", code))
}

func (h *Hub) reapIdle() {
	now := time.Now()
	for code, e := range h.rooms {
		if !e.emptySince.IsZero() && now.Sub(e.emptySince) > h.opts.RoomTTL {
			h.log.Info("reaping idle room", zap.String("room", code))
			h.remove(code)
		}
	}
}

// snapshotRooms asks every room for its view. Rooms answer from their own
// loop, so a reply is awaited with a short timeout in case one is mid-shutdown.
func (h *Hub) snapshotRooms() []room.View {
	views := make([]room.View, 0, len(h.rooms))
	for _, e := range h.rooms {
		reply := make(chan room.View, 1)
		e.room.Inbox() <- room.GetState{Reply: reply}
		select {
		case v := <-reply:
			views = append(views, v)
		case <-time.After(250 * time.Millisecond):
		}
	}
	return views
}

func (h *Hub) shutdown() {
	for code, e := range h.rooms {
		e.room.Inbox() <- room.Shutdown{}
		delete(h.rooms, code)
	}
	h.cancel()
}
