package room

import (
	"context"
	"testing"
	"time"

	"github.com/courtside/pong-backend/internal/engine"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newTestRoom(t *testing.T, opts Options) *Room {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if opts.Code == "" {
		opts.Code = "TEST01"
	}
	if opts.TickHz == 0 {
		opts.TickHz = 100 // fast ticks keep the tests snappy
	}
	return New(ctx, opts)
}

func TestRoom_JoinSendsImmediateSnapshot(t *testing.T) {
	r := newTestRoom(t, Options{})

	out := make(chan Snapshot, 8)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}

	snap := recvSnapshot(t, out, 200*time.Millisecond)
	if snap.State.Status != engine.StatusWaiting {
		t.Fatalf("single player: want status waiting, got %v", snap.State.Status)
	}
}

func TestRoom_SecondPlayerStartsMatch(t *testing.T) {
	r := newTestRoom(t, Options{})

	out1 := make(chan Snapshot, 64)
	out2 := make(chan Snapshot, 64)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out1}
	r.Inbox() <- Join{ClientID: "c2", Outbox: out2}

	snap := recvSnapshot(t, out2, 200*time.Millisecond)
	if snap.State.Status != engine.StatusPlaying {
		t.Fatalf("two players: want status playing, got %v", snap.State.Status)
	}
}

func TestRoom_InputMovesPaddleOnNextTick(t *testing.T) {
	r := newTestRoom(t, Options{})

	out1 := make(chan Snapshot, 256)
	out2 := make(chan Snapshot, 256)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out1}
	r.Inbox() <- Join{ClientID: "c2", Outbox: out2}

	r.Inbox() <- Input{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMovePaddle, Direction: engine.DirUp}}

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-out1:
			if snap.State.Paddles.Player1Y > 0 {
				return // input applied
			}
		case <-deadline:
			t.Fatalf("paddle never moved after input")
		}
	}
}

func TestRoom_SpectatorInputIsIgnored(t *testing.T) {
	r := newTestRoom(t, Options{})

	out1 := make(chan Snapshot, 256)
	out2 := make(chan Snapshot, 256)
	out3 := make(chan Snapshot, 256)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out1}
	r.Inbox() <- Join{ClientID: "c2", Outbox: out2}
	r.Inbox() <- Join{ClientID: "c3", Outbox: out3}

	// c3 holds no slot; its commands must not touch either paddle.
	r.Inbox() <- Input{ClientID: "c3", Cmd: engine.Command{Type: engine.CmdMovePaddle, Direction: engine.DirUp}}

	time.Sleep(100 * time.Millisecond)
	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)

	if view.State.Paddles.Player1Y != 0 || view.State.Paddles.Player2Y != 0 {
		t.Fatalf("spectator input moved a paddle: %+v", view.State.Paddles)
	}
}

func TestRoom_DropSlowClient(t *testing.T) {
	r := newTestRoom(t, Options{})

	// Buffer of one: the join snapshot fills it, the first tick broadcast
	// finds it full and drops the client.
	out := make(chan Snapshot, 1)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}

	time.Sleep(100 * time.Millisecond)
	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)

	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestRoom_OnEmptyFiresAfterLastLeave(t *testing.T) {
	emptied := make(chan string, 1)
	r := newTestRoom(t, Options{OnEmpty: func(code string) { emptied <- code }})

	out := make(chan Snapshot, 64)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 200*time.Millisecond)
	r.Inbox() <- Leave{ClientID: "c1"}

	select {
	case code := <-emptied:
		if code != "TEST01" {
			t.Fatalf("unexpected code in OnEmpty: %q", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("OnEmpty never fired")
	}
}
