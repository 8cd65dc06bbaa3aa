package hub

import (
	"context"
	"testing"
	"time"

	"github.com/courtside/pong-backend/internal/room"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	r1 := <-reply

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	r2 := <-reply

	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_GetUnknownRoomIsNil(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- GetRoom{Code: "NOPE", Reply: reply}
	if r := <-reply; r != nil {
		t.Fatalf("expected nil for unknown code, got %v", r)
	}
}

func TestHub_RemoveRoom(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "GONE42", Reply: reply}
	<-reply

	h.Inbox() <- RemoveRoom{Code: "GONE42"}

	h.Inbox() <- GetRoom{Code: "GONE42", Reply: reply}
	if r := <-reply; r != nil {
		t.Fatalf("room should be gone after RemoveRoom")
	}
}

func TestHub_ReaperRemovesNeverJoinedRooms(t *testing.T) {
	h := NewHub(context.Background(), Options{
		RoomTTL:      50 * time.Millisecond,
		ReapInterval: 20 * time.Millisecond,
	})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "IDLE01", Reply: reply}
	<-reply

	deadline := time.After(time.Second)
	for {
		h.Inbox() <- GetRoom{Code: "IDLE01", Reply: reply}
		if r := <-reply; r == nil {
			return // reaped
		}
		select {
		case <-deadline:
			t.Fatalf("idle room was never reaped")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestHub_TouchKeepsRoomAlive(t *testing.T) {
	h := NewHub(context.Background(), Options{
		RoomTTL:      50 * time.Millisecond,
		ReapInterval: 20 * time.Millisecond,
	})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "BUSY01", Reply: reply}
	<-reply
	h.Inbox() <- TouchRoom{Code: "BUSY01"}

	time.Sleep(150 * time.Millisecond)

	h.Inbox() <- GetRoom{Code: "BUSY01", Reply: reply}
	if r := <-reply; r == nil {
		t.Fatalf("occupied room must not be reaped")
	}
}

func TestHub_ListRooms(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	reply := make(chan *room.Room, 1)
	h.Inbox() <- CreateRoom{Code: "LIST01", Reply: reply}
	<-reply

	views := make(chan []room.View, 1)
	h.Inbox() <- ListRooms{Reply: views}
	select {
	case vs := <-views:
		if len(vs) != 1 || vs[0].Code != "LIST01" {
			t.Fatalf("unexpected room listing: %+v", vs)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for room listing")
	}
}
