package hub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ddnowicki/live-captioning/types"
)

func TestHubOperationsReturnAfterShutdown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down")
	}

	finished := make(chan struct{})
	go func() {
		c := &Client{ID: uuid.New()}
		h.Register(c)
		h.Broadcast(types.Message{Type: types.TypeReady})
		h.Unregister(c)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub operations blocked after shutdown")
	}
}

func TestRegisterBroadcastUnregister(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// a closed client is skipped by broadcast rather than written to
	c := &Client{ID: uuid.New(), closed: true}
	h.Register(c)
	h.Broadcast(types.Message{Type: types.TypeStopped})
	h.Unregister(c)

	done := make(chan struct{})
	go func() {
		h.Broadcast(types.Message{Type: types.TypeReady})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with live hub")
	}
}
