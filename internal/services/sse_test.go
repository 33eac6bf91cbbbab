package services

import (
	"testing"
	"time"
)

func TestSSEHubSubscribePublish(t *testing.T) {
	hub := NewSSEHub()

	ch := hub.Subscribe("client-1")
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}

	hub.Publish(NotificationEvent{UnreadCount: 3})

	select {
	case event := <-ch:
		if event.UnreadCount != 3 {
			t.Errorf("UnreadCount = %d, want 3", event.UnreadCount)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestSSEHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewSSEHub()

	ch := hub.Subscribe("client-1")
	hub.Unsubscribe("client-1")

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after unsubscribe, want 0", hub.ClientCount())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// Unsubscribing twice must not panic
	hub.Unsubscribe("client-1")
}

func TestSSEHubBroadcastsToAllClients(t *testing.T) {
	hub := NewSSEHub()

	a := hub.Subscribe("a")
	b := hub.Subscribe("b")

	hub.Publish(NotificationEvent{UnreadCount: 1})

	for name, ch := range map[string]<-chan NotificationEvent{"a": a, "b": b} {
		select {
		case event := <-ch:
			if event.UnreadCount != 1 {
				t.Errorf("client %s got UnreadCount %d", name, event.UnreadCount)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s received nothing", name)
		}
	}
}

func TestSSEHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewSSEHub()
	hub.Subscribe("slow")

	// Buffer holds 100 events; beyond that publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 150; i++ {
			hub.Publish(NotificationEvent{UnreadCount: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
}
