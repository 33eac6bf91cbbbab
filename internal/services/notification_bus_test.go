package services

import (
	"context"
	"testing"
	"time"
)

func TestChannelName(t *testing.T) {
	if ChannelNotificationCreate != "notification:create" {
		t.Errorf("unexpected channel name %q", ChannelNotificationCreate)
	}
}

func TestSyncBusDispatchesToHandler(t *testing.T) {
	bus := NewSyncBus()

	received := make(chan *CreateNotification, 1)
	bus.SetHandler(func(ctx context.Context, n *CreateNotification) error {
		received <- n
		return nil
	})

	err := bus.Publish(context.Background(), &CreateNotification{
		Title: "deploy finished",
		Type:  "success",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case n := <-received:
		if n.Title != "deploy finished" || n.Type != "success" {
			t.Errorf("handler got %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestSyncBusDropsWithoutHandler(t *testing.T) {
	bus := NewSyncBus()
	if err := bus.Publish(context.Background(), &CreateNotification{Title: "orphan"}); err != nil {
		t.Errorf("publish without handler should not error, got %v", err)
	}
}

func TestSyncBusIsNotAsync(t *testing.T) {
	bus := NewSyncBus()
	if bus.IsAsync() {
		t.Error("sync bus must report IsAsync() == false")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}
