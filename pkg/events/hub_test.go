package events

import (
	"testing"
)

func TestEventHub(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	h.Publish(AlertSent, AlertEvent{Message: "Level is low! (15% remaining)", TimeoutMs: 0})

	ev := <-ch
	if ev.Name != AlertSent {
		t.Fatalf("event name = %q, want %q", ev.Name, AlertSent)
	}
	payload, err := DecodeAs[AlertEvent](ev)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Message != "Level is low! (15% remaining)" {
		t.Errorf("payload = %+v", payload)
	}

	h.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestEventHubDropsForSlowSubscribers(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	for i := 0; i < 100; i++ {
		h.Publish(StatusChanged, StatusChangedEvent{Percent: i})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered events = %d, want %d", got, cap(ch))
	}
}

func TestNilHubPublish(t *testing.T) {
	var h *EventHub
	h.Publish(AlertSent, AlertEvent{})
}
