package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversToJobSubscribers(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("job-1")
	other := bus.Subscribe("job-2")

	bus.Publish("job-1", Event{Type: EventCompleted, JobID: "job-1", ResultCount: 3})

	select {
	case event := <-ch:
		assert.Equal(t, EventCompleted, event.Type)
		assert.Equal(t, 3, event.ResultCount)
	default:
		t.Fatal("expected a buffered event for job-1")
	}

	select {
	case event := <-other:
		t.Fatalf("job-2 subscriber received %+v", event)
	default:
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("job-1")

	bus.Unsubscribe("job-1", ch)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after the last subscriber left is a no-op.
	bus.Publish("job-1", Event{Type: EventFailed, JobID: "job-1"})
}

func TestEventBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("job-1")

	for i := 0; i < cap(ch)+5; i++ {
		bus.Publish("job-1", Event{Type: EventCompleted, JobID: "job-1", ResultCount: i})
	}

	// The buffer holds the first cap(ch) events; the rest were dropped.
	require.Len(t, ch, cap(ch))
	first := <-ch
	assert.Zero(t, first.ResultCount)
}

func TestEventBusMultipleSubscribersSameJob(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe("job-1")
	b := bus.Subscribe("job-1")

	bus.Publish("job-1", Event{Type: EventFailed, JobID: "job-1", ErrorMessage: "boom"})

	for _, ch := range []chan Event{a, b} {
		select {
		case event := <-ch:
			assert.Equal(t, "boom", event.ErrorMessage)
		default:
			t.Fatal("expected event on every subscriber")
		}
	}
}
