package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, e Event) error {
		got = append(got, "deleted:"+e.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"}))
	assert.Equal(t, []string{"first:t-1", "second:t-1"}, got)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		return errors.New("handler failure")
	})
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketResolved}))
	assert.True(t, delivered)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketAccepted}))
}
