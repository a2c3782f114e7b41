package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var seen []string
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.Identifier)
		return boom
	})
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.Identifier)
		return nil
	})
	d.Subscribe(EventLoginSucceeded, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventLoginFailed, Identifier: "a@example.com"})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"first:a@example.com", "second:a@example.com"}, seen)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserRegistered}))
}
