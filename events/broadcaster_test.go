package events_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/events"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	b := events.NewBroadcaster()

	var calls []string
	unsubA := b.Subscribe(func() { calls = append(calls, "a") })
	b.Subscribe(func() { calls = append(calls, "b") })
	require.Equal(t, 2, b.Len())

	b.Broadcast()
	require.Equal(t, []string{"a", "b"}, calls)

	unsubA()
	unsubA()
	require.Equal(t, 1, b.Len())

	calls = nil
	b.Broadcast()
	require.Equal(t, []string{"b"}, calls)
}

func TestBroadcaster_SubscriberUnsubscribesDuringBroadcast(t *testing.T) {
	b := events.NewBroadcaster()

	var unsub func()
	count := 0
	unsub = b.Subscribe(func() {
		count++
		unsub()
	})

	b.Broadcast()
	b.Broadcast()
	require.Equal(t, 1, count)
	require.Equal(t, 0, b.Len())
}
