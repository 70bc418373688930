package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSendToSubscribers(t *testing.T) {
	var feed Feed
	ch1 := make(chan int, 1)
	ch2 := make(chan int, 1)

	sub1 := feed.Subscribe(ch1)
	sub2 := feed.Subscribe(ch2)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	n := feed.Send(42)
	assert.Equal(t, 2, n)
	assert.Equal(t, 42, <-ch1)
	assert.Equal(t, 42, <-ch2)
}

func TestFeedSendDoesNotBlockOnFullSubscriber(t *testing.T) {
	var feed Feed
	ch := make(chan int) // unbuffered, nobody reads
	sub := feed.Subscribe(ch)
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		feed.Send(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Send blocked on a stalled subscriber")
	}
}

func TestFeedUnsubscribeStopsDelivery(t *testing.T) {
	var feed Feed
	ch := make(chan int, 1)
	sub := feed.Subscribe(ch)
	sub.Unsubscribe()

	feed.Send(7)
	select {
	case <-ch:
		require.Fail(t, "unsubscribed channel should not receive")
	default:
	}

	select {
	case <-sub.Err():
	default:
		require.Fail(t, "Err channel should be closed after Unsubscribe")
	}
}

func TestFeedTypeMismatchPanics(t *testing.T) {
	var feed Feed
	ch := make(chan int, 1)
	sub := feed.Subscribe(ch)
	defer sub.Unsubscribe()

	assert.Panics(t, func() { feed.Send("not an int") })
}
