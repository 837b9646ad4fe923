package eventbus

import "testing"

func TestPublishSubscribe(t *testing.T) {
	b := New[int]()
	ch := b.Subscribe()
	b.Publish(42)
	select {
	case v := <-ch:
		if v != 42 {
			t.Fatalf("got %d want 42", v)
		}
	default:
		t.Fatalf("event not delivered")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New[int]()
	b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(i) // must not block once the buffer fills
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New[int]()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed after unsubscribe")
	}
	b.Publish(1)
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New[int]()
	ch := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed after bus close")
	}
	b.Publish(1)
	if ch2 := b.Subscribe(); ch2 != nil {
		if _, ok := <-ch2; ok {
			t.Fatalf("subscription after close delivered an event")
		}
	}
}
