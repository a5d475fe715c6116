// Package events carries process-wide session signals between the transport
// layer that detects them and the components that react to them.
package events

import "sync"

// SessionExpired is the name of the signal raised when a renewal exchange fails
// and the session can no longer be recovered.
const SessionExpired = "auth:session-expired"

// Broadcaster delivers a payload-less signal to every current subscriber.
// Subscribers run synchronously, in subscription order, on the goroutine that
// calls Broadcast.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func()
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers fn and returns a function that unregisters it. The
// returned function is safe to call more than once.
func (b *Broadcaster) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Broadcast invokes every subscriber registered at the time of the call.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Len returns the number of current subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
