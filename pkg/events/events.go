package events

import (
	"sync"
	"time"
)

// Topic names a logical event channel. The lifecycle core uses exactly
// one: TopicTimer, whose payload is a tenant id string.
type Topic string

const (
	// TopicTimer carries a tenant id every time that tenant's module set
	// changes, prompting TimerScheduler to re-enumerate its timer
	// interfaces and re-arm/disarm as needed.
	TopicTimer Topic = "timer"
)

// Event is one published message: a topic plus an opaque payload. For
// TopicTimer, Payload is the tenant id.
type Event struct {
	Topic     Topic
	Payload   string
	Timestamp time.Time
}

// Handler consumes one event. Handlers run on the broker's single
// distribution goroutine and must not block.
type Handler func(Event)

// subscription pairs a handler with the topic it was registered for.
type subscription struct {
	topic   Topic
	handler Handler
}

// Broker is a typed, in-process publish/consume bus standing in for the
// external EventBus collaborator: publish(topic, payload), consume(topic,
// handler). Delivery is fire-and-forget and best-effort. A panicking
// handler is recovered and does not stop delivery to other subscribers.
// Handlers run one after another on a single dispatch goroutine, so a
// slow handler delays every later event; once the 100-event buffer is
// full, Publish blocks until the dispatcher catches up.
type Broker struct {
	mu   sync.RWMutex
	subs map[Topic][]*subscription

	eventCh chan Event
	stopCh  chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subs:    make(map[Topic][]*subscription),
		eventCh: make(chan Event, 100),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. Publish after Stop is a no-op.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Consume registers handler to be invoked for every event published on
// topic, until the returned cancel function is called.
func (b *Broker) Consume(topic Topic, handler Handler) (cancel func()) {
	sub := &subscription{topic: topic, handler: handler}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, s := range subs {
			if s == sub {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish publishes payload on topic. It is safe to call concurrently
// and never blocks callers beyond the broker's internal buffer.
func (b *Broker) Publish(topic Topic, payload string) {
	event := Event{Topic: topic, Payload: payload, Timestamp: time.Now()}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) dispatch(event Event) {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[event.Topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		invoke(sub.handler, event)
	}
}

// invoke runs a handler with panic isolation so one misbehaving
// consumer can't take down the broker's distribution loop.
func invoke(handler Handler, event Event) {
	defer func() { _ = recover() }()
	handler(event)
}

// SubscriberCount returns the number of active subscriptions for topic.
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
