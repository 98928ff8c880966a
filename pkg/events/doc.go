/*
Package events provides an in-memory, topic-based event broker standing in
for the tenant lifecycle manager's external EventBus collaborator.

The lifecycle façade publishes a tenant id on the "timer" topic every time
a tenant's enabled module set changes; the TimerScheduler consumes that
topic to re-enumerate timer interfaces and arm or disarm per-module
timers. Delivery is asynchronous, best-effort, and non-blocking.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Topic-scoped subscriptions                │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publish(topic, payload) → event channel    │          │
	│  │       ↓                                      │          │
	│  │  Dispatch Loop                               │          │
	│  │       ↓                                      │          │
	│  │  Handlers registered via Consume(topic, fn) │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	import "github.com/moduleplatform/tenantd/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	cancel := broker.Consume(events.TopicTimer, func(e events.Event) {
		tenantID := e.Payload
		scheduler.Resync(tenantID)
	})
	defer cancel()

	broker.Publish(events.TopicTimer, tenant.ID)

# Design Patterns

Non-Blocking Publish:
  - Publish sends to a buffered channel and returns immediately.
  - A full buffer blocks the publisher only until Stop is called.

Fire-and-Forget:
  - Handlers run on the broker's single dispatch goroutine.
  - A panicking handler is isolated and does not stop dispatch to others.
  - No acknowledgment or retry; unsuitable for durable delivery.

# Limitations

In-memory only, no persistence or replay, no ordering guarantee across
topics. A production deployment replaces this with the external EventBus
the lifecycle core otherwise treats as a consumed interface.
*/
package events
